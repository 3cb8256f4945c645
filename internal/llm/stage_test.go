package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandre-axioma/Axiom8/internal/llm"
	"github.com/alexandre-axioma/Axiom8/internal/llm/providers"
)

func TestStageAdapterGenerate(t *testing.T) {
	mock := providers.NewMockProvider([]string{"COMPLETE: monitor a sheet and alert Slack"})
	stage := llm.NewStageAdapter(mock, "you analyze requirements",
		llm.WithModel("mock-model"),
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(512),
	)

	out, err := stage.Generate(context.Background(), "user wants spreadsheet alerts")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETE: monitor a sheet and alert Slack", out)

	calls := mock.GetCalls()
	require.Len(t, calls, 1)

	req := calls[0].Request
	assert.Equal(t, "mock-model", req.Model)
	assert.Equal(t, 512, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, "you analyze requirements", req.Messages[0].Content)
	assert.Equal(t, llm.RoleUser, req.Messages[1].Role)
}

func TestStageAdapterGenerateTranslatesErrors(t *testing.T) {
	mock := providers.NewMockProvider(nil)
	stage := llm.NewStageAdapter(mock, "system")

	_, err := stage.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, llm.IsRetryable(err))
}

func TestStageAdapterDeterministicReplay(t *testing.T) {
	// The same prompt against the same deterministic backend must yield the
	// same text on every invocation.
	mock := providers.NewMockProvider([]string{"{\"nodes\":[]}"})
	stage := llm.NewStageAdapter(mock, "generate workflows")

	first, err := stage.Generate(context.Background(), "build it")
	require.NoError(t, err)

	mock.Reset()

	second, err := stage.Generate(context.Background(), "build it")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
