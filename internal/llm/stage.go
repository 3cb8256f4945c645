package llm

import "context"

// StageAdapter wraps a Provider behind a single generate(prompt) -> text
// contract. Each reasoning stage of the pipeline owns one adapter carrying
// its system instruction and sampling settings; the stage code never sees
// which provider or model is configured behind it.
type StageAdapter struct {
	provider     Provider
	systemPrompt string
	model        string
	temperature  float64
	maxTokens    int
}

// StageOption is a functional option for configuring a StageAdapter.
type StageOption func(*StageAdapter)

// WithModel sets the model passed on each completion request.
func WithModel(model string) StageOption {
	return func(s *StageAdapter) {
		s.model = model
	}
}

// WithTemperature sets the sampling temperature (0.0-1.0).
func WithTemperature(temp float64) StageOption {
	return func(s *StageAdapter) {
		if temp >= 0.0 && temp <= 1.0 {
			s.temperature = temp
		}
	}
}

// WithMaxTokens sets the maximum tokens to generate.
func WithMaxTokens(tokens int) StageOption {
	return func(s *StageAdapter) {
		if tokens > 0 {
			s.maxTokens = tokens
		}
	}
}

// NewStageAdapter creates a stage adapter over the given provider with the
// stage's fixed system instruction.
func NewStageAdapter(provider Provider, systemPrompt string, opts ...StageOption) *StageAdapter {
	s := &StageAdapter{
		provider:     provider,
		systemPrompt: systemPrompt,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Provider returns the underlying provider, mainly for health checks.
func (s *StageAdapter) Provider() Provider {
	return s.provider
}

// Generate composes the stage's system instruction with the given prompt,
// runs a single completion, and returns the assistant text. Provider failures
// come back as structured errors; the caller decides whether they end the turn.
func (s *StageAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	req := CompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		Messages: []Message{
			NewSystemMessage(s.systemPrompt),
			NewUserMessage(prompt),
		},
	}

	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		return "", TranslateError(s.provider.Name(), err)
	}

	return resp.Message.Content, nil
}
