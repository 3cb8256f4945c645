package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexandre-axioma/Axiom8/internal/config"
	"github.com/alexandre-axioma/Axiom8/internal/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage service configuration",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Writes the default configuration to the path given by --config.
The generated file runs entirely on mock providers and in-memory sessions;
edit the llm and retrieval sections to point at real services.`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfigLoader(config.NewConfigValidator()).Load(configPath)
		if err != nil {
			return err
		}
		cmd.Printf("%s is valid (server %s, session backend %s)\n",
			configPath, cfg.Server.Addr(), cfg.Session.Backend)
		return nil
	},
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !configInitForce {
		return types.NewError(types.CONFIG_LOAD_FAILED,
			fmt.Sprintf("%s already exists (use --force to overwrite)", configPath))
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return types.WrapError(types.CONFIG_PARSE_FAILED, "failed to render default config", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return types.WrapError(types.CONFIG_LOAD_FAILED, "failed to write config file", err)
	}

	cmd.Printf("Wrote default configuration to %s\n", configPath)
	return nil
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}
