package main

import (
	"github.com/spf13/cobra"

	"github.com/ahrav/go-groundqa/internal/config"
)

// cliState is shared by the subcommands; PersistentPreRunE fills cfg.
type cliState struct {
	configFile string
	envFile    string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	state := &cliState{}

	root := &cobra.Command{
		Use:           "groundqa",
		Short:         "Answer questions with a language model grounded in web search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.LoadOptions{
				ConfigFile: state.configFile,
				EnvFile:    state.envFile,
			})
			if err != nil {
				return err
			}
			state.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&state.configFile, "config", "", "Path to a YAML config file (default: ./groundqa.yaml if present)")
	root.PersistentFlags().StringVar(&state.envFile, "env-file", "", "Path to a dotenv file (default: ./.env if present)")

	root.AddCommand(
		newRunCmd(state),
		newAskCmd(state),
		newMergeCmd(state),
	)
	return root
}
