package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-groundqa/internal/artifact"
	"github.com/ahrav/go-groundqa/internal/batch"
)

func newRunCmd(state *cliState) *cobra.Command {
	var (
		input           string
		outputDir       string
		start           int
		workers         int
		continueOnError bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Answer every question of an input file, skipping those already answered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := state.cfg
			flags := cmd.Flags()
			if flags.Changed("input") {
				cfg.Batch.Input = input
			}
			if flags.Changed("output") {
				cfg.Batch.OutputDir = outputDir
			}
			if flags.Changed("start") {
				cfg.Batch.StartIndex = start
			}
			if flags.Changed("workers") {
				cfg.Batch.Workers = workers
			}
			if flags.Changed("continue-on-error") {
				cfg.Batch.ContinueOnError = continueOnError
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store, err := artifact.NewFileStore(cfg.Batch.OutputDir)
			if err != nil {
				return err
			}

			summary, err := batch.NewRunner(a.orchestrator, store, cfg.Batch.Config).
				Run(cmd.Context(), cfg.Batch.Input, cfg.Batch.StartIndex)
			fmt.Fprintf(cmd.OutOrStdout(), "processed=%d skipped=%d failed=%d\n",
				summary.Processed, summary.Skipped, summary.Failed)
			return err
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Newline-delimited question file")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory receiving one <index>.txt answer per question")
	cmd.Flags().IntVar(&start, "start", 0, "Index of the first question in the file")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Questions answered concurrently")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Skip failed questions instead of aborting")
	return cmd
}
