package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-groundqa/internal/artifact"
	"github.com/ahrav/go-groundqa/internal/batch"
)

func newMergeCmd(state *cliState) *cobra.Command {
	var (
		from, to  int
		out       string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Concatenate answers from..to into one file, one line per answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := state.cfg.Batch.OutputDir
			if cmd.Flags().Changed("output") {
				dir = outputDir
			}
			store, err := artifact.NewFileStore(dir)
			if err != nil {
				return err
			}
			ref, err := batch.Merge(cmd.Context(), store, from, to, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "merged %d answers into %s (%d bytes)\n", to-from+1, ref.Key, ref.Size)
			return nil
		},
	}

	cmd.Flags().IntVar(&from, "from", 1, "First answer index")
	cmd.Flags().IntVar(&to, "to", 0, "Last answer index")
	cmd.Flags().StringVar(&out, "out", "merged.txt", "Merged output file")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory holding the answers")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
