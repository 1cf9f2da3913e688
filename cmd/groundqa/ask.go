package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(state *cliState) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), state.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			run, err := a.orchestrator.Run(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if verbose {
				fmt.Fprintf(out, "Question: %s\nKeywords: %s\nSearched: %t (attempts %d)\n\n",
					run.ExtractedQuestion, run.Keywords, run.SearchNeeded, run.SearchAttempts)
			}
			fmt.Fprintln(out, run.Answer)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the extracted question, keywords and search decision")
	return cmd
}
