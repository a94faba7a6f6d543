package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the pipeline and resolve its executors without running it",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, pipeline, err := newService(cmd.Context())
		if err != nil {
			printStatus(cmd.ErrOrStderr(), "✗", err.Error(), color.FgRed)
			return err
		}
		defer srv.Close()
		out := cmd.OutOrStdout()
		printStatus(out, "✓", fmt.Sprintf("pipeline %s is valid", pipeline.Name), color.FgGreen)
		fmt.Fprintf(out, "  executors:   %d\n", len(pipeline.Executors))
		fmt.Fprintf(out, "  tasks:       %d\n", len(pipeline.Tasks))
		for _, task := range pipeline.Tasks {
			if task.IsCheckpoint() {
				fmt.Fprintf(out, "  checkpoint:  %s (%s)\n", color.YellowString(task.ID), task.Executor)
			}
		}
		if handoff := pipeline.Handoff; handoff != nil && handoff.URL != "" {
			fmt.Fprintf(out, "  handoff:     %s\n", handoff.URL)
		}
		return nil
	},
}
