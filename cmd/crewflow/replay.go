package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <runId> <taskId>",
	Short: "Re-run a stored run starting at a task",
	Long: `Replay starts a new run that reuses the outputs the stored run recorded
before taskId and executes the pipeline from taskId onwards. The source run
must be readable from the configured store (fs or sqlite).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		srv, _, err := newService(ctx)
		if err != nil {
			return err
		}
		defer srv.Close()
		rt := srv.Runtime()
		runID, err := rt.Replay(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), "▶", fmt.Sprintf("run %s replays %s from %s", runID, args[0], args[1]), color.FgCyan)
		reportProgress(rt, runID, cmd.OutOrStdout())
		return drive(ctx, rt, checkpointPolicy(srv), runID, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	replayCmd.Flags().BoolVar(&runAutoApprove, "auto-approve", false, "Approve every checkpoint without prompting")
}
