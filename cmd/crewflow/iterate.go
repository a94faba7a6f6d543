package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/viant/crewflow"
	"github.com/viant/crewflow/policy"
	"github.com/viant/crewflow/runtime/run"
)

const unattendedFeedback = "approved by test run"

var testIterations int

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the pipeline repeatedly and report the outcome of every run",
	Long: `Test starts --iterations runs of the pipeline one after another with the
same input. Checkpoints covered by the configured checkpoint policy are
decided by it; every other checkpoint is approved so that the runs proceed
unattended. The command fails when any run fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		srv, pipeline, err := newService(ctx)
		if err != nil {
			return err
		}
		defer srv.Close()
		input, err := loadInput(runInput)
		if err != nil {
			return err
		}
		report, err := iterate(ctx, srv.Runtime(), srv.Policy(), pipeline.Name, input, testIterations, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if failed := report.States[run.StateFailed]; failed > 0 {
			return fmt.Errorf("%d of %d runs failed", failed, report.Runs)
		}
		return nil
	},
}

func init() {
	testCmd.Flags().IntVarP(&testIterations, "iterations", "n", 1, "Number of runs")
	testCmd.Flags().StringVarP(&runInput, "input", "i", "", "Input document: inline JSON or a JSON file path")
}

type testReport struct {
	Runs    int
	States  map[run.State]int
	Elapsed time.Duration
}

// iterate runs pipeline name n times in sequence and prints one line per run.
func iterate(ctx context.Context, rt *crewflow.Runtime, p *policy.Policy, name string, input interface{}, n int, out io.Writer) (*testReport, error) {
	if n <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", n)
	}
	report := &testReport{States: map[run.State]int{}}
	began := time.Now()
	for i := 1; i <= n; i++ {
		startedAt := time.Now()
		runID, err := rt.Start(ctx, name, input)
		if err != nil {
			return report, err
		}
		summary, err := settle(ctx, rt, p, runID)
		if err != nil {
			return report, err
		}
		report.Runs++
		report.States[summary.State]++
		elapsed := time.Since(startedAt).Round(time.Millisecond)
		printStatus(out, "●", fmt.Sprintf("[%d/%d] run %s: %s (%d outputs, %s)", i, n, runID, summary.Status, len(summary.Outputs), elapsed), stateColor(summary.State))
	}
	report.Elapsed = time.Since(began)
	fmt.Fprintf(out, "  %s completed %d, rejected %d, failed %d of %d in %s\n",
		color.CyanString("summary:"),
		report.States[run.StateCompleted], report.States[run.StateRejected], report.States[run.StateFailed],
		report.Runs, report.Elapsed.Round(time.Millisecond))
	return report, nil
}

// settle decides every checkpoint of runID without a reviewer until the run
// reaches a terminal state. Interrupting cancels the run.
func settle(ctx context.Context, rt *crewflow.Runtime, p *policy.Policy, runID string) (*run.Summary, error) {
	for {
		summary, err := rt.Wait(ctx, runID)
		if err != nil {
			if ctx.Err() != nil {
				_, _ = rt.Cancel(context.WithoutCancel(ctx), runID)
			}
			return nil, err
		}
		if summary.State != run.StateSuspended {
			return summary, nil
		}
		decision := p.Decide(summary.CurrentTaskID)
		if decision == nil {
			decision = &run.Decision{TaskID: summary.CurrentTaskID, Verdict: run.VerdictApprove, Feedback: unattendedFeedback}
		}
		if _, err = rt.Resolve(ctx, runID, decision); err != nil {
			return nil, err
		}
	}
}
