package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/viant/crewflow"
	"github.com/viant/crewflow/pipelines"
	"github.com/viant/crewflow/policy"
	"github.com/viant/crewflow/progress"
	"github.com/viant/crewflow/runtime/run"
)

var (
	runInput       string
	runAutoApprove bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline, reviewing checkpoints in the terminal",
	Long: `Run starts the pipeline and drives it to completion. At every checkpoint
the proposed output is printed and a verdict is read from stdin:

  y / approve [feedback]   continue with the proposal
  n / reject  [feedback]   stop the run

Checkpoints covered by the configured checkpoint policy are decided without
prompting; --auto-approve approves every checkpoint.`,
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
		rt := srv.Runtime()
		runID, err := rt.Start(ctx, pipeline.Name, input)
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), "▶", fmt.Sprintf("run %s of %s started", runID, pipeline.Name), color.FgCyan)
		reportProgress(rt, runID, cmd.OutOrStdout())
		return drive(ctx, rt, checkpointPolicy(srv), runID, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "Input document: inline JSON or a JSON file path")
	runCmd.Flags().BoolVar(&runAutoApprove, "auto-approve", false, "Approve every checkpoint without prompting")
}

// loadInput returns the run input; the built-in pipeline falls back to its sample intake.
func loadInput(value string) (interface{}, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		if isDefaultPipeline() {
			return json.RawMessage(pipelines.ValidationInput), nil
		}
		return nil, nil
	case strings.HasPrefix(value, "{"):
		return json.RawMessage(value), nil
	}
	data, err := os.ReadFile(value)
	if err != nil {
		return nil, fmt.Errorf("failed to read input %s: %w", value, err)
	}
	return json.RawMessage(data), nil
}

// reportProgress prints a counter line whenever a task of runID completes.
func reportProgress(rt *crewflow.Runtime, runID string, out io.Writer) {
	completed := 0
	rt.Progress().OnChange(func(p progress.Progress) {
		if p.RunID != runID || p.CompletedTasks == completed {
			return
		}
		completed = p.CompletedTasks
		fmt.Fprintf(out, "  %s %s\n", color.CyanString("[%d/%d]", p.CompletedTasks, p.TotalTasks), p.Status)
	})
}

// checkpointPolicy returns the configured policy; --auto-approve overrides it.
func checkpointPolicy(srv *crewflow.Service) *policy.Policy {
	if runAutoApprove {
		return &policy.Policy{Mode: policy.ModeAuto}
	}
	return srv.Policy()
}

// drive waits on runID, prompting at every checkpoint p does not cover until
// the run settles in a terminal state. Interrupting cancels the run.
func drive(ctx context.Context, rt *crewflow.Runtime, p *policy.Policy, runID string, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		summary, err := rt.Wait(ctx, runID)
		if err != nil {
			if ctx.Err() != nil {
				summary, err = rt.Cancel(context.WithoutCancel(ctx), runID)
				if err == nil {
					printSummary(out, summary)
				}
			}
			return err
		}
		if summary.State != run.StateSuspended {
			printSummary(out, summary)
			if summary.State == run.StateFailed {
				return fmt.Errorf("run %s failed", runID)
			}
			return nil
		}
		printProposal(out, summary)
		decision := p.Decide(summary.CurrentTaskID)
		if decision != nil {
			printStatus(out, "→", fmt.Sprintf("%s: %s", summary.CurrentTaskID, decision.Feedback), color.FgCyan)
		} else if decision, err = prompt(reader, out, summary.CurrentTaskID); err != nil {
			return err
		}
		if _, err = rt.Resolve(ctx, runID, decision); err != nil {
			return err
		}
	}
}

func prompt(reader *bufio.Reader, out io.Writer, taskID string) (*run.Decision, error) {
	for {
		fmt.Fprintf(out, "%s ", color.YellowString("approve %s? [y/n] [feedback]:", taskID))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return nil, fmt.Errorf("no verdict for %s: stdin closed", taskID)
			}
			return nil, err
		}
		if decision := parseVerdict(taskID, line); decision != nil {
			return decision, nil
		}
		printStatus(out, "✗", "expected y, n, approve or reject", color.FgRed)
	}
}

// parseVerdict reads "<verdict> [feedback]"; nil means the line is not a verdict.
func parseVerdict(taskID, line string) *run.Decision {
	line = strings.TrimSpace(line)
	word, feedback, _ := strings.Cut(line, " ")
	ret := &run.Decision{TaskID: taskID, Feedback: strings.TrimSpace(feedback)}
	switch strings.ToLower(word) {
	case "y", "yes", "approve":
		ret.Verdict = run.VerdictApprove
	case "n", "no", "reject":
		ret.Verdict = run.VerdictReject
	default:
		return nil
	}
	return ret
}
