package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/viant/crewflow/runtime/run"
)

func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}

func stateColor(state run.State) color.Attribute {
	switch state {
	case run.StateCompleted:
		return color.FgGreen
	case run.StateSuspended:
		return color.FgYellow
	case run.StateRejected, run.StateFailed, run.StateCancelled:
		return color.FgRed
	}
	return color.FgCyan
}

// printSummary renders the final state of a run.
func printSummary(w io.Writer, summary *run.Summary) {
	printStatus(w, "●", fmt.Sprintf("run %s: %s", summary.RunID, summary.Status), stateColor(summary.State))
	for _, output := range summary.Outputs {
		fmt.Fprintf(w, "  %s %s\n", color.CyanString(output.TaskID), firstLine(output.Content))
	}
	if summary.Cause != nil && summary.Cause.Message != "" {
		printStatus(w, "✗", summary.Cause.Message, color.FgRed)
	}
	if summary.Cause != nil && summary.Cause.Feedback != "" {
		fmt.Fprintf(w, "  feedback: %s\n", summary.Cause.Feedback)
	}
	if outcome := summary.Handoff; outcome != nil {
		if outcome.Delivered {
			printStatus(w, "✓", fmt.Sprintf("handoff delivered to %s (%s)", outcome.URL, outcome.KickoffID), color.FgGreen)
		} else {
			printStatus(w, "⚠", fmt.Sprintf("handoff to %s failed: %s", outcome.URL, outcome.Error), color.FgYellow)
		}
	}
}

func printProposal(w io.Writer, summary *run.Summary) {
	fmt.Fprintln(w)
	printStatus(w, "?", fmt.Sprintf("checkpoint %s awaits review", summary.CurrentTaskID), color.FgYellow)
	fmt.Fprintln(w, summary.Proposed)
	fmt.Fprintln(w)
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if index := strings.IndexByte(text, '\n'); index != -1 {
		return text[:index] + " …"
	}
	return text
}
