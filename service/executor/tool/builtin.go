package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/toolbox"
)

type currentDate struct{}

// NewCurrentDate returns a tool reporting today's date.
func NewCurrentDate() Tool { return currentDate{} }

func (currentDate) Name() string { return "current_date" }

func (currentDate) Description() string {
	return "Returns the current date in YYYY-MM-DD format."
}

func (currentDate) Schema() (map[string]interface{}, []string) {
	return map[string]interface{}{}, nil
}

func (currentDate) Call(context.Context, *Call) (string, error) {
	return clock.Now().Format("2006-01-02"), nil
}

type priorOutput struct{}

// NewPriorOutput returns a tool that reads the recorded output of an earlier task.
func NewPriorOutput() Tool { return priorOutput{} }

func (priorOutput) Name() string { return "prior_output" }

func (priorOutput) Description() string {
	return "Returns the recorded output of an earlier task in this run. Call without task_id to list available tasks."
}

func (priorOutput) Schema() (map[string]interface{}, []string) {
	return map[string]interface{}{
		"task_id": map[string]interface{}{
			"type":        "string",
			"description": "Id of a completed task",
		},
	}, nil
}

func (priorOutput) Call(_ context.Context, call *Call) (string, error) {
	taskID := strings.TrimSpace(toolbox.AsString(call.Args["task_id"]))
	if taskID == "" || taskID == "<nil>" {
		ids := make([]string, 0, len(call.Prior))
		for id := range call.Prior {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return "completed tasks: " + strings.Join(ids, ", "), nil
	}
	output, ok := call.Prior[taskID]
	if !ok {
		return "", fmt.Errorf("task %s has no recorded output", taskID)
	}
	return output, nil
}
