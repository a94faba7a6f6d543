package handoff

import (
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/toolbox"
)

// Payload is the body posted to the kickoff endpoint.
type Payload struct {
	Inputs map[string]interface{} `json:"inputs"`
}

// NewPayload builds the kickoff payload from a finished run: run id,
// pipeline, initial inputs and every recorded output keyed by task id.
// Each output carries its content even when empty, plus the reviewer
// feedback and verdict of a checkpoint.
func NewPayload(r *run.Run) *Payload {
	outputs := map[string]interface{}{}
	order := make([]string, 0)
	for _, output := range r.OutputsSnapshot() {
		outputs[output.TaskID] = outputOf(output)
		order = append(order, output.TaskID)
	}
	input := r.Input
	if input == nil {
		input = map[string]interface{}{}
	}
	return &Payload{Inputs: map[string]interface{}{
		"run_id":     r.ID,
		"pipeline":   r.Pipeline,
		"input":      input,
		"outputs":    outputs,
		"task_order": order,
	}}
}

func outputOf(output *run.Output) map[string]interface{} {
	ret := toolbox.DeleteEmptyKeys(map[string]interface{}{
		"executor": output.Executor,
		"feedback": output.Feedback,
	})
	ret["content"] = output.Content
	if output.Approved != nil {
		ret["approved"] = *output.Approved
	}
	return ret
}
