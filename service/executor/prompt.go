package executor

import (
	"sort"
	"strings"

	"github.com/viant/crewflow/model"
)

// SystemPrompt renders the persona of a profile.
func SystemPrompt(profile *model.Profile, request *Request) string {
	builder := strings.Builder{}
	if profile.Role != "" {
		builder.WriteString("You are " + strings.TrimSpace(profile.Role) + ".\n")
	}
	if profile.Backstory != "" {
		builder.WriteString(strings.TrimSpace(Interpolate(profile.Backstory, request.Inputs)) + "\n")
	}
	if profile.Goal != "" {
		builder.WriteString("\nYour personal goal is: " + strings.TrimSpace(Interpolate(profile.Goal, request.Inputs)) + "\n")
	}
	if profile.InjectDate && !request.Now.IsZero() {
		builder.WriteString("\nCurrent date: " + request.Now.Format("2006-01-02") + "\n")
	}
	return strings.TrimSpace(builder.String())
}

// UserPrompt renders the task instructions preceded by the run inputs and prior outputs.
func UserPrompt(request *Request) string {
	builder := strings.Builder{}
	if len(request.Inputs) > 0 {
		builder.WriteString("# Inputs\n")
		keys := make([]string, 0, len(request.Inputs))
		for key := range request.Inputs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			builder.WriteString("## " + key + "\n" + Render(request.Inputs[key]) + "\n")
		}
		builder.WriteString("\n")
	}
	if len(request.Prior) > 0 {
		builder.WriteString("# Context from completed tasks\n")
		for _, prior := range request.Prior {
			builder.WriteString("## " + prior.TaskID + "\n" + prior.Content + "\n")
			if prior.Feedback != "" {
				builder.WriteString("Reviewer feedback: " + prior.Feedback + "\n")
			}
		}
		builder.WriteString("\n")
	}
	builder.WriteString("# Current task\n")
	builder.WriteString(request.Instructions)
	return builder.String()
}
