// Package static implements a deterministic executor that never leaves the
// process. It backs dry runs and tests.
package static

import (
	"context"
	"strings"

	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/service/executor"
)

// Kind is the registry tag of this variant.
const Kind = "static"

type service struct {
	profile *model.Profile
}

// New is the executor.Builder of this variant.
func New(profile *model.Profile, _ *executor.Environment) (executor.Executor, error) {
	return &service{profile: profile}, nil
}

// Invoke renders "[executor] task: first line of instructions".
func (s *service) Invoke(ctx context.Context, request *executor.Request) (*executor.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	instructions := strings.TrimSpace(request.Instructions)
	if index := strings.Index(instructions, "\n"); index != -1 {
		instructions = strings.TrimSpace(instructions[:index])
	}
	builder := strings.Builder{}
	builder.WriteString("[" + s.profile.Name + "] " + request.TaskID)
	if instructions != "" {
		builder.WriteString(": " + instructions)
	}
	return &executor.Result{Content: builder.String(), Iterations: 1}, nil
}
