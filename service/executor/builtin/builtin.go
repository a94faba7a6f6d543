// Package builtin assembles the registry of executor variants shipped with crewflow.
package builtin

import (
	"github.com/viant/crewflow/service/executor"
	"github.com/viant/crewflow/service/executor/anthropic"
	"github.com/viant/crewflow/service/executor/openai"
	"github.com/viant/crewflow/service/executor/static"
)

// NewRegistry returns a registry with the openai, anthropic and static variants.
func NewRegistry(env *executor.Environment) *executor.Registry {
	return executor.NewRegistry(env).
		Register(openai.Kind, openai.New).
		Register(anthropic.Kind, anthropic.New).
		Register(static.Kind, static.New)
}
