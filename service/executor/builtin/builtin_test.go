package builtin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/service/executor"
)

func TestRegistry_BuildAll(t *testing.T) {
	env := &executor.Environment{Providers: map[string]*executor.Provider{"openai": {APIKey: "k"}}}

	testCases := []struct {
		description string
		profiles    map[string]*model.Profile
		override    string
		expectErr   error
	}{
		{
			description: "known variants",
			profiles: map[string]*model.Profile{
				"writer": {Model: "openai/gpt-4o", Tools: []string{"current_date"}},
				"dry":    {Kind: "static"},
			},
		},
		{
			description: "unknown variant",
			profiles:    map[string]*model.Profile{"x": {Model: "mistral/large"}},
			expectErr:   executor.ErrUnknownKind,
		},
		{
			description: "override to static",
			profiles:    map[string]*model.Profile{"x": {Model: "mistral/large"}},
			override:    "static",
		},
	}

	for _, testCase := range testCases {
		registry := NewRegistry(env)
		if testCase.override != "" {
			registry.WithOverride(testCase.override)
		}
		pipeline := model.NewPipeline("p")
		for name, profile := range testCase.profiles {
			pipeline.WithExecutor(name, profile)
		}
		executors, err := registry.BuildAll(pipeline)
		if testCase.expectErr != nil {
			assert.True(t, model.IsConfigurationError(err), testCase.description)
			assert.True(t, errors.Is(err, testCase.expectErr), testCase.description)
			assert.Contains(t, err.Error(), strings.Join(registry.Kinds(), ", "), testCase.description)
			continue
		}
		assert.NoError(t, err, testCase.description)
		assert.Len(t, executors, len(testCase.profiles), testCase.description)
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	pipeline := model.NewPipeline("p").WithExecutor("x", &model.Profile{Kind: "static", Tools: []string{"decision_crew"}})
	_, err := NewRegistry(nil).BuildAll(pipeline)
	assert.True(t, model.IsConfigurationError(err))
	assert.ErrorContains(t, err, "decision_crew")
}

func TestStatic(t *testing.T) {
	pipeline := model.NewPipeline("p").WithExecutor("qa", &model.Profile{Kind: "static"})
	executors, err := NewRegistry(nil).BuildAll(pipeline)
	if !assert.NoError(t, err) {
		return
	}
	result, err := executors["qa"].Invoke(context.Background(), &executor.Request{TaskID: "check", Instructions: "Review the page\nin detail"})
	assert.NoError(t, err)
	assert.Equal(t, "[qa] check: Review the page", result.Content)
}
