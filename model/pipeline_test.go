package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgrammaticPipelineCreation(t *testing.T) {
	pipeline := NewPipeline("validation")
	pipeline.WithExecutor("writer", &Profile{Model: "openai/gpt-4o", Temperature: Temperature(0.8)})
	pipeline.NewTask("draft", "writer").WithDescription("Draft copy for {product}", "three variants")
	pipeline.NewTask("review", "writer").WithApproval()
	pipeline.NewTask("publish", "writer")

	assert.Empty(t, pipeline.Validate())
	assert.Equal(t, []string{"review"}, pipeline.Checkpoints())

	task, position := pipeline.Task("publish")
	assert.NotNil(t, task)
	assert.Equal(t, 2, position)

	data, err := json.Marshal(pipeline)
	assert.NoError(t, err)
	var decoded Pipeline
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "writer", decoded.Executors["writer"].Name)
	assert.Equal(t, 0.8, decoded.Executors["writer"].GetTemperature())
}

func TestPipelineValidate(t *testing.T) {
	testCases := []struct {
		description string
		build       func() *Pipeline
		expect      int
	}{
		{
			description: "empty pipeline",
			build:       func() *Pipeline { return NewPipeline("p") },
			expect:      1,
		},
		{
			description: "unknown executor",
			build: func() *Pipeline {
				p := NewPipeline("p")
				p.NewTask("a", "ghost")
				return p
			},
			expect: 1,
		},
		{
			description: "duplicate and empty ids",
			build: func() *Pipeline {
				p := NewPipeline("p").WithExecutor("x", &Profile{Kind: "static"})
				p.NewTask("a", "x")
				p.NewTask("a", "x")
				p.NewTask("", "x")
				return p
			},
			expect: 2,
		},
		{
			description: "profile bounds",
			build: func() *Pipeline {
				p := NewPipeline("p").WithExecutor("x", &Profile{Model: "gpt-4o", Temperature: Temperature(1.5), MaxIterations: -1})
				p.NewTask("a", "x")
				return p
			},
			expect: 3,
		},
		{
			description: "bad handoff timeout",
			build: func() *Pipeline {
				p := NewPipeline("p").WithExecutor("x", &Profile{Kind: "static"})
				p.NewTask("a", "x")
				p.Handoff = &Handoff{URL: "http://localhost", Timeout: "soon"}
				return p
			},
			expect: 1,
		},
	}

	for _, testCase := range testCases {
		issues := testCase.build().Validate()
		assert.Len(t, issues, testCase.expect, testCase.description)
	}
}

func TestProfileVariant(t *testing.T) {
	assert.Equal(t, "openai", (&Profile{Model: "openai/gpt-4o"}).Variant())
	assert.Equal(t, "gpt-4o", (&Profile{Model: "openai/gpt-4o"}).ModelName())
	assert.Equal(t, "static", (&Profile{Kind: "static", Model: "openai/gpt-4o"}).Variant())
	assert.Equal(t, DefaultMaxIterations, (&Profile{}).GetMaxIterations())
}

func TestPipelineClone(t *testing.T) {
	p := NewPipeline("p").WithExecutor("x", &Profile{Kind: "static", Tools: []string{"current_date"}})
	p.NewTask("a", "x")
	clone := p.Clone()
	clone.Tasks[0].ID = "b"
	clone.Executors["x"].Tools[0] = "other"
	assert.Equal(t, "a", p.Tasks[0].ID)
	assert.Equal(t, "current_date", p.Executors["x"].Tools[0])
}

func TestConfigurationError(t *testing.T) {
	issue := errors.New("task a references unknown executor")
	err := error(NewConfigurationError("p", issue))
	assert.True(t, IsConfigurationError(err))
	assert.ErrorIs(t, err, issue)
	assert.Contains(t, err.Error(), "pipeline p")
}
