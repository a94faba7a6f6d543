package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/crewflow/model"
)

func TestInterpolate(t *testing.T) {
	inputs := map[string]interface{}{
		"entrepreneur_brief": map[string]interface{}{"idea": "meal kits", "budget": 5000},
		"x":                  1,
		"name":               "Acme",
	}
	testCases := []struct {
		description string
		text        string
		expect      string
	}{
		{description: "plain key", text: "Company {name}", expect: "Company Acme"},
		{description: "number", text: "x={x}", expect: "x=1"},
		{description: "nested key", text: "Idea: {entrepreneur_brief.idea}", expect: "Idea: meal kits"},
		{description: "unknown stays", text: "{missing} and {name}", expect: "{missing} and Acme"},
		{description: "json braces untouched", text: `{"a": 1}`, expect: `{"a": 1}`},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, Interpolate(testCase.text, inputs), testCase.description)
	}
	assert.Contains(t, Interpolate("{entrepreneur_brief}", inputs), `"idea": "meal kits"`)
}

func TestPrompts(t *testing.T) {
	profile := &model.Profile{Role: "Ad Creative", Goal: "Write ads for {name}", Backstory: "Veteran copywriter.", InjectDate: true}
	request := &Request{
		TaskID:       "B",
		Instructions: "Write three variants",
		Inputs:       map[string]interface{}{"name": "Acme"},
		Prior:        []Prior{{TaskID: "A", Content: "brief", Feedback: "shorter"}},
		Now:          time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC),
	}
	system := SystemPrompt(profile, request)
	assert.Contains(t, system, "You are Ad Creative.")
	assert.Contains(t, system, "Write ads for Acme")
	assert.Contains(t, system, "Current date: 2025-05-06")

	user := UserPrompt(request)
	assert.Contains(t, user, "## A\nbrief")
	assert.Contains(t, user, "Reviewer feedback: shorter")
	assert.Contains(t, user, "# Current task\nWrite three variants")
	assert.Equal(t, map[string]string{"A": "brief"}, request.PriorMap())
}

func TestExhausted(t *testing.T) {
	err := Exhausted(25)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Contains(t, err.Error(), "max iterations (25) reached")
}
