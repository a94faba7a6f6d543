package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crewflow"
	"github.com/viant/crewflow/pipelines"
	"github.com/viant/crewflow/policy"
	"github.com/viant/crewflow/runtime/run"
)

func TestParseVerdict(t *testing.T) {
	var testCases = []struct {
		description string
		line        string
		expect      *run.Decision
	}{
		{description: "short approve", line: "y\n", expect: &run.Decision{TaskID: "B", Verdict: run.VerdictApprove}},
		{description: "reject with feedback", line: "reject  too costly \n", expect: &run.Decision{TaskID: "B", Verdict: run.VerdictReject, Feedback: "too costly"}},
		{description: "upper case", line: "APPROVE ship it", expect: &run.Decision{TaskID: "B", Verdict: run.VerdictApprove, Feedback: "ship it"}},
		{description: "unknown word", line: "maybe"},
		{description: "empty", line: "\n"},
	}
	for _, testCase := range testCases {
		assert.EqualValues(t, testCase.expect, parseVerdict("B", testCase.line), testCase.description)
	}
}

func TestPrompt_Retries(t *testing.T) {
	out := &bytes.Buffer{}
	decision, err := prompt(bufio.NewReader(strings.NewReader("what\nn nope\n")), out, "B")
	require.NoError(t, err)
	assert.Equal(t, run.VerdictReject, decision.Verdict)
	assert.Equal(t, "nope", decision.Feedback)
	assert.Contains(t, out.String(), "expected y, n, approve or reject")

	_, err = prompt(bufio.NewReader(strings.NewReader("")), out, "B")
	assert.ErrorContains(t, err, "stdin closed")
}

func TestDrive_Validation(t *testing.T) {
	t.Setenv("CREW_3_URL", "")
	srv := crewflow.New(crewflow.WithEmbedFS(&pipelines.FS), crewflow.WithDryRun())
	defer srv.Close()
	rt := srv.Runtime()
	ctx := context.Background()
	pipeline, err := rt.LoadPipeline(ctx, pipelines.ValidationURL)
	require.NoError(t, err)
	runID, err := rt.Start(ctx, pipeline.Name, nil)
	require.NoError(t, err)

	in := strings.NewReader("y\nyes\nbogus\napprove\nn gate failed\n")
	out := &bytes.Buffer{}
	require.NoError(t, drive(ctx, rt, nil, runID, in, out))
	assert.Contains(t, out.String(), "rejected_at:approve_feasibility_gate")
	assert.Contains(t, out.String(), "feedback: gate failed")

	summary, err := rt.Status(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, run.StateRejected, summary.State)
}

func TestDrive_Policy(t *testing.T) {
	t.Setenv("CREW_3_URL", "")
	srv := crewflow.New(crewflow.WithEmbedFS(&pipelines.FS), crewflow.WithDryRun())
	defer srv.Close()
	rt := srv.Runtime()
	ctx := context.Background()
	pipeline, err := rt.LoadPipeline(ctx, pipelines.ValidationURL)
	require.NoError(t, err)
	runID, err := rt.Start(ctx, pipeline.Name, nil)
	require.NoError(t, err)

	p := &policy.Policy{Mode: policy.ModeAuto, BlockList: []string{"approve_viability_gate"}}
	out := &bytes.Buffer{}
	require.NoError(t, drive(ctx, rt, p, runID, strings.NewReader("n not viable\n"), out))
	assert.Contains(t, out.String(), "approve_campaign_launch: approved by policy")
	assert.Contains(t, out.String(), "rejected_at:approve_viability_gate")
}

func TestLoadInput(t *testing.T) {
	pipelineURL = pipelines.ValidationURL
	input, err := loadInput("")
	require.NoError(t, err)
	assert.NotNil(t, input)

	input, err = loadInput(`{"a":1}`)
	require.NoError(t, err)
	raw, ok := input.(json.RawMessage)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(raw))

	_, err = loadInput("/does/not/exist.json")
	assert.Error(t, err)
}
