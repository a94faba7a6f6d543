package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crewflow"
	"github.com/viant/crewflow/pipelines"
	"github.com/viant/crewflow/policy"
	"github.com/viant/crewflow/runtime/run"
)

func TestIterate(t *testing.T) {
	t.Setenv("CREW_3_URL", "")
	srv := crewflow.New(crewflow.WithEmbedFS(&pipelines.FS), crewflow.WithDryRun())
	defer srv.Close()
	rt := srv.Runtime()
	ctx := context.Background()
	pipeline, err := rt.LoadPipeline(ctx, pipelines.ValidationURL)
	require.NoError(t, err)

	var testCases = []struct {
		description string
		policy      *policy.Policy
		expect      run.State
		outputs     int
	}{
		{description: "unattended approval", expect: run.StateCompleted, outputs: 18},
		{description: "policy rejects a gate", policy: &policy.Policy{Mode: policy.ModeDeny, AllowList: []string{"approve_viability_gate"}}, expect: run.StateRejected},
	}
	for _, testCase := range testCases {
		out := &bytes.Buffer{}
		report, err := iterate(ctx, rt, testCase.policy, pipeline.Name, nil, 3, out)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, 3, report.Runs, testCase.description)
		assert.Equal(t, map[run.State]int{testCase.expect: 3}, report.States, testCase.description)
		assert.Contains(t, out.String(), "[3/3] run", testCase.description)
		assert.Contains(t, out.String(), "summary:", testCase.description)
		if testCase.outputs > 0 {
			assert.Contains(t, out.String(), "(18 outputs", testCase.description)
		}
	}

	_, err = iterate(ctx, rt, nil, pipeline.Name, nil, 0, &bytes.Buffer{})
	assert.Error(t, err)
}
