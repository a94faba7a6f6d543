package crewflow_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/viant/afs/embed"
	"github.com/viant/crewflow"
	"github.com/viant/crewflow/pipelines"
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/approval"
	"github.com/viant/crewflow/service/processor"
)

var checkpoints = []string{
	"approve_campaign_launch",
	"approve_spend_increase",
	"approve_desirability_gate",
	"approve_feasibility_gate",
	"approve_viability_gate",
}

func newRuntime(t *testing.T) *crewflow.Runtime {
	t.Helper()
	srv := crewflow.New(crewflow.WithEmbedFS(&pipelines.FS), crewflow.WithDryRun())
	t.Cleanup(func() { _ = srv.Close() })
	rt := srv.Runtime()
	t.Cleanup(func() { _ = rt.Shutdown(context.Background()) })
	_, err := rt.LoadPipeline(context.Background(), pipelines.ValidationURL)
	require.NoError(t, err)
	return rt
}

func TestService_ValidationApproveAll(t *testing.T) {
	var received map[string]interface{}
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&received)
		_, _ = w.Write([]byte(`{"kickoff_id":"k-1"}`))
	}))
	defer server.Close()
	t.Setenv("CREW_3_URL", server.URL)
	t.Setenv("CREW_3_BEARER_TOKEN", "secret")

	rt := newRuntime(t)
	ctx := context.Background()
	runID, err := rt.Start(ctx, "validation", map[string]interface{}{"business_idea": "pet insurance"})
	require.NoError(t, err)

	for _, taskID := range checkpoints {
		summary, err := rt.Wait(ctx, runID)
		require.NoError(t, err)
		require.Equal(t, "suspended_at:"+taskID, summary.Status)
		pending, err := rt.PendingApprovals(ctx, approval.WithRunID(runID))
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, taskID, pending[0].TaskID)
		_, err = rt.Resolve(ctx, runID, &run.Decision{TaskID: taskID, Verdict: run.VerdictApprove, Feedback: "ok"})
		require.NoError(t, err)
	}

	summary, err := rt.Wait(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, run.StateCompleted, summary.State)
	assert.Len(t, summary.Outputs, 18)
	require.NotNil(t, summary.Handoff)
	assert.True(t, summary.Handoff.Delivered)
	assert.Equal(t, "Bearer secret", authorization)
	inputs, ok := received["inputs"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, runID, inputs["run_id"])

	assert.Eventually(t, func() bool {
		snapshot, ok := rt.Progress().Snapshot(runID)
		return ok && snapshot.Done && snapshot.CompletedTasks == 18 && snapshot.ResolvedCheckpoints == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestService_ValidationReject(t *testing.T) {
	t.Setenv("CREW_3_URL", "")
	rt := newRuntime(t)
	ctx := context.Background()
	runID, err := rt.Start(ctx, "validation", nil)
	require.NoError(t, err)

	_, err = rt.Wait(ctx, runID)
	require.NoError(t, err)
	_, err = rt.Resolve(ctx, runID, &run.Decision{TaskID: checkpoints[0], Verdict: run.VerdictApprove})
	require.NoError(t, err)
	_, err = rt.Wait(ctx, runID)
	require.NoError(t, err)
	summary, err := rt.Resolve(ctx, runID, &run.Decision{TaskID: checkpoints[1], Verdict: run.VerdictReject, Feedback: "too expensive"})
	require.NoError(t, err)
	assert.Equal(t, "rejected_at:approve_spend_increase", summary.Status)
	assert.Equal(t, []string{"generate_ad_variants", "generate_landing_page_copy", "build_landing_page", "approve_campaign_launch"}, summary.TaskIDs())
	assert.Nil(t, summary.Handoff)
}

func TestRuntime_Routing(t *testing.T) {
	t.Setenv("CREW_3_URL", "")
	rt := newRuntime(t)
	ctx := context.Background()

	assert.Equal(t, []string{"validation"}, rt.Pipelines())
	_, err := rt.Start(ctx, "unknown", nil)
	assert.ErrorIs(t, err, crewflow.ErrPipelineNotFound)
	_, err = rt.Status(ctx, "missing")
	assert.ErrorIs(t, err, processor.ErrRunNotFound)

	runID, err := rt.Start(ctx, "validation", nil)
	require.NoError(t, err)
	_, err = rt.Wait(ctx, runID)
	require.NoError(t, err)
	summary, err := rt.Cancel(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, run.StateCancelled, summary.State)

	runs, err := rt.Runs(ctx, "")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRuntime_UpsertDefinition(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()
	_, err := rt.UpsertDefinition("mem://localhost/quick.yaml", []byte(`
name: quick
executors:
  writer:
    role: Writer
    goal: Write
    backstory: Writes
    kind: static
tasks:
  - id: draft
    executor: writer
    description: Draft {topic}
    expectedOutput: A draft
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"quick", "validation"}, rt.Pipelines())

	runID, err := rt.Start(ctx, "quick", map[string]interface{}{"topic": "go"})
	require.NoError(t, err)
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	summary, err := rt.Wait(waitCtx, runID)
	require.NoError(t, err)
	assert.Equal(t, run.StateCompleted, summary.State)
	assert.Equal(t, "[writer] draft: Draft go", summary.Output("draft").Content)
}

func longPipeline(tasks int) []byte {
	var builder strings.Builder
	builder.WriteString("name: long\nexecutors:\n  writer:\n    role: Writer\n    kind: static\ntasks:\n")
	for i := 1; i <= tasks; i++ {
		fmt.Fprintf(&builder, "  - id: T%d\n    executor: writer\n    description: Step %d\n", i, i)
	}
	return []byte(builder.String())
}

func TestRuntime_ProgressUnderLoad(t *testing.T) {
	t.Setenv("CREW_3_URL", "")
	rt := newRuntime(t)
	_, err := rt.UpsertDefinition("mem://localhost/long.yaml", longPipeline(10))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	runIDs := make([]string, 200)
	var wg sync.WaitGroup
	for i := range runIDs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			runID, err := rt.Start(ctx, "long", nil)
			if err != nil {
				return
			}
			if summary, err := rt.Wait(ctx, runID); err == nil && summary.State == run.StateCompleted {
				runIDs[i] = runID
			}
		}(i)
	}
	wg.Wait()

	for i, runID := range runIDs {
		require.NotEmpty(t, runID, i)
		assert.Eventually(t, func() bool {
			snapshot, ok := rt.Progress().Snapshot(runID)
			return ok && snapshot.Done && snapshot.CompletedTasks == 10 && snapshot.TotalTasks == 10
		}, 2*time.Second, 5*time.Millisecond, runID)
	}
	assert.Eventually(t, func() bool { return rt.Live() == 0 }, 2*time.Second, 5*time.Millisecond)

	replayID, err := rt.Replay(ctx, runIDs[0], "T9")
	require.NoError(t, err)
	summary, err := rt.Wait(ctx, replayID)
	require.NoError(t, err)
	assert.Equal(t, run.StateCompleted, summary.State)
	assert.Eventually(t, func() bool {
		snapshot, ok := rt.Progress().Snapshot(replayID)
		return ok && snapshot.Done && snapshot.CompletedTasks == 10
	}, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return rt.Live() == 0 }, 2*time.Second, 5*time.Millisecond)
}
