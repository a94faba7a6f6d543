package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/dao"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	srv, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if !assert.NoError(t, err) {
		return
	}
	defer srv.Close()

	r := run.New("run-1", "validation", map[string]interface{}{"x": 1.0})
	assert.NoError(t, r.Transition(run.StateRunning))
	assert.NoError(t, srv.Save(ctx, r))
	assert.NoError(t, r.Suspend(&run.Checkpoint{TaskID: "B", Proposed: "plan"}))
	assert.NoError(t, srv.Save(ctx, r))

	loaded, err := srv.Load(ctx, "run-1")
	assert.NoError(t, err)
	assert.Equal(t, run.StateSuspended, loaded.State)
	assert.Equal(t, "suspended_at:B", loaded.Status())
	assert.Equal(t, 1.0, loaded.Input["x"])

	assert.NoError(t, srv.Save(ctx, run.New("run-2", "validation", nil)))
	list, err := srv.List(ctx, dao.ByState(string(run.StateSuspended), string(run.StateRunning)))
	assert.NoError(t, err)
	assert.Len(t, list, 1)

	all, err := srv.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	assert.NoError(t, srv.Delete(ctx, "run-1"))
	_, err = srv.Load(ctx, "run-1")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	assert.ErrorIs(t, srv.Delete(ctx, "missing"), dao.ErrNotFound)
}
