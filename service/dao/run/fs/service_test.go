package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/dao"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	srv, err := New("mem://localhost/crewflow/runs")
	if !assert.NoError(t, err) {
		return
	}

	r := run.New("run-1", "validation", map[string]interface{}{"idea": "pet food"})
	assert.NoError(t, r.Transition(run.StateRunning))
	r.Record(&run.Output{TaskID: "A", Content: "variants"})
	assert.NoError(t, srv.Save(ctx, r))
	assert.NoError(t, srv.Save(ctx, run.New("run-2", "other", nil)))

	loaded, err := srv.Load(ctx, "run-1")
	assert.NoError(t, err)
	assert.Equal(t, "pet food", loaded.Input["idea"])
	assert.Equal(t, "variants", loaded.Outputs[0].Content)

	list, err := srv.List(ctx, dao.ByPipeline("validation"))
	assert.NoError(t, err)
	assert.Len(t, list, 1)

	assert.NoError(t, srv.Delete(ctx, "run-1"))
	_, err = srv.Load(ctx, "run-1")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	assert.ErrorIs(t, srv.Delete(ctx, "run-1"), dao.ErrNotFound)
}
