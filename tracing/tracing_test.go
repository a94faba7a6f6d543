package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "span_test.txt")
	if !assert.NoError(t, Init("crewflow", "0.0.1", fname)) {
		return
	}

	ctx, runSpan := StartSpan(context.Background(), "run", KindInternal)
	runSpan.WithAttributes(map[string]string{"run.id": "run-1"})
	_, taskSpan := StartSpan(ctx, "task", KindInternal)
	taskSpan.AddEvent("checkpoint.pending", map[string]string{"task.id": "B"})
	EndSpan(taskSpan, errors.New("rejected"))
	EndSpan(runSpan, nil)

	data, err := os.ReadFile(fname)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "run-1")
	assert.Contains(t, string(data), "checkpoint.pending")
}

func TestNilSpan(t *testing.T) {
	var span *Span
	assert.Nil(t, span.WithAttributes(map[string]string{"k": "v"}))
	span.SetStatusFromHTTPCode(500)
	EndSpan(span, nil)
}
