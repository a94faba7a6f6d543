package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/service/executor"
	"github.com/viant/crewflow/service/executor/tool"
)

func message(stopReason string, content ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id":            "msg_1",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-sonnet-4-20250514",
		"content":       content,
		"stop_reason":   stopReason,
		"stop_sequence": nil,
		"usage":         map[string]interface{}{"input_tokens": 10, "output_tokens": 5},
	}
}

func TestExecutor_ToolUse(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			_ = json.NewEncoder(w).Encode(message("tool_use", map[string]interface{}{
				"type": "tool_use", "id": "tu_1", "name": "current_date", "input": map[string]interface{}{},
			}))
			return
		}
		_ = json.NewEncoder(w).Encode(message("end_turn", map[string]interface{}{"type": "text", "text": "launch approved"}))
	}))
	defer server.Close()

	env := &executor.Environment{
		Providers: map[string]*executor.Provider{Kind: {APIKey: "k", BaseURL: server.URL}},
		Tools:     tool.NewRegistry(),
	}
	profile := &model.Profile{Name: "comms", Model: "anthropic/claude-sonnet-4-20250514", Tools: []string{"current_date"}}
	anExecutor, err := New(profile, env)
	if !assert.NoError(t, err) {
		return
	}
	result, err := anExecutor.Invoke(context.Background(), &executor.Request{TaskID: "A", Instructions: "go"})
	assert.NoError(t, err)
	assert.Equal(t, "launch approved", result.Content)
	assert.Equal(t, 2, result.Iterations)
	assert.EqualValues(t, 20, result.TokensIn)
}

func TestExecutor_Exhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(message("tool_use", map[string]interface{}{
			"type": "tool_use", "id": "tu_1", "name": "current_date", "input": map[string]interface{}{},
		}))
	}))
	defer server.Close()

	env := &executor.Environment{
		Providers: map[string]*executor.Provider{Kind: {APIKey: "k", BaseURL: server.URL}},
		Tools:     tool.NewRegistry(),
	}
	profile := &model.Profile{Name: "loop", Model: "anthropic/claude", MaxIterations: 2, Tools: []string{"current_date"}}
	anExecutor, err := New(profile, env)
	if !assert.NoError(t, err) {
		return
	}
	_, err = anExecutor.Invoke(context.Background(), &executor.Request{TaskID: "A"})
	assert.ErrorIs(t, err, executor.ErrExhausted)
}
