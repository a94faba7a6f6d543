package handoff

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/runtime/run"
)

func testRun() *run.Run {
	r := run.New("run-1", "validation", map[string]interface{}{"x": 1})
	r.Record(&run.Output{TaskID: "A", Content: "alpha"})
	r.Record(&run.Output{TaskID: "B", Content: "beta"})
	return r
}

func TestService_Deliver(t *testing.T) {
	testCases := []struct {
		description  string
		handler      http.HandlerFunc
		config       Config
		expectOK     bool
		expectStatus int
		expectKick   string
	}{
		{
			description: "accepted with kickoff id",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"kickoff_id":"k-42"}`))
			},
			config:       Config{BearerToken: "secret-token"},
			expectOK:     true,
			expectStatus: http.StatusOK,
			expectKick:   "k-42",
		},
		{
			description: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
			config:       Config{BearerToken: "secret-token"},
			expectStatus: http.StatusBadGateway,
		},
		{
			description: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			config: Config{BearerToken: "secret-token", Timeout: 50 * time.Millisecond},
		},
		{
			description: "missing token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		},
	}

	for _, testCase := range testCases {
		var captured map[string]interface{}
		var auth, path string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			path = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&captured)
			testCase.handler(w, r)
		}))
		config := testCase.config
		config.URL = server.URL
		srv := New(&config)
		outcome := srv.Deliver(context.Background(), NewPayload(testRun()))
		server.Close()

		assert.Equal(t, testCase.expectOK, outcome.Delivered, testCase.description)
		assert.Equal(t, testCase.expectStatus, outcome.StatusCode, testCase.description)
		assert.Equal(t, testCase.expectKick, outcome.KickoffID, testCase.description)
		assert.False(t, outcome.At.IsZero(), testCase.description)
		if !testCase.expectOK {
			assert.Equal(t, string(model.KindHandoff), outcome.Kind, testCase.description)
			assert.NotEmpty(t, outcome.Error, testCase.description)
		}
		if config.BearerToken == "" {
			continue
		}
		assert.Equal(t, "Bearer secret-token", auth, testCase.description)
		assert.Equal(t, "/kickoff", path, testCase.description)
		inputs, ok := captured["inputs"].(map[string]interface{})
		if assert.True(t, ok, testCase.description) {
			assert.Equal(t, "run-1", inputs["run_id"], testCase.description)
			assert.Equal(t, map[string]interface{}{
				"A": map[string]interface{}{"content": "alpha"},
				"B": map[string]interface{}{"content": "beta"},
			}, inputs["outputs"], testCase.description)
		}
	}
}

func TestService_DeliverSecret(t *testing.T) {
	ctx := context.Background()
	secretURL := "mem://localhost/crewflow/secret/kickoff.json"
	if !assert.NoError(t, StoreToken(ctx, secretURL, "", "vault-token")) {
		return
	}
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	srv := New(&Config{URL: server.URL, SecretURL: secretURL})
	outcome := srv.Deliver(ctx, NewPayload(testRun()))
	assert.True(t, outcome.Delivered)
	assert.Equal(t, "Bearer vault-token", auth)
}

func TestNewPayload(t *testing.T) {
	r := run.New("run-2", "validation", nil)
	r.Record(&run.Output{TaskID: "draft", Executor: "writer", Content: ""})
	approved := true
	rejected := false
	r.Record(&run.Output{TaskID: "launch", Executor: "lead", Content: "go", Feedback: "ship it", Approved: &approved})
	r.Record(&run.Output{TaskID: "spend", Executor: "lead", Content: "more", Approved: &rejected})

	payload := NewPayload(r)
	assert.Equal(t, map[string]interface{}{
		"run_id":   "run-2",
		"pipeline": "validation",
		"input":    map[string]interface{}{},
		"outputs": map[string]interface{}{
			"draft":  map[string]interface{}{"executor": "writer", "content": ""},
			"launch": map[string]interface{}{"executor": "lead", "content": "go", "feedback": "ship it", "approved": true},
			"spend":  map[string]interface{}{"executor": "lead", "content": "more", "approved": false},
		},
		"task_order": []string{"draft", "launch", "spend"},
	}, payload.Inputs)
}

func TestConfig_Merge(t *testing.T) {
	base := Config{URL: "http://crew3", BearerToken: "env-token"}
	merged, err := base.Merge(&model.Handoff{Path: "/start", Timeout: "5s"})
	assert.NoError(t, err)
	assert.Equal(t, "http://crew3/start", merged.Endpoint())
	assert.Equal(t, "env-token", merged.BearerToken)
	assert.Equal(t, 5*time.Second, merged.Timeout)

	_, err = base.Merge(&model.Handoff{Timeout: "soon"})
	assert.Error(t, err)

	none := Config{}
	assert.False(t, none.Enabled())
}
