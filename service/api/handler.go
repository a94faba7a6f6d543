// Package api exposes the runtime over HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/progress"
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/approval"
	"github.com/viant/crewflow/service/processor"
)

// Runtime is the subset of the crewflow runtime served by Handler.
type Runtime interface {
	Start(ctx context.Context, pipeline string, input interface{}) (string, error)
	Status(ctx context.Context, runID string) (*run.Summary, error)
	Resolve(ctx context.Context, runID string, decision *run.Decision) (*run.Summary, error)
	Cancel(ctx context.Context, runID string) (*run.Summary, error)
	PendingApprovals(ctx context.Context, filters ...approval.PendingFilter) ([]*approval.Request, error)
}

// StartResponse is returned by the run creation endpoint.
type StartResponse struct {
	RunID string `json:"runId"`
}

// ResolveRequest carries a checkpoint verdict.
type ResolveRequest struct {
	Verdict  run.Verdict `json:"verdict"`
	Feedback string      `json:"feedback,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ProgressSource reports task counters of a run.
type ProgressSource interface {
	Snapshot(runID string) (progress.Progress, bool)
}

// Handler serves the run API.
type Handler struct {
	runtime  Runtime
	progress ProgressSource
	mux      *http.ServeMux
	notFound []error
}

// Option customises a Handler.
type Option func(h *Handler)

// WithNotFound adds sentinel errors reported as 404.
func WithNotFound(errs ...error) Option {
	return func(h *Handler) { h.notFound = append(h.notFound, errs...) }
}

// WithProgress serves GET /v1/runs/{id}/progress from source.
func WithProgress(source ProgressSource) Option {
	return func(h *Handler) { h.progress = source }
}

// New creates a handler over runtime.
func New(runtime Runtime, opts ...Option) *Handler {
	h := &Handler{runtime: runtime, mux: http.NewServeMux(), notFound: []error{processor.ErrRunNotFound}}
	for _, opt := range opts {
		opt(h)
	}
	h.mux.HandleFunc("POST /v1/pipelines/{name}/runs", h.start)
	h.mux.HandleFunc("GET /v1/runs/{id}", h.status)
	h.mux.HandleFunc("POST /v1/runs/{id}/checkpoints/{taskId}", h.resolve)
	h.mux.HandleFunc("DELETE /v1/runs/{id}", h.cancel)
	h.mux.HandleFunc("GET /v1/approvals", h.approvals)
	if h.progress != nil {
		h.mux.HandleFunc("GET /v1/runs/{id}/progress", h.runProgress)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}
	var input interface{}
	if len(data) > 0 {
		input = json.RawMessage(data)
	}
	runID, err := h.runtime.Start(r.Context(), r.PathValue("name"), input)
	if err != nil {
		h.error(w, err)
		return
	}
	h.write(w, http.StatusAccepted, &StartResponse{RunID: runID})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runtime.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		h.error(w, err)
		return
	}
	h.write(w, http.StatusOK, summary)
}

func (h *Handler) runProgress(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	snapshot, ok := h.progress.Snapshot(runID)
	if !ok {
		h.fail(w, http.StatusNotFound, fmt.Errorf("%w: %s", processor.ErrRunNotFound, runID))
		return
	}
	h.write(w, http.StatusOK, snapshot)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	request := &ResolveRequest{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		h.fail(w, http.StatusBadRequest, err)
		return
	}
	summary, err := h.runtime.Resolve(r.Context(), r.PathValue("id"), &run.Decision{
		TaskID:   r.PathValue("taskId"),
		Verdict:  request.Verdict,
		Feedback: request.Feedback,
	})
	if err != nil {
		h.error(w, err)
		return
	}
	h.write(w, http.StatusOK, summary)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runtime.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		h.error(w, err)
		return
	}
	h.write(w, http.StatusOK, summary)
}

func (h *Handler) approvals(w http.ResponseWriter, r *http.Request) {
	var filters []approval.PendingFilter
	query := r.URL.Query()
	if value := query.Get("runId"); value != "" {
		filters = append(filters, approval.WithRunID(value))
	}
	if value := query.Get("pipeline"); value != "" {
		filters = append(filters, approval.WithPipeline(value))
	}
	requests, err := h.runtime.PendingApprovals(r.Context(), filters...)
	if err != nil {
		h.error(w, err)
		return
	}
	h.write(w, http.StatusOK, requests)
}

func (h *Handler) error(w http.ResponseWriter, err error) {
	h.fail(w, h.statusOf(err), err)
}

func (h *Handler) statusOf(err error) int {
	for _, candidate := range h.notFound {
		if errors.Is(err, candidate) {
			return http.StatusNotFound
		}
	}
	var configErr *model.ConfigurationError
	switch {
	case errors.Is(err, processor.ErrNotPending), errors.Is(err, processor.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, processor.ErrInvalidVerdict), errors.Is(err, processor.ErrInvalidInput),
		errors.Is(err, processor.ErrUnknownTask), errors.As(err, &configErr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		log.Printf("api: %v", err)
	}
	h.write(w, code, &ErrorResponse{Error: err.Error()})
}

func (h *Handler) write(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("api: failed to encode response: %v", err)
	}
}
