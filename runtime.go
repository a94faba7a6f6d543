package crewflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/progress"
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/approval"
	"github.com/viant/crewflow/service/dao"
	"github.com/viant/crewflow/service/event"
	"github.com/viant/crewflow/service/processor"
)

// ErrPipelineNotFound is returned for a pipeline name nobody registered.
var ErrPipelineNotFound = errors.New("pipeline not found")

// Runtime routes run operations to the processor of their pipeline.
type Runtime struct {
	service  *Service
	progress *progress.Tracker

	mu         sync.RWMutex
	processors map[string]*processor.Service
	runs       map[string]*processor.Service
}

func newRuntime(service *Service) *Runtime {
	ret := &Runtime{
		service:    service,
		processors: map[string]*processor.Service{},
		runs:       map[string]*processor.Service{},
	}
	ret.progress = progress.New(ret.taskCount)
	return ret
}

// observe receives every notice synchronously from the processors.
func (r *Runtime) observe(notice *run.Notice) {
	r.progress.Apply(notice)
	if notice.Type.IsTerminal() {
		r.untrack(notice.RunID)
	}
}

func (r *Runtime) taskCount(name string) int {
	if aProcessor, err := r.processor(name); err == nil {
		return len(aProcessor.Pipeline().Tasks)
	}
	return 0
}

// LoadPipeline loads, validates and registers the pipeline at URL.
func (r *Runtime) LoadPipeline(ctx context.Context, URL string) (*model.Pipeline, error) {
	pipeline, err := r.service.loader.Load(ctx, URL)
	if err != nil {
		return nil, err
	}
	if err = r.Register(pipeline); err != nil {
		return nil, err
	}
	return pipeline, nil
}

// UpsertDefinition decodes data and registers the result, replacing any
// pipeline of the same name. Runs already started keep their definition.
func (r *Runtime) UpsertDefinition(location string, data []byte) (*model.Pipeline, error) {
	pipeline, err := r.service.loader.Decode(location, data)
	if err != nil {
		return nil, err
	}
	if err = r.Register(pipeline); err != nil {
		return nil, err
	}
	return pipeline, nil
}

// Register builds a processor for pipeline. Executors are resolved eagerly,
// so configuration problems surface here rather than mid-run.
func (r *Runtime) Register(pipeline *model.Pipeline) error {
	s := r.service
	options := []processor.Option{
		processor.WithConfig(s.config.processorConfig()),
		processor.WithRunDAO(s.runDAO),
		processor.WithApprovalService(s.approvals),
		processor.WithEventService(s.events),
		processor.WithRegistry(s.registry),
		processor.WithObserver(r.observe),
	}
	options = append(options, s.processorOptions...)
	aProcessor, err := processor.New(pipeline, options...)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.processors[pipeline.Name] = aProcessor
	r.mu.Unlock()
	return nil
}

// Pipelines returns registered pipeline names in sorted order.
func (r *Runtime) Pipelines() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.processors))
	for name := range r.processors {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Pipeline returns a copy of the registered pipeline.
func (r *Runtime) Pipeline(name string) (*model.Pipeline, error) {
	aProcessor, err := r.processor(name)
	if err != nil {
		return nil, err
	}
	return aProcessor.Pipeline(), nil
}

func (r *Runtime) processor(name string) (*processor.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ret, ok := r.processors[name]; ok {
		return ret, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPipelineNotFound, name)
}

// processorOf returns the processor that owns runID; runs started by an
// earlier process resolve through the store.
func (r *Runtime) processorOf(ctx context.Context, runID string) (*processor.Service, error) {
	r.mu.RLock()
	ret, ok := r.runs[runID]
	r.mu.RUnlock()
	if ok {
		return ret, nil
	}
	stored, err := r.service.runDAO.Load(ctx, runID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) || errors.Is(err, dao.ErrInvalidID) {
			return nil, fmt.Errorf("%w: %s", processor.ErrRunNotFound, runID)
		}
		return nil, err
	}
	return r.processor(stored.Pipeline)
}

// track indexes a live run. A run that finished before it was indexed is
// dropped again, since its terminal notice found nothing to untrack.
func (r *Runtime) track(ctx context.Context, runID string, aProcessor *processor.Service) {
	r.mu.Lock()
	r.runs[runID] = aProcessor
	r.mu.Unlock()
	if summary, err := aProcessor.Status(ctx, runID); err == nil && summary.State.IsTerminal() {
		r.untrack(runID)
	}
}

func (r *Runtime) untrack(runID string) {
	r.mu.Lock()
	delete(r.runs, runID)
	r.mu.Unlock()
}

// Live returns the number of runs that have not finished yet.
func (r *Runtime) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}

// Start launches a run of pipeline name and returns its id without waiting.
func (r *Runtime) Start(ctx context.Context, name string, input interface{}) (string, error) {
	aProcessor, err := r.processor(name)
	if err != nil {
		return "", err
	}
	runID, err := aProcessor.Start(ctx, input)
	if err != nil {
		return "", err
	}
	r.track(ctx, runID, aProcessor)
	return runID, nil
}

// Replay starts a new run that reuses the outputs of runID recorded before fromTaskID.
func (r *Runtime) Replay(ctx context.Context, runID, fromTaskID string) (string, error) {
	aProcessor, err := r.processorOf(ctx, runID)
	if err != nil {
		return "", err
	}
	replayID, err := aProcessor.Replay(ctx, runID, fromTaskID)
	if err != nil {
		return "", err
	}
	r.track(ctx, replayID, aProcessor)
	return replayID, nil
}

// Status returns the current summary of runID.
func (r *Runtime) Status(ctx context.Context, runID string) (*run.Summary, error) {
	aProcessor, err := r.processorOf(ctx, runID)
	if err != nil {
		return nil, err
	}
	return aProcessor.Status(ctx, runID)
}

// Wait blocks until runID completes, rejects, fails, is cancelled or suspends.
func (r *Runtime) Wait(ctx context.Context, runID string) (*run.Summary, error) {
	aProcessor, err := r.processorOf(ctx, runID)
	if err != nil {
		return nil, err
	}
	return aProcessor.Wait(ctx, runID)
}

// Resolve applies a checkpoint verdict to runID.
func (r *Runtime) Resolve(ctx context.Context, runID string, decision *run.Decision) (*run.Summary, error) {
	aProcessor, err := r.processorOf(ctx, runID)
	if err != nil {
		return nil, err
	}
	return aProcessor.Resolve(ctx, runID, decision)
}

// Cancel stops runID.
func (r *Runtime) Cancel(ctx context.Context, runID string) (*run.Summary, error) {
	aProcessor, err := r.processorOf(ctx, runID)
	if err != nil {
		return nil, err
	}
	return aProcessor.Cancel(ctx, runID)
}

// PendingApprovals lists undecided checkpoints across all pipelines.
func (r *Runtime) PendingApprovals(ctx context.Context, filters ...approval.PendingFilter) ([]*approval.Request, error) {
	return approval.ListPending(ctx, r.service.approvals, filters...)
}

// Runs lists runs of pipeline name, or of every registered pipeline when name is empty.
func (r *Runtime) Runs(ctx context.Context, name string, parameters ...*dao.Parameter) ([]*run.Summary, error) {
	names := []string{name}
	if name == "" {
		names = r.Pipelines()
	}
	var ret []*run.Summary
	for _, candidate := range names {
		aProcessor, err := r.processor(candidate)
		if err != nil {
			return nil, err
		}
		runs, err := aProcessor.Runs(ctx, parameters...)
		if err != nil {
			return nil, err
		}
		ret = append(ret, runs...)
	}
	return ret, nil
}

// Events returns the event service run notices are published to.
func (r *Runtime) Events() *event.Service {
	return r.service.events
}

// Progress returns the tracker fed by run notices.
func (r *Runtime) Progress() *progress.Tracker {
	return r.progress
}

// Approvals returns the checkpoint gate.
func (r *Runtime) Approvals() approval.Service {
	return r.service.approvals
}

// Shutdown cancels live runs of every processor ever registered.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.RLock()
	seen := map[*processor.Service]bool{}
	for _, aProcessor := range r.processors {
		seen[aProcessor] = true
	}
	for _, aProcessor := range r.runs {
		seen[aProcessor] = true
	}
	r.mu.RUnlock()
	var ret error
	for aProcessor := range seen {
		if err := aProcessor.Shutdown(ctx); err != nil {
			ret = errors.Join(ret, err)
		}
	}
	return ret
}
