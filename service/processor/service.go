package processor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/viant/crewflow/internal/idgen"
	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/approval"
	amemory "github.com/viant/crewflow/service/approval/memory"
	"github.com/viant/crewflow/service/dao"
	rmemory "github.com/viant/crewflow/service/dao/run/memory"
	"github.com/viant/crewflow/service/event"
	"github.com/viant/crewflow/service/executor"
	"github.com/viant/crewflow/service/executor/builtin"
	"github.com/viant/crewflow/service/handoff"
	"github.com/viant/structology/conv"
)

// Service executes runs of one pipeline.
type Service struct {
	config         Config
	pipeline       *model.Pipeline
	registry       *executor.Registry
	executors      map[string]executor.Executor
	runDAO         dao.Service[string, run.Run]
	approvals      approval.Service
	events         *event.Service
	notices        *event.Publisher[*run.Notice]
	observers      []func(*run.Notice)
	handoff        *handoff.Service
	handoffOptions []handoff.Option
	converter      *conv.Converter

	mu      sync.RWMutex
	handles map[string]*handle
	wg      sync.WaitGroup
}

// New validates the pipeline and resolves every executor before any run
// can start. Structural problems, unknown variants and unknown tools are
// reported together as a *model.ConfigurationError.
func New(pipeline *model.Pipeline, options ...Option) (*Service, error) {
	if pipeline == nil {
		return nil, model.NewConfigurationError("", fmt.Errorf("pipeline cannot be nil"))
	}
	s := &Service{
		config:    DefaultConfig(),
		pipeline:  pipeline.Clone(),
		handles:   map[string]*handle{},
		converter: newConverter(),
	}
	for _, opt := range options {
		opt(s)
	}
	if issues := s.pipeline.Validate(); len(issues) > 0 {
		return nil, model.NewConfigurationError(s.pipeline.Name, issues...)
	}
	if err := s.resolveExecutors(); err != nil {
		return nil, err
	}
	if s.runDAO == nil {
		s.runDAO = rmemory.New()
	}
	if s.approvals == nil {
		s.approvals = amemory.New()
	}
	if s.events == nil {
		s.events = event.New()
	}
	s.notices = event.PublisherOf[*run.Notice](s.events)
	handoffConfig, err := s.config.Handoff.Merge(s.pipeline.Handoff)
	if err != nil {
		return nil, model.NewConfigurationError(s.pipeline.Name, err)
	}
	if handoffConfig.Enabled() {
		s.handoff = handoff.New(handoffConfig, s.handoffOptions...)
	}
	return s, nil
}

func (s *Service) resolveExecutors() error {
	if s.registry == nil {
		s.registry = builtin.NewRegistry(nil)
	}
	pending := model.NewPipeline(s.pipeline.Name)
	for name, profile := range s.pipeline.Executors {
		if _, ok := s.executors[name]; ok {
			continue
		}
		pending.Executors[name] = profile
	}
	built, err := s.registry.BuildAll(pending)
	if err != nil {
		return err
	}
	if s.executors == nil {
		s.executors = map[string]executor.Executor{}
	}
	for name, anExecutor := range built {
		s.executors[name] = anExecutor
	}
	return nil
}

// Pipeline returns a copy of the pipeline being executed.
func (s *Service) Pipeline() *model.Pipeline {
	return s.pipeline.Clone()
}

// Approvals returns the checkpoint gate.
func (s *Service) Approvals() approval.Service {
	return s.approvals
}

// Events returns the event service notices are published to.
func (s *Service) Events() *event.Service {
	return s.events
}

// Start creates a run for input and launches its driver. The driver is
// detached from ctx cancellation; use Cancel to stop it.
func (s *Service) Start(ctx context.Context, input interface{}) (string, error) {
	inputs, err := s.toInput(input)
	if err != nil {
		return "", err
	}
	r := run.New(idgen.NewRunID(s.pipeline.Name), s.pipeline.Name, inputs)
	return s.launch(ctx, r)
}

// Replay starts a new run seeded with the input of sourceRunID and the
// outputs of every task declared before fromTaskID.
func (s *Service) Replay(ctx context.Context, sourceRunID, fromTaskID string) (string, error) {
	_, position := s.pipeline.Task(fromTaskID)
	if position == -1 {
		return "", fmt.Errorf("%w: %s", ErrUnknownTask, fromTaskID)
	}
	source, err := s.load(ctx, sourceRunID)
	if err != nil {
		return "", err
	}
	recorded := map[string]*run.Output{}
	for _, output := range source.OutputsSnapshot() {
		recorded[output.TaskID] = output
	}
	seed := make([]*run.Output, 0, position)
	for _, task := range s.pipeline.Tasks[:position] {
		output, ok := recorded[task.ID]
		if !ok {
			return "", fmt.Errorf("run %s has no output for %s, replay from an earlier task", sourceRunID, task.ID)
		}
		seed = append(seed, output)
	}
	r := run.New(idgen.NewRunID(s.pipeline.Name), s.pipeline.Name, maps.Clone(source.Input))
	r.ReplayOf = source.ID
	r.Seed(seed)
	return s.launch(ctx, r)
}

func (s *Service) launch(ctx context.Context, r *run.Run) (string, error) {
	if err := s.runDAO.Save(ctx, r); err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h := newHandle(r, cancel)
	s.mu.Lock()
	s.handles[r.ID] = h
	s.mu.Unlock()
	s.wg.Add(1)
	go s.drive(runCtx, h)
	return r.ID, nil
}

func (s *Service) handle(runID string) *handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handles[runID]
}

func (s *Service) release(runID string) {
	s.mu.Lock()
	delete(s.handles, runID)
	s.mu.Unlock()
}

// load returns the live run, or its persisted copy.
func (s *Service) load(ctx context.Context, runID string) (*run.Run, error) {
	if h := s.handle(runID); h != nil {
		return h.run, nil
	}
	r, err := s.runDAO.Load(ctx, runID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	if r.Pipeline != s.pipeline.Name {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, nil
}

// Status returns the current run summary.
func (s *Service) Status(ctx context.Context, runID string) (*run.Summary, error) {
	r, err := s.load(ctx, runID)
	if err != nil {
		return nil, err
	}
	return r.Summary(), nil
}

// Wait blocks until the run is suspended or terminal.
func (s *Service) Wait(ctx context.Context, runID string) (*run.Summary, error) {
	h := s.handle(runID)
	if h == nil {
		return s.Status(ctx, runID)
	}
	if err := h.until(ctx, func(r *run.Run) bool { return r.GetState().IsSettled() }); err != nil {
		return nil, err
	}
	return h.run.Summary(), nil
}

// Resolve applies a human decision to the checkpoint the run is parked
// on and returns once the driver has acted on it. Repeating a decision
// already applied is a no-op.
func (s *Service) Resolve(ctx context.Context, runID string, decision *run.Decision) (*run.Summary, error) {
	if decision == nil || !decision.Verdict.IsValid() {
		return nil, ErrInvalidVerdict
	}
	r, err := s.load(ctx, runID)
	if err != nil {
		return nil, err
	}
	if r.PendingTaskID() != decision.TaskID {
		return s.resolved(r, decision)
	}
	approved := decision.Verdict == run.VerdictApprove
	if _, err = s.approvals.Decide(ctx, approval.RequestID(runID, decision.TaskID), approved, decision.Feedback); err != nil {
		switch {
		case errors.Is(err, approval.ErrAlreadyDecided):
			return nil, fmt.Errorf("%w: %s", ErrConflict, decision.TaskID)
		case errors.Is(err, approval.ErrNotFound):
			return s.resolved(r, decision)
		}
		return nil, err
	}
	if h := s.handle(runID); h != nil {
		if err = h.until(ctx, func(r *run.Run) bool { return r.PendingTaskID() != decision.TaskID }); err != nil {
			return nil, err
		}
	}
	return r.Summary(), nil
}

// resolved handles a decision for a checkpoint the run is not parked on.
func (s *Service) resolved(r *run.Run, decision *run.Decision) (*run.Summary, error) {
	if previous := r.Decision(decision.TaskID); previous != nil {
		if previous.Verdict == decision.Verdict {
			return r.Summary(), nil
		}
		return nil, fmt.Errorf("%w: %s", ErrConflict, decision.TaskID)
	}
	return nil, fmt.Errorf("%w: run %s is %s", ErrNotPending, r.ID, r.Status())
}

// Cancel stops a live run and returns its final summary. Cancelling a
// finished run returns its summary unchanged.
func (s *Service) Cancel(ctx context.Context, runID string) (*run.Summary, error) {
	h := s.handle(runID)
	if h == nil {
		return s.Status(ctx, runID)
	}
	h.cancel()
	if taskID := h.run.PendingTaskID(); taskID != "" {
		if err := s.approvals.Withdraw(ctx, approval.RequestID(runID, taskID)); err != nil && !errors.Is(err, approval.ErrNotFound) {
			return nil, err
		}
	}
	select {
	case <-h.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return h.run.Summary(), nil
}

// Runs lists persisted runs of this pipeline.
func (s *Service) Runs(ctx context.Context, parameters ...*dao.Parameter) ([]*run.Summary, error) {
	parameters = append(parameters, dao.ByPipeline(s.pipeline.Name))
	runs, err := s.runDAO.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	ret := make([]*run.Summary, 0, len(runs))
	for _, r := range runs {
		if h := s.handle(r.ID); h != nil {
			r = h.run
		}
		ret = append(ret, r.Summary())
	}
	return ret, nil
}

// Shutdown cancels every live run and waits for the drivers to exit.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.handles))
	for id := range s.handles {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	for _, id := range ids {
		if _, err := s.Cancel(ctx, id); err != nil && !errors.Is(err, ErrRunNotFound) {
			return err
		}
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
