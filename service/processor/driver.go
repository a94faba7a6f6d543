package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/approval"
	"github.com/viant/crewflow/service/event"
	"github.com/viant/crewflow/service/executor"
	"github.com/viant/crewflow/service/handoff"
	"github.com/viant/crewflow/tracing"
)

const checkpointExpired = "checkpoint expired"

// drive owns r for its whole lifetime.
func (s *Service) drive(ctx context.Context, h *handle) {
	r := h.run
	defer func() {
		h.cancel()
		s.release(r.ID)
		close(h.done)
		s.wg.Done()
	}()
	ctx, span := tracing.StartSpan(ctx, "run "+s.pipeline.Name, tracing.KindInternal)
	span.WithAttributes(map[string]string{"run.id": r.ID, "pipeline.name": s.pipeline.Name})
	var runErr error
	defer func() { tracing.EndSpan(span, runErr) }()

	if ctx.Err() != nil {
		s.cancelled(ctx, h, "")
		return
	}
	if runErr = r.Transition(run.StateRunning); runErr != nil {
		log.Printf("run %s: %v", r.ID, runErr)
		return
	}
	s.changed(ctx, h, run.NoticeRunStarted, "")

	for position := r.GetPosition(); position < len(s.pipeline.Tasks); position = r.GetPosition() {
		task := s.pipeline.Tasks[position]
		if ctx.Err() != nil {
			s.cancelled(ctx, h, task.ID)
			return
		}
		output, err := s.invoke(ctx, r, task)
		if ctx.Err() != nil {
			s.cancelled(ctx, h, task.ID)
			return
		}
		if err != nil {
			kind := model.KindExecutor
			if errors.Is(err, executor.ErrExhausted) {
				kind = model.KindExhausted
			}
			runErr = err
			log.Printf("run %s: task %s failed: %v", r.ID, task.ID, err)
			if e := r.Fail(task.ID, kind, err); e != nil {
				log.Printf("run %s: %v", r.ID, e)
			}
			s.changed(ctx, h, run.NoticeRunFailed, task.ID)
			return
		}
		if !task.IsCheckpoint() {
			r.Record(output)
			s.changed(ctx, h, run.NoticeTaskCompleted, task.ID)
			continue
		}

		decision, err := s.checkpoint(ctx, h, task, output)
		if err != nil {
			s.forget(ctx, r.ID, task.ID)
			s.cancelled(ctx, h, task.ID)
			return
		}
		span.AddEvent("checkpoint.resolved", map[string]string{"task.id": task.ID, "verdict": string(decision.Verdict)})
		if decision.Verdict == run.VerdictReject {
			if runErr = r.Reject(decision); runErr != nil {
				log.Printf("run %s: %v", r.ID, runErr)
				return
			}
			s.forget(ctx, r.ID, task.ID)
			s.notice(ctx, r, run.NoticeCheckpointResolved, task.ID)
			s.changed(ctx, h, run.NoticeRunRejected, task.ID)
			return
		}
		if runErr = r.Approve(decision); runErr != nil {
			log.Printf("run %s: %v", r.ID, runErr)
			return
		}
		s.forget(ctx, r.ID, task.ID)
		s.changed(ctx, h, run.NoticeCheckpointResolved, task.ID)
	}

	if ctx.Err() != nil {
		s.cancelled(ctx, h, "")
		return
	}
	outcome := s.deliver(ctx, r)
	if ctx.Err() != nil {
		s.cancelled(ctx, h, "")
		return
	}
	if runErr = r.Complete(outcome); runErr != nil {
		log.Printf("run %s: %v", r.ID, runErr)
		return
	}
	if outcome != nil && !outcome.Delivered {
		s.notice(ctx, r, run.NoticeHandoffFailed, "")
	}
	s.changed(ctx, h, run.NoticeRunCompleted, "")
}

// invoke runs one task; panics are reported as executor errors.
func (s *Service) invoke(ctx context.Context, r *run.Run, task *model.Task) (output *run.Output, err error) {
	ctx, span := tracing.StartSpan(ctx, "task "+task.ID, tracing.KindInternal)
	span.WithAttributes(map[string]string{"run.id": r.ID, "task.id": task.ID, "task.executor": task.Executor})
	defer func() {
		if p := recover(); p != nil {
			log.Printf("run %s: task %s panic: %v\n%s", r.ID, task.ID, p, debug.Stack())
			output, err = nil, fmt.Errorf("executor %s panicked: %v", task.Executor, p)
		}
		tracing.EndSpan(span, err)
	}()

	anExecutor, ok := s.executors[task.Executor]
	if !ok {
		return nil, fmt.Errorf("executor %s not resolved", task.Executor)
	}
	prior := r.OutputsSnapshot()
	request := &executor.Request{
		RunID:        r.ID,
		TaskID:       task.ID,
		Instructions: executor.Interpolate(task.Instructions(), r.Input),
		Inputs:       r.Input,
		Prior:        make([]executor.Prior, 0, len(prior)),
		Now:          clock.Now(),
	}
	for _, item := range prior {
		request.Prior = append(request.Prior, executor.Prior{TaskID: item.TaskID, Executor: item.Executor, Content: item.Content, Feedback: item.Feedback})
	}
	startedAt := clock.Now()
	result, err := anExecutor.Invoke(ctx, request)
	span.WithAttributes(map[string]string{"task.elapsed": clock.Since(startedAt).String()})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("executor %s returned no result", task.Executor)
	}
	return &run.Output{
		TaskID:      task.ID,
		Executor:    task.Executor,
		Content:     result.Content,
		Iterations:  result.Iterations,
		StartedAt:   startedAt,
		CompletedAt: clock.Now(),
	}, nil
}

// checkpoint parks the run on task and blocks until a decision, an expiry
// or cancellation.
func (s *Service) checkpoint(ctx context.Context, h *handle, task *model.Task, proposal *run.Output) (*run.Decision, error) {
	r := h.run
	requestID := approval.RequestID(r.ID, task.ID)
	now := clock.Now()
	request := &approval.Request{
		ID:        requestID,
		RunID:     r.ID,
		Pipeline:  r.Pipeline,
		TaskID:    task.ID,
		Executor:  task.Executor,
		Proposed:  proposal.Content,
		CreatedAt: now,
	}
	waitCtx := ctx
	if timeout := s.config.CheckpointTimeout; timeout > 0 {
		expiresAt := now.Add(timeout)
		request.ExpiresAt = &expiresAt
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	// the request must be decidable before anyone can observe the suspension
	if err := s.approvals.RequestApproval(ctx, request); err != nil {
		return nil, err
	}
	if err := r.Suspend(&run.Checkpoint{
		TaskID:      task.ID,
		Executor:    task.Executor,
		Proposed:    proposal.Content,
		ApprovalID:  requestID,
		Iterations:  proposal.Iterations,
		StartedAt:   proposal.StartedAt,
		RequestedAt: now,
	}); err != nil {
		return nil, err
	}
	tracing.SpanFromContext(ctx).AddEvent("checkpoint.pending", map[string]string{"task.id": task.ID, "approval.id": requestID})
	s.changed(ctx, h, run.NoticeCheckpointPending, task.ID)

	decided, err := s.approvals.Wait(waitCtx, requestID)
	if err != nil {
		if ctx.Err() != nil || !errors.Is(err, context.DeadlineExceeded) {
			_ = s.approvals.Withdraw(context.WithoutCancel(ctx), requestID)
			return nil, err
		}
		// expired: reject unless a decision won the race
		if decided, err = s.approvals.Decide(ctx, requestID, false, checkpointExpired); err != nil && !errors.Is(err, approval.ErrAlreadyDecided) {
			return nil, err
		}
	}
	verdict := run.VerdictReject
	if decided.Approved {
		verdict = run.VerdictApprove
	}
	return &run.Decision{TaskID: task.ID, Verdict: verdict, Feedback: decided.Reason, DecidedAt: decided.DecidedAt}, nil
}

// deliver issues the terminal handoff; it returns nil when none is configured.
func (s *Service) deliver(ctx context.Context, r *run.Run) *run.HandoffOutcome {
	if s.handoff == nil {
		return nil
	}
	outcome := s.handoff.Deliver(ctx, handoff.NewPayload(r))
	if !outcome.Delivered {
		log.Printf("run %s: handoff to %s failed: %s", r.ID, outcome.URL, outcome.Error)
	}
	return outcome
}

// forget drops the approval records of a checkpoint the run no longer waits on.
func (s *Service) forget(ctx context.Context, runID, taskID string) {
	if err := s.approvals.Forget(context.WithoutCancel(ctx), approval.RequestID(runID, taskID)); err != nil {
		log.Printf("run %s: failed to forget checkpoint %s: %v", runID, taskID, err)
	}
}

func (s *Service) cancelled(ctx context.Context, h *handle, taskID string) {
	if err := h.run.Cancel(taskID); err != nil {
		log.Printf("run %s: %v", h.run.ID, err)
		return
	}
	s.changed(ctx, h, run.NoticeRunCancelled, taskID)
}

// changed persists the run, publishes a notice and wakes waiters.
func (s *Service) changed(ctx context.Context, h *handle, noticeType run.NoticeType, taskID string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.runDAO.Save(ctx, h.run); err != nil {
		log.Printf("run %s: failed to save: %v", h.run.ID, err)
	}
	s.notice(ctx, h.run, noticeType, taskID)
	h.notify()
}

func (s *Service) notice(ctx context.Context, r *run.Run, noticeType run.NoticeType, taskID string) {
	notice := r.NewNotice(noticeType, taskID)
	for _, observer := range s.observers {
		observer(notice)
	}
	anEvent := event.NewEvent[*run.Notice](&event.Context{
		RunID:     r.ID,
		TaskID:    taskID,
		EventType: string(noticeType),
		Pipeline:  r.Pipeline,
	}, notice)
	if err := s.notices.Publish(context.WithoutCancel(ctx), anEvent); err != nil {
		log.Printf("run %s: failed to publish %s: %v", r.ID, noticeType, err)
	}
}
