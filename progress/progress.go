package progress

import (
	"strings"
	"sync"
	"time"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/runtime/run"
)

// Progress holds the counters of one run.
type Progress struct {
	RunID     string    `json:"runId"`
	Pipeline  string    `json:"pipeline"`
	StartedAt time.Time `json:"startedAt"`

	TotalTasks          int    `json:"totalTasks"`
	CompletedTasks      int    `json:"completedTasks"`
	ResolvedCheckpoints int    `json:"resolvedCheckpoints"`
	PendingTaskID       string `json:"pendingTaskId,omitempty"`
	Status              string `json:"status"`
	Done                bool   `json:"done"`
}

// DefaultRetention is the number of finished runs a tracker remembers.
const DefaultRetention = 1024

// Tracker aggregates notices into Progress values. It is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	total     func(pipeline string) int
	runs      map[string]*Progress
	finished  []string
	retention int
	onChange  func(Progress)
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithRetention sets how many finished runs stay queryable; the oldest
// finished run is forgotten first.
func WithRetention(retention int) Option {
	return func(t *Tracker) {
		t.retention = retention
	}
}

// New creates a tracker; total reports the task count of a pipeline.
func New(total func(pipeline string) int, options ...Option) *Tracker {
	ret := &Tracker{total: total, runs: map[string]*Progress{}, retention: DefaultRetention}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// OnChange registers a callback that is invoked after every applied notice.
// Passing nil disables the callback.
func (t *Tracker) OnChange(cb func(Progress)) {
	t.mu.Lock()
	t.onChange = cb
	t.mu.Unlock()
}

// Apply folds notice into the counters of its run. The callback runs
// outside the critical section with a copy of the updated counters.
func (t *Tracker) Apply(notice *run.Notice) {
	if notice == nil {
		return
	}
	t.mu.Lock()
	p, ok := t.runs[notice.RunID]
	if !ok {
		p = &Progress{RunID: notice.RunID, Pipeline: notice.Pipeline, StartedAt: clock.Now()}
		if t.total != nil {
			p.TotalTasks = t.total(notice.Pipeline)
		}
		t.runs[notice.RunID] = p
	}
	p.Status = notice.Status
	switch notice.Type {
	case run.NoticeRunStarted:
		p.CompletedTasks = notice.Seeded
	case run.NoticeTaskCompleted:
		p.CompletedTasks++
	case run.NoticeCheckpointPending:
		p.PendingTaskID = notice.TaskID
	case run.NoticeCheckpointResolved:
		p.PendingTaskID = ""
		p.ResolvedCheckpoints++
		// a rejected proposal is not recorded as output
		if !strings.HasPrefix(notice.Status, string(run.StateRejected)) {
			p.CompletedTasks++
		}
	}
	if notice.Type.IsTerminal() && !p.Done {
		p.PendingTaskID = ""
		p.Done = true
		t.finish(notice.RunID)
	}
	snapshot := *p
	cb := t.onChange
	t.mu.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

// finish must be called with t.mu held.
func (t *Tracker) finish(runID string) {
	t.finished = append(t.finished, runID)
	for len(t.finished) > t.retention {
		delete(t.runs, t.finished[0])
		t.finished = t.finished[1:]
	}
}

// Snapshot returns a copy of the counters of runID.
func (t *Tracker) Snapshot(runID string) (Progress, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.runs[runID]; ok {
		return *p, true
	}
	return Progress{}, false
}

// Len returns the number of runs the tracker holds.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.runs)
}
