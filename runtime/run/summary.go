package run

// Summary is the externally visible status of a run.
type Summary struct {
	RunID         string          `json:"runId"`
	Pipeline      string          `json:"pipeline"`
	State         State           `json:"state"`
	Status        string          `json:"status"`
	CurrentTaskID string          `json:"currentTaskId,omitempty"`
	Proposed      string          `json:"proposed,omitempty"`
	Outputs       []*Output       `json:"outputs"`
	Cause         *Cause          `json:"cause,omitempty"`
	Handoff       *HandoffOutcome `json:"handoff,omitempty"`
	HandoffFailed bool            `json:"handoffFailed,omitempty"`
}

// Status renders the run status, e.g. "rejected_at:approve_campaign_launch".
func (r *Run) Status() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status()
}

func (r *Run) status() string {
	switch r.State {
	case StateSuspended:
		if r.Pending != nil {
			return "suspended_at:" + r.Pending.TaskID
		}
	case StateRejected, StateFailed:
		if r.Cause != nil && r.Cause.TaskID != "" {
			return string(r.State) + "_at:" + r.Cause.TaskID
		}
	}
	return string(r.State)
}

// Summary returns a point-in-time snapshot of the run.
func (r *Run) Summary() *Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := &Summary{
		RunID:    r.ID,
		Pipeline: r.Pipeline,
		State:    r.State,
		Status:   r.status(),
		Outputs:  cloneOutputs(r.Outputs),
	}
	if r.State == StateSuspended && r.Pending != nil {
		ret.CurrentTaskID = r.Pending.TaskID
		ret.Proposed = r.Pending.Proposed
	}
	if r.Cause != nil {
		cause := *r.Cause
		ret.Cause = &cause
	}
	if r.Handoff != nil {
		handoff := *r.Handoff
		ret.Handoff = &handoff
		ret.HandoffFailed = !handoff.Delivered
	}
	return ret
}

// Output returns the recorded output of taskID.
func (s *Summary) Output(taskID string) *Output {
	for _, output := range s.Outputs {
		if output.TaskID == taskID {
			return output
		}
	}
	return nil
}

// TaskIDs returns the recorded output keys in order.
func (s *Summary) TaskIDs() []string {
	ret := make([]string, 0, len(s.Outputs))
	for _, output := range s.Outputs {
		ret = append(ret, output.TaskID)
	}
	return ret
}
