package policy

import (
	"context"
	"strings"
	"time"

	"github.com/viant/crewflow/internal/clock"
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/approval"
)

// Checkpoint modes.
const (
	ModeAsk  = "ask"  // a reviewer decides every checkpoint (default)
	ModeAuto = "auto" // approve without asking
	ModeDeny = "deny" // reject without asking
)

// Reasons recorded as decision feedback.
const (
	ReasonApproved = "approved by policy"
	ReasonDenied   = "denied by policy"
)

// Policy maps checkpoints to automatic verdicts.
//
//   - Mode controls the behaviour for covered checkpoints (ask / auto / deny).
//   - AllowList narrows the covered checkpoints (empty => all).
//   - BlockList checkpoints are always left to a reviewer.
//
// A nil *Policy asks for every checkpoint.
type Policy struct {
	Mode      string
	AllowList []string
	BlockList []string
}

// Config represents the serialisable form of a Policy.
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty" mapstructure:"mode"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty" mapstructure:"allow"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty" mapstructure:"block"`
}

// FromConfig converts c to a Policy; nil stays nil.
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:      strings.ToLower(c.Mode),
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// Covers evaluates AllowList / BlockList against a checkpoint task id,
// case-insensitively.
func (p *Policy) Covers(taskID string) bool {
	if p == nil {
		return false
	}
	normalized := strings.ToLower(taskID)
	for _, b := range p.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, a := range p.AllowList {
		if normalized == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// Decide returns the automatic decision for taskID, or nil when a reviewer
// has to decide.
func (p *Policy) Decide(taskID string) *run.Decision {
	if !p.Covers(taskID) {
		return nil
	}
	switch p.Mode {
	case ModeAuto:
		return &run.Decision{TaskID: taskID, Verdict: run.VerdictApprove, Feedback: ReasonApproved}
	case ModeDeny:
		return &run.Decision{TaskID: taskID, Verdict: run.VerdictReject, Feedback: ReasonDenied}
	}
	return nil
}

// Watch polls svc and decides every pending request the policy covers. It
// returns stop(); call it (or cancel ctx) to exit.
func Watch(ctx context.Context, svc approval.Service, p *Policy, interval time.Duration) (stop func()) {
	return approval.AutoDecider(ctx, svc, func(r *approval.Request) (bool, string, bool) {
		decision := p.Decide(r.TaskID)
		// expired requests belong to the driver
		if decision == nil || r.Expired(clock.Now()) {
			return false, "", false
		}
		return decision.Verdict == run.VerdictApprove, decision.Feedback, true
	}, interval)
}
