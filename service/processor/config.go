package processor

import (
	"time"

	"github.com/viant/crewflow/service/handoff"
)

// Config represents processor configuration
type Config struct {
	// CheckpointTimeout rejects a checkpoint left undecided for this long; zero waits forever.
	CheckpointTimeout time.Duration `json:"checkpointTimeout,omitempty" yaml:"checkpointTimeout,omitempty" mapstructure:"checkpointTimeout"`

	// Handoff is the process-wide kickoff endpoint; a pipeline's handoff section overrides it.
	Handoff handoff.Config `json:"handoff,omitempty" yaml:"handoff,omitempty" mapstructure:"handoff"`
}

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{}
}
