package handoff

import (
	"fmt"
	"strings"
	"time"

	"github.com/viant/crewflow/model"
)

const (
	DefaultPath    = "/kickoff"
	DefaultTimeout = 30 * time.Second
	DefaultKey     = "blowfish://default"
)

// Config configures the downstream kickoff endpoint.
type Config struct {
	URL         string        `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
	Path        string        `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
	BearerToken string        `json:"bearerToken,omitempty" yaml:"bearerToken,omitempty" mapstructure:"bearerToken"`
	SecretURL   string        `json:"secretURL,omitempty" yaml:"secretURL,omitempty" mapstructure:"secretURL"`
	SecretKey   string        `json:"secretKey,omitempty" yaml:"secretKey,omitempty" mapstructure:"secretKey"`
	Timeout     time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// Enabled reports whether a downstream URL is configured.
func (c *Config) Enabled() bool {
	return c != nil && strings.TrimSpace(c.URL) != ""
}

// Endpoint returns URL joined with Path.
func (c *Config) Endpoint() string {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	return strings.TrimRight(c.URL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Init fills defaults.
func (c *Config) Init() {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.SecretURL != "" && c.SecretKey == "" {
		c.SecretKey = DefaultKey
	}
}

// Merge overlays a pipeline's handoff section on top of c. Empty pipeline
// fields keep the process configuration value.
func (c Config) Merge(h *model.Handoff) (*Config, error) {
	ret := c
	if h != nil {
		if h.URL != "" {
			ret.URL = h.URL
		}
		if h.Path != "" {
			ret.Path = h.Path
		}
		if h.BearerToken != "" {
			ret.BearerToken = h.BearerToken
		}
		if h.SecretURL != "" {
			ret.SecretURL = h.SecretURL
		}
		if h.SecretKey != "" {
			ret.SecretKey = h.SecretKey
		}
		if h.Timeout != "" {
			timeout, err := time.ParseDuration(h.Timeout)
			if err != nil {
				return nil, fmt.Errorf("invalid handoff timeout %q: %w", h.Timeout, err)
			}
			ret.Timeout = timeout
		}
	}
	ret.Init()
	return &ret, nil
}
