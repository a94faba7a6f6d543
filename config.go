package crewflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/viant/crewflow/policy"
	"github.com/viant/crewflow/service/executor"
	"github.com/viant/crewflow/service/handoff"
	"github.com/viant/crewflow/service/processor"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFS     = "fs"
	StoreSQLite = "sqlite"
)

// Config is a serialisable representation of the engine configuration. It
// can be populated from YAML, JSON or environment variables; see LoadConfig.
type Config struct {
	Store      StoreConfig                    `json:"store" yaml:"store" mapstructure:"store"`
	Checkpoint CheckpointConfig               `json:"checkpoint" yaml:"checkpoint" mapstructure:"checkpoint"`
	Handoff    handoff.Config                 `json:"handoff" yaml:"handoff" mapstructure:"handoff"`
	Providers  map[string]*executor.Provider  `json:"providers,omitempty" yaml:"providers,omitempty" mapstructure:"providers"`
	Tracing    TracingConfig                  `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
	Server     ServerConfig                   `json:"server" yaml:"server" mapstructure:"server"`
	// DryRun forces every executor onto the static variant.
	DryRun bool `json:"dryRun,omitempty" yaml:"dryRun,omitempty" mapstructure:"dryRun"`
}

// StoreConfig selects where runs are persisted.
type StoreConfig struct {
	Kind string `json:"kind" yaml:"kind" mapstructure:"kind"`
	// URL is a base afs URL for fs, or a database path for sqlite.
	URL string `json:"url,omitempty" yaml:"url,omitempty" mapstructure:"url"`
}

type CheckpointConfig struct {
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
	// Policy decides covered checkpoints without a reviewer.
	Policy *policy.Config `json:"policy,omitempty" yaml:"policy,omitempty" mapstructure:"policy"`
}

type TracingConfig struct {
	Enabled     bool   `json:"enabled,omitempty" yaml:"enabled,omitempty" mapstructure:"enabled"`
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty" mapstructure:"serviceName"`
	OutputFile  string `json:"outputFile,omitempty" yaml:"outputFile,omitempty" mapstructure:"outputFile"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// DefaultConfig returns a Config with in-memory storage and no handoff.
func DefaultConfig() *Config {
	return &Config{
		Store:     StoreConfig{Kind: StoreMemory},
		Handoff:   handoff.Config{Path: handoff.DefaultPath, Timeout: handoff.DefaultTimeout},
		Providers: map[string]*executor.Provider{},
		Tracing:   TracingConfig{ServiceName: "crewflow"},
		Server:    ServerConfig{Addr: ":8080"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var issues []error
	switch c.Store.Kind {
	case "", StoreMemory:
	case StoreFS, StoreSQLite:
		if c.Store.URL == "" {
			issues = append(issues, fmt.Errorf("store.url is required for %s store", c.Store.Kind))
		}
	default:
		issues = append(issues, fmt.Errorf("unsupported store.kind %q", c.Store.Kind))
	}
	if c.Checkpoint.Timeout < 0 {
		issues = append(issues, fmt.Errorf("checkpoint.timeout must be >= 0"))
	}
	if p := c.Checkpoint.Policy; p != nil {
		switch strings.ToLower(p.Mode) {
		case "", policy.ModeAsk, policy.ModeAuto, policy.ModeDeny:
		default:
			issues = append(issues, fmt.Errorf("unsupported checkpoint.policy.mode %q", p.Mode))
		}
	}
	if c.Handoff.Timeout < 0 {
		issues = append(issues, fmt.Errorf("handoff.timeout must be >= 0"))
	}
	return errors.Join(issues...)
}

func (c *Config) processorConfig() processor.Config {
	return processor.Config{CheckpointTimeout: c.Checkpoint.Timeout, Handoff: c.Handoff}
}

func (c *Config) executorEnvironment() *executor.Environment {
	return &executor.Environment{Providers: c.Providers}
}

// LoadConfig reads configuration from path (optional) and the environment.
// CREWFLOW_* variables override file settings; CREW_3_URL,
// CREW_3_BEARER_TOKEN, OPENAI_API_KEY and ANTHROPIC_API_KEY are bound to
// their settings directly.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}
	v.SetEnvPrefix("CREWFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("handoff.url", "CREW_3_URL")
	_ = v.BindEnv("handoff.bearerToken", "CREW_3_BEARER_TOKEN")
	_ = v.BindEnv("providers.openai.apiKey", "OPENAI_API_KEY")
	_ = v.BindEnv("providers.anthropic.apiKey", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]*executor.Provider{}
	}
	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("store.kind", defaults.Store.Kind)
	v.SetDefault("handoff.path", defaults.Handoff.Path)
	v.SetDefault("handoff.timeout", defaults.Handoff.Timeout)
	v.SetDefault("tracing.serviceName", defaults.Tracing.ServiceName)
	v.SetDefault("server.addr", defaults.Server.Addr)
}
