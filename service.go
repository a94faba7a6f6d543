package crewflow

import (
	"fmt"
	"io"

	"github.com/viant/crewflow/policy"
	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/approval"
	amemory "github.com/viant/crewflow/service/approval/memory"
	"github.com/viant/crewflow/service/dao"
	rfs "github.com/viant/crewflow/service/dao/run/fs"
	rmemory "github.com/viant/crewflow/service/dao/run/memory"
	rsqlite "github.com/viant/crewflow/service/dao/run/sqlite"
	"github.com/viant/crewflow/service/event"
	"github.com/viant/crewflow/service/executor"
	"github.com/viant/crewflow/service/executor/builtin"
	"github.com/viant/crewflow/service/executor/static"
	"github.com/viant/crewflow/service/pipeline"
	"github.com/viant/crewflow/service/processor"
	"github.com/viant/crewflow/tracing"
)

// Version is reported by the CLI and tracing resources.
const Version = "0.3.0"

// Service wires the stores, the checkpoint gate and the executor registry
// shared by every registered pipeline.
type Service struct {
	config           *Config
	runtime          *Runtime
	runDAO           dao.Service[string, run.Run]
	approvals        approval.Service
	events           *event.Service
	registry         *executor.Registry
	loader           *pipeline.Service
	loaderOptions    []pipeline.Option
	processorOptions []processor.Option
	closers          []io.Closer
	dryRun           bool
}

// New creates a service with in-memory storage unless options say otherwise.
func New(options ...Option) *Service {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	ret.init()
	return ret
}

// NewFromConfig creates a service backed by the store and tracing settings of config.
func NewFromConfig(config *Config, options ...Option) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var closers []io.Closer
	base := []Option{WithConfig(config)}
	switch config.Store.Kind {
	case StoreFS:
		runDAO, err := rfs.New(config.Store.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create fs run store: %w", err)
		}
		base = append(base, WithRunDAO(runDAO))
	case StoreSQLite:
		runDAO, err := rsqlite.Open(config.Store.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite run store: %w", err)
		}
		closers = append(closers, runDAO)
		base = append(base, WithRunDAO(runDAO))
	}
	if config.Tracing.Enabled {
		if err := tracing.Init(config.Tracing.ServiceName, Version, config.Tracing.OutputFile); err != nil {
			return nil, fmt.Errorf("failed to init tracing: %w", err)
		}
	}
	if config.DryRun {
		base = append(base, WithDryRun())
	}
	ret := New(append(base, options...)...)
	ret.closers = append(ret.closers, closers...)
	return ret, nil
}

func (s *Service) init() {
	if s.config == nil {
		s.config = DefaultConfig()
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
	if s.registry == nil {
		s.registry = builtin.NewRegistry(s.config.executorEnvironment())
	}
	if s.dryRun {
		s.registry.WithOverride(static.Kind)
	}
	if s.loader == nil {
		s.loader = pipeline.New(s.loaderOptions...)
	}
	s.runtime = newRuntime(s)
}

// Runtime returns the runtime façade.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// Policy returns the configured checkpoint policy, or nil.
func (s *Service) Policy() *policy.Policy {
	return policy.FromConfig(s.config.Checkpoint.Policy)
}

// Close releases store resources.
func (s *Service) Close() error {
	var ret error
	for _, closer := range s.closers {
		if err := closer.Close(); err != nil && ret == nil {
			ret = err
		}
	}
	s.events.Close()
	return ret
}
