package executor

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viant/crewflow/model"
	"github.com/viant/crewflow/service/executor/tool"
)

// Provider holds endpoint settings of one LLM provider.
type Provider struct {
	APIKey    string `json:"apiKey,omitempty" yaml:"apiKey,omitempty" mapstructure:"apiKey"`
	BaseURL   string `json:"baseURL,omitempty" yaml:"baseURL,omitempty" mapstructure:"baseURL"`
	MaxTokens int    `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty" mapstructure:"maxTokens"`
}

// Environment carries what builders need beyond the profile itself.
type Environment struct {
	Providers map[string]*Provider
	Tools     *tool.Registry
}

// Provider returns settings for name, never nil.
func (e *Environment) Provider(name string) *Provider {
	if e != nil && e.Providers != nil {
		if ret, ok := e.Providers[name]; ok && ret != nil {
			return ret
		}
	}
	return &Provider{}
}

// Builder creates an executor for a profile.
type Builder func(profile *model.Profile, env *Environment) (Executor, error)

// Registry maps variant tags to builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
	env      *Environment
	override string
}

// NewRegistry creates an empty registry bound to env.
func NewRegistry(env *Environment) *Registry {
	if env == nil {
		env = &Environment{}
	}
	if env.Tools == nil {
		env.Tools = tool.NewRegistry()
	}
	return &Registry{builders: map[string]Builder{}, env: env}
}

// Register binds kind to builder.
func (r *Registry) Register(kind string, builder Builder) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[kind] = builder
	return r
}

// Kinds returns registered variant tags.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.builders))
	for kind := range r.builders {
		ret = append(ret, kind)
	}
	sort.Strings(ret)
	return ret
}

// WithOverride forces every profile onto kind, e.g. "static" for dry runs.
func (r *Registry) WithOverride(kind string) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.override = kind
	return r
}

// Environment returns the builder environment.
func (r *Registry) Environment() *Environment { return r.env }

// Build resolves the profile variant and its tools.
func (r *Registry) Build(profile *model.Profile) (Executor, error) {
	kind := profile.Variant()
	r.mu.RLock()
	if r.override != "" {
		kind = r.override
	}
	builder, ok := r.builders[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("executor %s: %w %q (known: %s)", profile.Name, ErrUnknownKind, kind, strings.Join(r.Kinds(), ", "))
	}
	if _, err := r.env.Tools.Resolve(profile.Tools); err != nil {
		return nil, fmt.Errorf("executor %s: %w", profile.Name, err)
	}
	return builder(profile, r.env)
}

// BuildAll builds executors for every profile of a pipeline, collecting
// all failures into a ConfigurationError.
func (r *Registry) BuildAll(pipeline *model.Pipeline) (map[string]Executor, error) {
	names := make([]string, 0, len(pipeline.Executors))
	for name := range pipeline.Executors {
		names = append(names, name)
	}
	sort.Strings(names)
	ret := make(map[string]Executor, len(names))
	var issues []error
	for _, name := range names {
		profile := pipeline.Executors[name]
		if profile.Name == "" {
			profile.Name = name
		}
		anExecutor, err := r.Build(profile)
		if err != nil {
			issues = append(issues, err)
			continue
		}
		ret[name] = anExecutor
	}
	if len(issues) > 0 {
		return nil, model.NewConfigurationError(pipeline.Name, issues...)
	}
	return ret, nil
}
