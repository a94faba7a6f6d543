package model

import (
	"fmt"
	"sort"
	"time"
)

// Pipeline is an ordered, strictly sequential list of tasks.
type Pipeline struct {
	Source      *Source             `json:"source,omitempty" yaml:"source,omitempty"`
	Name        string              `json:"name" yaml:"name"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string              `json:"version,omitempty" yaml:"version,omitempty"`
	Executors   map[string]*Profile `json:"executors" yaml:"executors"`
	Tasks       []*Task             `json:"tasks" yaml:"tasks"`
	Handoff     *Handoff            `json:"handoff,omitempty" yaml:"handoff,omitempty"`
}

// Source describes where a pipeline definition was loaded from.
type Source struct {
	URL      string    `json:"url,omitempty" yaml:"url,omitempty"`
	Modified time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
}

// Handoff designates the terminal downstream invocation. Fields left empty
// fall back to the process configuration.
type Handoff struct {
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
	BearerToken string `json:"bearerToken,omitempty" yaml:"bearerToken,omitempty"`
	SecretURL   string `json:"secretURL,omitempty" yaml:"secretURL,omitempty"`
	SecretKey   string `json:"secretKey,omitempty" yaml:"secretKey,omitempty"`
	Timeout     string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// NewPipeline creates an empty pipeline.
func NewPipeline(name string) *Pipeline {
	return &Pipeline{Name: name, Executors: map[string]*Profile{}}
}

// WithExecutor registers an executor profile under name.
func (p *Pipeline) WithExecutor(name string, profile *Profile) *Pipeline {
	if p.Executors == nil {
		p.Executors = map[string]*Profile{}
	}
	profile.Name = name
	p.Executors[name] = profile
	return p
}

// NewTask appends a task bound to executor and returns it for further configuration.
func (p *Pipeline) NewTask(id, executor string) *Task {
	task := &Task{ID: id, Executor: executor}
	p.Tasks = append(p.Tasks, task)
	return task
}

// Task returns the task with id and its ordinal position, or -1.
func (p *Pipeline) Task(id string) (*Task, int) {
	for i, task := range p.Tasks {
		if task.ID == id {
			return task, i
		}
	}
	return nil, -1
}

// Checkpoints returns ids of tasks requiring human approval, in order.
func (p *Pipeline) Checkpoints() []string {
	var ret []string
	for _, task := range p.Tasks {
		if task.HumanApproval {
			ret = append(ret, task.ID)
		}
	}
	return ret
}

// Validate performs a structural validation. The returned slice is empty
// when the pipeline is sound.
func (p *Pipeline) Validate() []error {
	var issues []error
	if p.Name == "" {
		issues = append(issues, fmt.Errorf("pipeline name is empty"))
	}
	if len(p.Tasks) == 0 {
		issues = append(issues, fmt.Errorf("pipeline has no tasks"))
	}
	seen := map[string]bool{}
	for i, task := range p.Tasks {
		if task == nil {
			issues = append(issues, fmt.Errorf("task #%d is nil", i))
			continue
		}
		if task.ID == "" {
			issues = append(issues, fmt.Errorf("task #%d has empty id", i))
		} else if seen[task.ID] {
			issues = append(issues, fmt.Errorf("duplicate task id %s", task.ID))
		}
		seen[task.ID] = true
		if _, ok := p.Executors[task.Executor]; !ok {
			issues = append(issues, fmt.Errorf("task %s references unknown executor %q", task.ID, task.Executor))
		}
	}
	names := make([]string, 0, len(p.Executors))
	for name := range p.Executors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		profile := p.Executors[name]
		if profile == nil {
			issues = append(issues, fmt.Errorf("executor %s has no profile", name))
			continue
		}
		if profile.Name == "" {
			profile.Name = name
		}
		issues = append(issues, profile.Validate()...)
	}
	if p.Handoff != nil && p.Handoff.Timeout != "" {
		if _, err := time.ParseDuration(p.Handoff.Timeout); err != nil {
			issues = append(issues, fmt.Errorf("handoff timeout: %w", err))
		}
	}
	return issues
}

// Clone returns a deep copy of the pipeline.
func (p *Pipeline) Clone() *Pipeline {
	ret := *p
	ret.Executors = make(map[string]*Profile, len(p.Executors))
	for name, profile := range p.Executors {
		if profile != nil {
			ret.Executors[name] = profile.Clone()
		}
	}
	ret.Tasks = make([]*Task, 0, len(p.Tasks))
	for _, task := range p.Tasks {
		if task != nil {
			clone := *task
			ret.Tasks = append(ret.Tasks, &clone)
		}
	}
	if p.Handoff != nil {
		handoff := *p.Handoff
		ret.Handoff = &handoff
	}
	return &ret
}
