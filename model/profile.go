package model

import (
	"fmt"
	"strings"
)

const (
	// DefaultMaxIterations matches the iteration cap the validation agents run with.
	DefaultMaxIterations = 25
	// DefaultTemperature is used when a profile leaves temperature unset.
	DefaultTemperature = 0.5
)

// Profile configures the executor (agent) behind one or more tasks.
type Profile struct {
	Name            string   `json:"name,omitempty" yaml:"name,omitempty"`
	Role            string   `json:"role,omitempty" yaml:"role,omitempty"`
	Goal            string   `json:"goal,omitempty" yaml:"goal,omitempty"`
	Backstory       string   `json:"backstory,omitempty" yaml:"backstory,omitempty"`
	Kind            string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Model           string   `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxIterations   int      `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty"`
	AllowDelegation bool     `json:"allowDelegation,omitempty" yaml:"allowDelegation,omitempty"`
	InjectDate      bool     `json:"injectDate,omitempty" yaml:"injectDate,omitempty"`
	Tools           []string `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// Provider returns the model provider prefix, e.g. "openai" for "openai/gpt-4o".
func (p *Profile) Provider() string {
	if index := strings.Index(p.Model, "/"); index != -1 {
		return p.Model[:index]
	}
	return ""
}

// ModelName returns the model identifier without its provider prefix.
func (p *Profile) ModelName() string {
	if index := strings.Index(p.Model, "/"); index != -1 {
		return p.Model[index+1:]
	}
	return p.Model
}

// Variant returns the executor variant tag: explicit Kind, else the model provider.
func (p *Profile) Variant() string {
	if p.Kind != "" {
		return p.Kind
	}
	return p.Provider()
}

// GetTemperature returns the sampling temperature or DefaultTemperature.
func (p *Profile) GetTemperature() float64 {
	if p.Temperature == nil {
		return DefaultTemperature
	}
	return *p.Temperature
}

// GetMaxIterations returns the iteration cap or DefaultMaxIterations.
func (p *Profile) GetMaxIterations() int {
	if p.MaxIterations == 0 {
		return DefaultMaxIterations
	}
	return p.MaxIterations
}

// Validate checks the profile bounds.
func (p *Profile) Validate() []error {
	var issues []error
	if t := p.GetTemperature(); t < 0 || t > 1 {
		issues = append(issues, fmt.Errorf("executor %s: temperature %v outside [0,1]", p.Name, t))
	}
	if p.MaxIterations < 0 {
		issues = append(issues, fmt.Errorf("executor %s: maxIterations must be positive", p.Name))
	}
	if p.Variant() == "" {
		issues = append(issues, fmt.Errorf("executor %s: neither kind nor provider-prefixed model was set", p.Name))
	}
	return issues
}

// Clone returns a deep copy so that callers cannot mutate a built pipeline.
func (p *Profile) Clone() *Profile {
	ret := *p
	if p.Temperature != nil {
		t := *p.Temperature
		ret.Temperature = &t
	}
	ret.Tools = append([]string(nil), p.Tools...)
	return &ret
}

// Temperature is a helper to set Profile.Temperature inline.
func Temperature(v float64) *float64 { return &v }
