// Package tool holds the capabilities an executor may call during its
// reasoning loop, addressed by the ids listed in a profile's tool set.
package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Call carries the arguments of one tool invocation and the run context it happens in.
type Call struct {
	RunID  string
	TaskID string
	Args   map[string]interface{}
	// Prior maps completed task ids to their recorded output.
	Prior map[string]string
}

// Tool is a capability exposed to an executor.
type Tool interface {
	Name() string
	Description() string
	// Schema returns the JSON schema properties and required argument names.
	Schema() (properties map[string]interface{}, required []string)
	Call(ctx context.Context, call *Call) (string, error)
}

// Registry resolves tool ids.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a registry pre-populated with the built-in tools.
func NewRegistry() *Registry {
	ret := &Registry{tools: map[string]Tool{}}
	ret.Register(NewCurrentDate())
	ret.Register(NewPriorOutput())
	return ret
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Resolve returns tools for ids in order, failing on the first unknown id.
func (r *Registry) Resolve(ids []string) ([]Tool, error) {
	ret := make([]Tool, 0, len(ids))
	for _, id := range ids {
		t, ok := r.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", id)
		}
		ret = append(ret, t)
	}
	return ret, nil
}

// Names returns the sorted registered tool ids.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.tools))
	for name := range r.tools {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}
