package dao

// Run fields that List parameters can filter on.
const (
	FieldPipeline = "Pipeline"
	FieldState    = "State"
	FieldReplayOf = "ReplayOf"
)

// Parameter is a list filter matched against an entity field. Value is
// either a string (equality) or a []string (any of).
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a filter on field name; several values match any of them.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// ByPipeline keeps runs of the named pipeline.
func ByPipeline(name string) *Parameter {
	return NewParameter(FieldPipeline, name)
}

// ByState keeps runs in any of states.
func ByState(states ...string) *Parameter {
	return NewParameter(FieldState, states...)
}
