package criteria

import (
	"github.com/viant/crewflow/service/dao"
)

// Match reports whether the named field values satisfy every parameter.
// Parameters naming a field absent from fields are ignored.
func Match(fields map[string]string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		actual, ok := fields[parameter.Name]
		if !ok {
			continue
		}
		switch expected := parameter.Value.(type) {
		case string:
			if actual != expected {
				return false
			}
		case []string:
			if !contains(expected, actual) {
				return false
			}
		}
	}
	return true
}

func contains(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}
