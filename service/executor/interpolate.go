package executor

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/viant/toolbox"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_.]*)\}`)

// Interpolate replaces {key} and {key.sub} placeholders with input values.
// Unknown keys are left untouched.
func Interpolate(text string, inputs map[string]interface{}) string {
	if len(inputs) == 0 || !strings.Contains(text, "{") {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		key := match[1 : len(match)-1]
		value, ok := lookup(inputs, key)
		if !ok {
			return match
		}
		return Render(value)
	})
}

func lookup(inputs map[string]interface{}, key string) (interface{}, bool) {
	var current interface{} = inputs
	for _, part := range strings.Split(key, ".") {
		aMap, ok := current.(map[string]interface{})
		if !ok {
			if !toolbox.IsMap(current) {
				return nil, false
			}
			aMap = toolbox.AsMap(current)
		}
		if current, ok = aMap[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

// Render formats a value for inclusion in a prompt: scalars as text,
// composites as indented JSON.
func Render(value interface{}) string {
	switch actual := value.(type) {
	case nil:
		return ""
	case string:
		return actual
	}
	if toolbox.IsMap(value) || toolbox.IsSlice(value) || toolbox.IsStruct(value) {
		if data, err := json.MarshalIndent(value, "", "  "); err == nil {
			return string(data)
		}
	}
	return toolbox.AsString(value)
}
