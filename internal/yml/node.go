package yml

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type (
	Node yaml.Node
)

// Root returns the first content node of a document, or n itself.
func (n *Node) Root() *Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return (*Node)(n.Content[0])
	}
	return n
}

func (n *Node) Items(callback func(index int, node *Node) error) error {
	for i := 0; i < len(n.Content); i++ {
		if err := callback(i, (*Node)(n.Content[i])); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) Pairs(callback func(key string, node *Node) error) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := callback(n.Content[i].Value, (*Node)(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// Rewrite applies fn to every string scalar value under n. Mapping keys
// are left untouched.
func (n *Node) Rewrite(fn func(value string) string) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!str" || n.Tag == "" {
			n.Value = fn(n.Value)
		}
	case yaml.MappingNode:
		for i := 1; i < len(n.Content); i += 2 {
			(*Node)(n.Content[i]).Rewrite(fn)
		}
	default:
		for _, child := range n.Content {
			(*Node)(child).Rewrite(fn)
		}
	}
}

// Strings returns a scalar or sequence node as a string slice.
func (n *Node) Strings() []string {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			return nil
		}
		return []string{n.Value}
	case yaml.SequenceNode:
		ret := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			ret = append(ret, item.Value)
		}
		return ret
	}
	return nil
}

func (n *Node) Interface() interface{} {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!bool":
			return parseBool(n.Value)
		case "!!null":
			return nil
		case "!!float":
			return parseFloat(n.Value)
		case "!!int":
			return parseInt(n.Value)
		default:
			return n.Value
		}
	case yaml.MappingNode:
		var aMap = make(map[string]interface{})
		for i := 0; i+1 < len(n.Content); i += 2 {
			aMap[n.Content[i].Value] = (*Node)(n.Content[i+1]).Interface()
		}
		return aMap
	case yaml.SequenceNode:
		var aSlice = make([]interface{}, 0, len(n.Content))
		for i := 0; i < len(n.Content); i++ {
			aSlice = append(aSlice, (*Node)(n.Content[i]).Interface())
		}
		return aSlice
	}
	return nil
}

func parseBool(value string) bool {
	return strings.ToLower(value) == "true"
}

func parseFloat(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0.0
	}
	return f
}

func parseInt(value string) int {
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return i
}
