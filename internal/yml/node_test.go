package yml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestNode(t *testing.T) {
	var doc yaml.Node
	assert.NoError(t, yaml.Unmarshal([]byte("name: x\ncount: 2\nratio: 0.5\nok: true\ntools: [a, b]\nchild:\n  inner: v\n  list:\n    - {key: w}\n"), &doc))
	root := (*Node)(&doc).Root()
	root.Rewrite(strings.ToUpper)
	assert.Equal(t, map[string]interface{}{
		"name":  "X",
		"count": 2,
		"ratio": 0.5,
		"ok":    true,
		"tools": []interface{}{"A", "B"},
		"child": map[string]interface{}{
			"inner": "V",
			"list":  []interface{}{map[string]interface{}{"key": "W"}},
		},
	}, root.Interface())

	var keys []string
	_ = root.Pairs(func(key string, node *Node) error {
		keys = append(keys, key)
		if key == "tools" {
			assert.Equal(t, []string{"A", "B"}, node.Strings())
		}
		return nil
	})
	assert.Equal(t, []string{"name", "count", "ratio", "ok", "tools", "child"}, keys)
}
