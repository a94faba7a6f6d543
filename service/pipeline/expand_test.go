package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	testCases := []struct {
		description string
		env         map[string]string
		input       string
		expect      string
	}{
		{description: "no expressions", input: "just a plain string", expect: "just a plain string"},
		{description: "single expression", env: map[string]string{"FOO": "bar"}, input: "value is ${env.FOO}", expect: "value is bar"},
		{description: "multiple expressions", env: map[string]string{"A": "1", "B": "2"}, input: "${env.A}-${env.B}-${env.A}", expect: "1-2-1"},
		{description: "unset variable", input: "unset=${env.NOTSET}-end", expect: "unset=-end"},
		{description: "missing closing brace", env: map[string]string{"X": "x"}, input: "start ${env.X and ${env.Y} end", expect: "start ${env.X and  end"},
		{description: "prefix only", input: "oops ${env.} done", expect: "oops  done"},
	}
	for _, testCase := range testCases {
		lookup := func(key string) string { return testCase.env[key] }
		assert.Equal(t, testCase.expect, expandEnv(testCase.input, lookup), testCase.description)
	}
}
