package pipeline

import (
	"strings"
	"unicode"
)

const envPrefix = "${env."

// expandEnv replaces every ${env.KEY} in value with lookup(KEY). Malformed
// expressions are kept literally.
func expandEnv(value string, lookup func(string) string) string {
	if !strings.Contains(value, envPrefix) {
		return value
	}
	var b strings.Builder
	i := 0
	for {
		idx := strings.Index(value[i:], envPrefix)
		if idx < 0 {
			b.WriteString(value[i:])
			break
		}
		b.WriteString(value[i : i+idx])
		startKey := i + idx + len(envPrefix)
		endKey := strings.IndexByte(value[startKey:], '}')
		if endKey < 0 {
			b.WriteString(value[i+idx:])
			break
		}
		key := value[startKey : startKey+endKey]
		if !isEnvKey(key) {
			// keep the prefix literal and rescan what follows it
			b.WriteString(value[i+idx : startKey])
			i = startKey
			continue
		}
		if key != "" {
			b.WriteString(lookup(key))
		}
		i = startKey + endKey + 1
	}
	return b.String()
}

func isEnvKey(key string) bool {
	for _, r := range key {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
