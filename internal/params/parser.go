package params

import (
	"fmt"
	"strings"
)

// ParseKeyValuePairs converts a slice of "key=value" strings into a map.
// Keys are trimmed; values are kept verbatim so they may contain '='.
//
// Example:
//
//	params, err := ParseKeyValuePairs([]string{"store.driver=sqlite", "resolve.parallelism=2"})
func ParseKeyValuePairs(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("parameter %q is not in key=value format (example: --param store.driver=sqlite)", pair)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("parameter has empty key: %q", pair)
		}

		result[key] = value
	}

	return result, nil
}

// Merge layers parameter maps; keys in later maps override earlier ones.
func Merge(layers ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			result[k] = v
		}
	}
	return result
}
