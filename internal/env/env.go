// Package env converts between os.Environ-style assignments and maps, and
// parses the boolean FWHOOK_* overrides.
package env

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"
)

const keyValueParts = 2 // Number of parts in a key=value pair.

// ToMap parses KEY=value assignments into a map, skipping malformed items.
func ToMap(assignments []string) map[string]string {
	return lo.FromPairs(lo.FilterMap(assignments, func(item string, _ int) (lo.Entry[string, string], bool) {
		parts := strings.SplitN(item, "=", keyValueParts)
		if len(parts) != keyValueParts {
			return lo.Entry[string, string]{}, false
		}

		return lo.Entry[string, string]{Key: parts[0], Value: parts[1]}, true
	}))
}

// ToAssignments renders the map as KEY=value pairs sorted by key.
func ToAssignments(envMap map[string]string) []string {
	return lo.Map(slices.Sorted(maps.Keys(envMap)), func(k string, _ int) string {
		return k + "=" + envMap[k]
	})
}

// Merge returns a new map holding every entry of the given maps. Later maps
// win on key collisions.
func Merge(envMaps ...map[string]string) map[string]string {
	return lo.Assign(envMaps...)
}

// ErrInvalidBool is returned when a string cannot be parsed as a boolean.
var ErrInvalidBool = errors.New("invalid boolean value")

// ParseBool interprets a string as a boolean, case-insensitively and after
// trimming whitespace. "true", "yes" and "1" are true; "false", "no", "0"
// and the empty string are false; anything else is ErrInvalidBool.
func ParseBool(value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}

	switch strings.ToLower(value) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidBool, value)
	}
}

// LookupBool reads envVar and parses it with ParseBool. The second result
// is false when the variable is unset, empty, or invalid.
func LookupBool(envVar string) (bool, bool) {
	raw, ok := os.LookupEnv(envVar)
	if !ok || strings.TrimSpace(raw) == "" {
		return false, false
	}
	v, err := ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
