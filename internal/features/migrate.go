package features

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Migrate drops persisted keys that are no longer part of defaults, such as
// KeyAdminConsole. It returns the cleaned data and the dropped keys in sorted
// order. It is idempotent and safe to run on every load: a second pass over
// its own output drops nothing.
func Migrate(raw map[string]json.RawMessage, defaults Set) (map[string]json.RawMessage, []string) {
	cleaned := make(map[string]json.RawMessage, len(raw))
	var dropped []string
	for k, v := range raw {
		if _, ok := defaults[k]; !ok {
			dropped = append(dropped, k)
			continue
		}
		cleaned[k] = v
	}
	sort.Strings(dropped)
	return cleaned, dropped
}

// merge overlays persisted entries onto defaults field by field. Keys absent
// from defaults are expected to be removed by Migrate beforehand and are
// ignored here.
func merge(defaults Set, raw map[string]json.RawMessage) Set {
	merged := defaults.Clone()
	for k, v := range raw {
		f, ok := merged[k]
		if !ok {
			continue
		}
		var fields map[string]interface{}
		if err := json.Unmarshal(v, &fields); err != nil || fields == nil {
			continue
		}
		if name, ok := fields["name"].(string); ok && name != "" {
			f.Name = name
		}
		if enabled, ok := ParseEnabled(fields["enabled"]); ok {
			f.Enabled = enabled
		}
		merged[k] = f
	}
	return merged
}

// ParseEnabled interprets a decoded JSON value as a flag state. Booleans are
// taken as is, numbers are true when non-zero and strings are parsed with
// strconv.ParseBool. The second result is false when v cannot be interpreted.
func ParseEnabled(v interface{}) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return false, false
		}
		return n != 0, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}
