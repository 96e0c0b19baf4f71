package notify

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Variables is the rendering context of notification templates.
// Nested values (form_data) are reached with dotted paths.
type Variables map[string]interface{}

// With returns a copy of vars with key set to value
func (vars Variables) With(key string, value interface{}) Variables {
	n := make(Variables, len(vars)+1)
	for k, v := range vars {
		n[k] = v
	}
	n[key] = value
	return n
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Render replaces every {{name}} placeholder with the value of name in vars.
// Missing variables render as the empty string, Render never fails.
func Render(template string, vars Variables) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(placeholder string) string {
		name := placeholderPattern.FindStringSubmatch(placeholder)[1]
		v, ok := LookupPath(vars, name)
		if !ok {
			return ""
		}
		return stringify(v)
	})
}

// LookupPath reads a value by key, falling back to a dotted path walking nested maps and
// slices (numeric segments index slices). It reports false instead of failing on any gap.
func LookupPath(data map[string]interface{}, path string) (interface{}, bool) {
	if data == nil || path == "" {
		return nil, false
	}
	if v, ok := data[path]; ok {
		return v, true
	}
	if !strings.Contains(path, ".") {
		return nil, false
	}

	var current interface{} = data
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			v, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = v
		case Variables:
			v, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = v
		case map[string]string:
			v, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = v
		case []interface{}:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case UserID:
		return string(val)
	case fmt.Stringer:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
