package display

import (
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
)

// Value is the result of pulling a field out of a payload. When Sentinel is
// set the extraction did not produce a value and Raw is meaningless.
type Value struct {
	Raw      any
	Sentinel string
}

func (v Value) Missing() bool { return v.Sentinel != "" }

func noData() Value       { return Value{Sentinel: dto.SentinelNoData} }
func notAvailable() Value { return Value{Sentinel: dto.SentinelNotAvailable} }

// Extract resolves dataKey against payload. A dotted key walks objects by
// property and arrays by index. A key starting with "$." or "$[" is a JSONPath
// expression; when it matches nothing the key is walked as a dotted path, so
// property names that begin with "$" still resolve. With no key the top-level
// "value" property is used.
func Extract(payload any, dataKey string) Value {
	if empty(payload) {
		return noData()
	}

	switch {
	case dataKey == "":
		obj, ok := payload.(map[string]any)
		if !ok || empty(obj["value"]) {
			return noData()
		}
		return Value{Raw: obj["value"]}
	case isJSONPath(dataKey):
		if v := extractPath(payload, dataKey); !v.Missing() {
			return v
		}
		return walk(payload, strings.Split(dataKey, "."))
	default:
		return walk(payload, strings.Split(dataKey, "."))
	}
}

func walk(cur any, keys []string) Value {
	for _, key := range keys {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return notAvailable()
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return notAvailable()
			}
			cur = node[i]
		default:
			return notAvailable()
		}
	}
	if cur == nil {
		return notAvailable()
	}
	return Value{Raw: cur}
}

func extractPath(payload any, expr string) Value {
	res, err := jsonpath.Get(expr, payload)
	if err != nil {
		return notAvailable()
	}
	// wildcard and filter expressions yield a list; show its first match
	if list, ok := res.([]any); ok && isMultiMatch(expr) {
		if len(list) == 0 {
			return notAvailable()
		}
		res = list[0]
	}
	if res == nil {
		return notAvailable()
	}
	return Value{Raw: res}
}

func isJSONPath(key string) bool {
	return key == "$" || strings.HasPrefix(key, "$.") || strings.HasPrefix(key, "$[")
}

func isMultiMatch(expr string) bool {
	return strings.Contains(expr, "*") || strings.Contains(expr, "..") ||
		strings.Contains(expr, "?(") || strings.Contains(expr, ":")
}

// empty mirrors the dashboard's notion of "nothing to show".
func empty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	default:
		return false
	}
}
