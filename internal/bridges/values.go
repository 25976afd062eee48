package bridges

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aescanero/dago-template-bridge/internal/bridge"
)

// rawSuffix marks variables that already hold markup
const rawSuffix = "_html"

// rows returns v as block rows. Decoded JSON arrays of objects count too.
func rows(v any) ([]map[string]any, bool) {
	switch list := v.(type) {
	case []map[string]any:
		return list, true
	case []any:
		if len(list) == 0 {
			return nil, false
		}
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			row, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, row)
		}
		return out, true
	}
	return nil, false
}

// value prepares a bag entry for the engine: top level strings are escaped
// unless the key ends in _html. Nested strings are escaped by the renderer.
func value(key string, v any) any {
	s, ok := v.(string)
	if !ok || strings.HasSuffix(key, rawSuffix) {
		return v
	}
	return bridge.Escape(s)
}

func values(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for key, v := range row {
		out[key] = value(key, v)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// toInt converts the numeric shapes found in bags built from Go code, JSON
// and command line flags
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case string:
		if strings.TrimSpace(n) == "" {
			return 0, nil
		}
		return strconv.Atoi(strings.TrimSpace(n))
	}
	return 0, fmt.Errorf("unsupported number type %T", v)
}

// toStrings flattens a string or a list into strings, dropping nils
func toStrings(v any) []string {
	switch list := v.(type) {
	case nil:
		return nil
	case string:
		return []string{list}
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	case error:
		return []string{list.Error()}
	}
	return []string{fmt.Sprint(v)}
}

func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
