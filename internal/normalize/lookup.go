package normalize

import (
	"strconv"
	"strings"
)

/********** tiny helpers over the raw payload **********/

// lookupAny: safe nested lookup with dot paths on maps. An intermediate
// array is entered through its first element: the vendor serializes many
// singleton lists as arrays.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		if arr, ok := cur.([]any); ok && len(arr) > 0 {
			cur = arr[0]
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupMap returns the map at path or nil.
func lookupMap(m map[string]any, path string) map[string]any {
	if v, ok := lookupAny(m, path).(map[string]any); ok {
		return v
	}
	return nil
}

// lookupSlice returns the []any at path or nil. A single object at the path
// is wrapped into a one-element slice: the vendor flattens singleton lists.
func lookupSlice(m map[string]any, path string) []any {
	switch v := lookupAny(m, path).(type) {
	case []any:
		return v
	case map[string]any:
		return []any{v}
	default:
		return nil
	}
}

// scalar unwraps the vendor's {"value": x} envelope, returning x (or the
// input unchanged when it is already a bare scalar).
func scalar(v any) any {
	if obj, ok := v.(map[string]any); ok {
		if inner, ok := obj["value"]; ok {
			return inner
		}
	}
	return v
}

// lookupStr returns the string at path, unwrapping a {"value": ...} envelope.
func lookupStr(m map[string]any, path string) string {
	if s, ok := scalar(lookupAny(m, path)).(string); ok {
		return s
	}
	return ""
}

// firstStr returns the first non-empty string among several paths.
func firstStr(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// floatFlexible: number from several paths (float64/int/string like "8,0"),
// unwrapping value envelopes.
func floatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := scalar(lookupAny(m, k)).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// refStrings accepts the vendor's many ways of writing a reference list:
// a bare string (possibly whitespace-separated keys), a {"value": ...}
// envelope, a {"ref": ...} object, or an array of any of those.
func refStrings(v any) []string {
	var out []string
	var walk func(any)
	walk = func(x any) {
		switch t := x.(type) {
		case string:
			for _, f := range strings.Fields(t) {
				out = append(out, f)
			}
		case []any:
			for _, it := range t {
				walk(it)
			}
		case map[string]any:
			if inner, ok := t["value"]; ok {
				walk(inner)
				return
			}
			if inner, ok := t["ref"]; ok {
				walk(inner)
				return
			}
		}
	}
	walk(v)
	return out
}

// refsAt collects reference strings found at the first non-empty path.
func refsAt(m map[string]any, paths ...string) []string {
	for _, p := range paths {
		if rs := refStrings(lookupAny(m, p)); len(rs) > 0 {
			return rs
		}
	}
	return nil
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptrF64(f float64) *float64 { return &f }
