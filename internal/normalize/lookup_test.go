package normalize

import (
	"reflect"
	"testing"
)

func TestLookupAny(t *testing.T) {
	m := map[string]any{
		"a": map[string]any{
			"b": map[string]any{"c": "deep"},
		},
		"list": []any{
			map[string]any{"first": "entry"},
			map[string]any{"first": "shadowed"},
		},
	}
	if got := lookupAny(m, "a.b.c"); got != "deep" {
		t.Fatalf("dot path: %v", got)
	}
	if got := lookupAny(m, "a.missing.c"); got != nil {
		t.Fatalf("missing: %v", got)
	}
	// Intermediate arrays are entered through their first element.
	if got := lookupAny(m, "list.first"); got != "entry" {
		t.Fatalf("array step: %v", got)
	}
	if got := lookupAny(nil, "a.b"); got != nil {
		t.Fatalf("nil map: %v", got)
	}
}

func TestScalarEnvelope(t *testing.T) {
	if got := scalar(map[string]any{"value": "X"}); got != "X" {
		t.Fatalf("envelope: %v", got)
	}
	if got := scalar("bare"); got != "bare" {
		t.Fatalf("bare: %v", got)
	}
	if got := scalar(map[string]any{"other": 1}); !reflect.DeepEqual(got, map[string]any{"other": 1}) {
		t.Fatalf("non-envelope map: %v", got)
	}
}

func TestLookupSlice_WrapsSingleton(t *testing.T) {
	m := map[string]any{
		"one":  map[string]any{"k": 1},
		"many": []any{1, 2},
	}
	if got := lookupSlice(m, "one"); len(got) != 1 {
		t.Fatalf("singleton wrap: %v", got)
	}
	if got := lookupSlice(m, "many"); len(got) != 2 {
		t.Fatalf("passthrough: %v", got)
	}
	if got := lookupSlice(m, "absent"); got != nil {
		t.Fatalf("absent: %v", got)
	}
}

func TestFloatFlexible(t *testing.T) {
	m := map[string]any{
		"f":       1.5,
		"env":     map[string]any{"value": 2.5},
		"str":     "3,75",
		"bad":     "soon",
		"blank":   "  ",
		"nested":  map[string]any{"deep": "4.25"},
	}
	check := func(paths []string, want float64) {
		t.Helper()
		got := floatFlexible(m, paths...)
		if got == nil || *got != want {
			t.Fatalf("floatFlexible(%v) = %v want %v", paths, got, want)
		}
	}
	check([]string{"f"}, 1.5)
	check([]string{"env"}, 2.5)
	check([]string{"str"}, 3.75) // comma decimal separator
	check([]string{"nested.deep"}, 4.25)
	check([]string{"missing", "f"}, 1.5)
	if got := floatFlexible(m, "bad", "blank", "missing"); got != nil {
		t.Fatalf("unparsable: %v", *got)
	}
}

func TestRefStrings(t *testing.T) {
	cases := []struct {
		in   any
		want []string
	}{
		{"SEG1 SEG2  SEG3", []string{"SEG1", "SEG2", "SEG3"}},
		{map[string]any{"value": "SEG1 SEG2"}, []string{"SEG1", "SEG2"}},
		{map[string]any{"ref": "FLT1"}, []string{"FLT1"}},
		{[]any{"A", map[string]any{"value": "B C"}, map[string]any{"ref": "D"}}, []string{"A", "B", "C", "D"}},
		{nil, nil},
		{42, nil},
		{map[string]any{"other": "X"}, nil},
	}
	for _, c := range cases {
		if got := refStrings(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("refStrings(%v) = %v want %v", c.in, got, c.want)
		}
	}
}

func TestRefsAt_FirstNonEmptyPath(t *testing.T) {
	m := map[string]any{
		"empty": []any{},
		"hit":   "K1 K2",
		"later": "K9",
	}
	got := refsAt(m, "missing", "empty", "hit", "later")
	if !reflect.DeepEqual(got, []string{"K1", "K2"}) {
		t.Fatalf("refsAt: %v", got)
	}
}
