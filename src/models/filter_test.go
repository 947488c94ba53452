package models

import (
	"encoding/json"
	"testing"
)

func TestParseFilterKind(t *testing.T) {
	kind, err := ParseFilterKind("bounceUp")
	if err != nil || kind != FilterBounceUp {
		t.Errorf("bounceUp: got %v, %v", kind, err)
	}
	if _, err := ParseFilterKind("sideways"); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestFilterKindJSON(t *testing.T) {
	// Filters arrive from the API as JSON with string kinds.
	var f MFilter
	if err := json.Unmarshal([]byte(`{"kind":"lessThan","suffix":"week","level":40}`), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Kind != FilterLessThan || f.Suffix != "week" || f.Level != 40 {
		t.Errorf("decoded filter: %+v", f)
	}

	out, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"kind":"lessThan","suffix":"week","level":40}` {
		t.Errorf("encoded filter: %s", out)
	}

	if err := json.Unmarshal([]byte(`{"kind":"sideways"}`), &f); err == nil {
		t.Error("unknown kind in JSON should fail")
	}
}

func TestFilterKindString(t *testing.T) {
	if FilterTrendDown.String() != "trendDown" {
		t.Errorf("got %q", FilterTrendDown.String())
	}
	if FilterKind(42).String() != "FilterKind(42)" {
		t.Errorf("got %q", FilterKind(42).String())
	}
}
