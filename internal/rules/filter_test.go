package rules

import "testing"

func TestParseFilter_Empty(t *testing.T) {
	f, err := ParseFilter("")
	if err != nil {
		t.Fatalf("empty criteria: %v", err)
	}
	if f != nil {
		t.Fatal("empty criteria should produce a nil filter")
	}
	f, err = ParseFilter("   ")
	if err != nil || f != nil {
		t.Fatalf("blank criteria: filter=%v err=%v", f, err)
	}
}

func TestParseFilter_JSON(t *testing.T) {
	f, err := ParseFilter(`{"isEstablished": true, "countryCode": "DE"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	records := []map[string]any{
		{"isEstablished": true, "countryCode": "DE"},
		{"isEstablished": true, "countryCode": "US"},
		{"isEstablished": false, "countryCode": "DE"},
		{"countryCode": "DE"},
	}
	matched := f.Apply(records)
	if len(matched) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matched))
	}
	if matched[0]["countryCode"] != "DE" || matched[0]["isEstablished"] != true {
		t.Fatalf("wrong record matched: %v", matched[0])
	}
}

func TestParseFilter_KeyValuePairs(t *testing.T) {
	f, err := ParseFilter("isEstablished=true, countryCode=DE")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	records := []map[string]any{
		{"isEstablished": true, "countryCode": "DE"},
		{"isEstablished": false, "countryCode": "DE"},
	}
	matched := f.Apply(records)
	if len(matched) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matched))
	}
}

func TestParseFilter_Expression(t *testing.T) {
	f, err := ParseFilter(`expr: isEstablished && countryCode == "DE"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	records := []map[string]any{
		{"isEstablished": true, "countryCode": "DE"},
		{"isEstablished": true, "countryCode": "US"},
		{"isEstablished": false, "countryCode": "DE"},
	}
	matched := f.Apply(records)
	if len(matched) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matched))
	}
}

func TestParseFilter_ExpressionCompileError(t *testing.T) {
	if _, err := ParseFilter("expr: &&& nonsense ((("); err == nil {
		t.Fatal("expected compile error for malformed expression")
	}
}

func TestParseFilter_Malformed(t *testing.T) {
	for _, raw := range []string{"not a filter", "{broken json", "=,="} {
		if _, err := ParseFilter(raw); err == nil {
			t.Fatalf("criteria %q: expected error", raw)
		}
	}
}

func TestFilter_NilPassesEverything(t *testing.T) {
	var f *Filter
	records := []map[string]any{{"a": 1}, {"b": 2}}
	if got := f.Apply(records); len(got) != 2 {
		t.Fatalf("nil filter should pass all records, got %d", len(got))
	}
}

func TestFilter_NumericJSONComparison(t *testing.T) {
	// JSON numbers decode as float64; record values built in Go are often
	// plain ints. Both must match.
	f, err := ParseFilter(`{"rank": 1}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	records := []map[string]any{
		{"rank": float64(1)},
		{"rank": 1},
		{"rank": 2},
	}
	if got := f.Apply(records); len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
}

func TestFilter_CompositeValuesNeverMatch(t *testing.T) {
	f, err := ParseFilter(`{"tags": "a"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	records := []map[string]any{
		{"tags": []any{"a"}},
		{"tags": map[string]any{"a": true}},
	}
	if got := f.Apply(records); len(got) != 0 {
		t.Fatalf("composite field values should never match, got %d", len(got))
	}
}
