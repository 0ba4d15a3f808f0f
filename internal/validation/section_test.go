package validation

import (
	"testing"

	"mdm-backend/internal/rules"
)

func intPtr(n int) *int { return &n }

func addressData(n int) map[string]any {
	section := make([]any, n)
	for i := range section {
		section[i] = map[string]any{"street": "Main St"}
	}
	return map[string]any{"addresses": section}
}

func TestExecuteSectionRule_MinimumMet(t *testing.T) {
	rule := &rules.SectionRule{
		RuleCode: "SEC_ADDR_MIN", SectionName: "addresses", SectionLabel: "Addresses",
		MinimumCount: 1, BlockSubmission: true,
	}
	if result := executeSectionRule(rule, addressData(2)); !result.Valid {
		t.Fatalf("two addresses satisfy a minimum of one: %v", result)
	}
}

func TestExecuteSectionRule_MinimumViolated(t *testing.T) {
	rule := &rules.SectionRule{
		RuleCode: "SEC_ADDR_MIN", SectionName: "addresses", SectionLabel: "Addresses",
		MinimumCount:    1,
		MinErrorMessage: "{sectionLabel} requires at least {minimumCount} record(s), but has {actualCount}",
		BlockSubmission: true,
	}
	result := executeSectionRule(rule, map[string]any{})
	if result.Valid {
		t.Fatal("empty collection should fail")
	}
	want := "Addresses requires at least 1 record(s), but has 0"
	if result.Message != want {
		t.Fatalf("got %q, want %q", result.Message, want)
	}
	if result.Severity != rules.SeverityError || !result.Block {
		t.Fatalf("blocking minimum should be an error: %+v", result)
	}
}

func TestExecuteSectionRule_NonBlockingMinimumIsWarning(t *testing.T) {
	rule := &rules.SectionRule{
		RuleCode: "SEC", SectionName: "addresses", SectionLabel: "Addresses",
		MinimumCount: 1,
	}
	result := executeSectionRule(rule, map[string]any{})
	if result.Valid {
		t.Fatal("expected failure")
	}
	if result.Severity != rules.SeverityWarning {
		t.Fatalf("non-blocking minimum should warn, got %s", result.Severity)
	}
}

func TestExecuteSectionRule_Maximum(t *testing.T) {
	rule := &rules.SectionRule{
		RuleCode: "SEC_BANK_MAX", SectionName: "banks", SectionLabel: "Bank Accounts",
		MaximumCount: intPtr(2),
	}
	data := map[string]any{"banks": []any{
		map[string]any{}, map[string]any{}, map[string]any{},
	}}
	result := executeSectionRule(rule, data)
	if result.Valid {
		t.Fatal("three banks should fail a maximum of two")
	}
	want := "Bank Accounts allows maximum 2 record(s), but has 3"
	if result.Message != want {
		t.Fatalf("got %q, want %q", result.Message, want)
	}
	// A maximum breach is always an error, blocking or not.
	if result.Severity != rules.SeverityError {
		t.Fatalf("got severity %s", result.Severity)
	}
}

func TestExecuteSectionRule_FilteredCounts(t *testing.T) {
	filter, err := rules.ParseFilter(`{"isEstablished": true}`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	rule := &rules.SectionRule{
		RuleCode: "SEC_ADDR_EST", SectionName: "addresses", SectionLabel: "Established Addresses",
		MinimumCount:    1,
		MinErrorMessage: "{sectionLabel}: {actualCount} of {totalCount} qualify",
		Filter:          filter,
	}

	data := map[string]any{"addresses": []any{
		map[string]any{"isEstablished": false},
		map[string]any{"isEstablished": false},
	}}
	result := executeSectionRule(rule, data)
	if result.Valid {
		t.Fatal("no established address should fail")
	}
	want := "Established Addresses: 0 of 2 qualify"
	if result.Message != want {
		t.Fatalf("got %q, want %q", result.Message, want)
	}

	data = map[string]any{"addresses": []any{
		map[string]any{"isEstablished": true},
		map[string]any{"isEstablished": false},
	}}
	if result := executeSectionRule(rule, data); !result.Valid {
		t.Fatalf("one established address should pass: %v", result)
	}
}

func TestExecuteSectionRule_ZeroMinimumNeverFires(t *testing.T) {
	rule := &rules.SectionRule{
		RuleCode: "SEC", SectionName: "banks", SectionLabel: "Bank Accounts",
		MinimumCount: 0, MaximumCount: intPtr(10),
	}
	if result := executeSectionRule(rule, map[string]any{}); !result.Valid {
		t.Fatalf("zero minimum with empty collection should pass: %v", result)
	}
}
