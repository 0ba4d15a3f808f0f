package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"mdm-backend/internal/rules"
)

// fakeSource serves rules per locale and counts repository reads.
type fakeSource struct {
	fieldRules   map[string][]*rules.FieldRule
	sectionRules map[string][]*rules.SectionRule
	fieldCalls   int
	err          error
}

func (f *fakeSource) FindActiveFieldRules(_ context.Context, locale string) ([]*rules.FieldRule, error) {
	f.fieldCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.fieldRules[locale], nil
}

func (f *fakeSource) FindActiveSectionRules(_ context.Context, locale string) ([]*rules.SectionRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sectionRules[locale], nil
}

func strPtr(s string) *string { return &s }

func TestResolver_FieldRules_ScopeMatching(t *testing.T) {
	source := &fakeSource{fieldRules: map[string][]*rules.FieldRule{
		"en": {
			{RuleCode: "GLOBAL", TargetEntity: "A", TargetField: "x", Kind: rules.KindRequired},
			{RuleCode: "SAP_ONLY", TargetEntity: "A", TargetField: "y", Kind: rules.KindRequired, SourceSystem: strPtr("SAP")},
		},
	}}
	resolver := NewResolver(source, NewCache(time.Minute))

	got, err := resolver.FieldRules(context.Background(), rules.Context{SourceSystem: "Salesforce", Locale: "en"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 1 || got[0].RuleCode != "GLOBAL" {
		t.Fatalf("expected only GLOBAL for Salesforce, got %d rules", len(got))
	}

	got, err = resolver.FieldRules(context.Background(), rules.Context{SourceSystem: "SAP", Locale: "en"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both rules for SAP, got %d", len(got))
	}
}

func TestResolver_FieldRules_SpecificityWinsDedup(t *testing.T) {
	// Same entity/field/kind: the pinned rule must replace the wildcard
	// one, regardless of load order.
	wildcard := &rules.FieldRule{RuleCode: "W", TargetEntity: "A", TargetField: "x", Kind: rules.KindMinLength, Value: "3", Priority: 10}
	pinned := &rules.FieldRule{RuleCode: "P", TargetEntity: "A", TargetField: "x", Kind: rules.KindMinLength, Value: "5", Priority: 10, SourceSystem: strPtr("SAP")}

	for _, ruleSet := range [][]*rules.FieldRule{
		{wildcard, pinned},
		{pinned, wildcard},
	} {
		source := &fakeSource{fieldRules: map[string][]*rules.FieldRule{"en": ruleSet}}
		resolver := NewResolver(source, NewCache(time.Minute))

		got, err := resolver.FieldRules(context.Background(), rules.Context{SourceSystem: "SAP", Locale: "en"})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 rule after dedup, got %d", len(got))
		}
		if got[0].RuleCode != "P" {
			t.Fatalf("expected pinned rule to win, got %s", got[0].RuleCode)
		}
	}
}

func TestResolver_FieldRules_PriorityThenSpecificity(t *testing.T) {
	source := &fakeSource{fieldRules: map[string][]*rules.FieldRule{
		"en": {
			{RuleCode: "LOW_WILD", TargetEntity: "A", TargetField: "x", Kind: rules.KindRequired, Priority: 20},
			{RuleCode: "HIGH", TargetEntity: "A", TargetField: "y", Kind: rules.KindRequired, Priority: 10},
			{RuleCode: "LOW_PINNED", TargetEntity: "A", TargetField: "z", Kind: rules.KindRequired, Priority: 20, Status: strPtr("Draft")},
		},
	}}
	resolver := NewResolver(source, NewCache(time.Minute))

	got, err := resolver.FieldRules(context.Background(), rules.Context{Status: "Draft", Locale: "en"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(got))
	}
	want := []string{"HIGH", "LOW_PINNED", "LOW_WILD"}
	for i, code := range want {
		if got[i].RuleCode != code {
			t.Fatalf("position %d: expected %s, got %s", i, code, got[i].RuleCode)
		}
	}
}

func TestResolver_FieldRules_LocaleFallback(t *testing.T) {
	enRule := &rules.FieldRule{RuleCode: "EN", TargetEntity: "A", TargetField: "x", Kind: rules.KindRequired}
	source := &fakeSource{fieldRules: map[string][]*rules.FieldRule{"en": {enRule}}}
	resolver := NewResolver(source, NewCache(time.Minute))

	// de has no rules at all, so the English set applies.
	got, err := resolver.FieldRules(context.Background(), rules.Context{Locale: "de"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 1 || got[0].RuleCode != "EN" {
		t.Fatalf("expected English fallback, got %d rules", len(got))
	}
}

func TestResolver_FieldRules_GermanSetServedWhenPresent(t *testing.T) {
	source := &fakeSource{fieldRules: map[string][]*rules.FieldRule{
		"en": {{RuleCode: "EN", TargetEntity: "A", TargetField: "x", Kind: rules.KindRequired}},
		"de": {{RuleCode: "DE", TargetEntity: "A", TargetField: "x", Kind: rules.KindRequired}},
	}}
	resolver := NewResolver(source, NewCache(time.Minute))

	got, err := resolver.FieldRules(context.Background(), rules.Context{Locale: "de"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 1 || got[0].RuleCode != "DE" {
		t.Fatalf("expected German rule set, got %v", got)
	}
}

func TestResolver_FieldRules_CacheHitAndInvalidation(t *testing.T) {
	source := &fakeSource{fieldRules: map[string][]*rules.FieldRule{
		"en": {{RuleCode: "R", TargetEntity: "A", TargetField: "x", Kind: rules.KindRequired}},
	}}
	cache := NewCache(time.Minute)
	resolver := NewResolver(source, cache)
	vctx := rules.Context{Status: "Draft", Locale: "en"}

	if _, err := resolver.FieldRules(context.Background(), vctx); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := resolver.FieldRules(context.Background(), vctx); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if source.fieldCalls != 1 {
		t.Fatalf("expected 1 repository read, got %d", source.fieldCalls)
	}

	cache.InvalidateAll()
	if _, err := resolver.FieldRules(context.Background(), vctx); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if source.fieldCalls != 2 {
		t.Fatalf("expected repository re-read after invalidation, got %d calls", source.fieldCalls)
	}
}

func TestResolver_FieldRules_DistinctContextsDistinctEntries(t *testing.T) {
	source := &fakeSource{fieldRules: map[string][]*rules.FieldRule{
		"en": {{RuleCode: "R", TargetEntity: "A", TargetField: "x", Kind: rules.KindRequired}},
	}}
	cache := NewCache(time.Minute)
	resolver := NewResolver(source, cache)

	if _, err := resolver.FieldRules(context.Background(), rules.Context{Status: "Draft", Locale: "en"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := resolver.FieldRules(context.Background(), rules.Context{Status: "Submitted", Locale: "en"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if size, _ := cache.Stats(); size != 2 {
		t.Fatalf("expected 2 cache entries, got %d", size)
	}
}

func TestResolver_FieldRules_SourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("db down")}
	resolver := NewResolver(source, NewCache(time.Minute))
	if _, err := resolver.FieldRules(context.Background(), rules.Context{Locale: "en"}); err == nil {
		t.Fatal("expected error from source")
	}
}

func TestResolver_SectionRules_OrderedNotDeduplicated(t *testing.T) {
	source := &fakeSource{sectionRules: map[string][]*rules.SectionRule{
		"en": {
			{RuleCode: "B", SectionName: "addresses", Priority: 20},
			{RuleCode: "A", SectionName: "addresses", Priority: 10},
			{RuleCode: "SCOPED", SectionName: "addresses", Priority: 5, Status: strPtr("Submitted")},
		},
	}}
	resolver := NewResolver(source, NewCache(time.Minute))

	got, err := resolver.SectionRules(context.Background(), rules.Context{Status: "Draft", Locale: "en"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Two rules on the same section both survive; the Submitted-only rule
	// is filtered out.
	if len(got) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(got))
	}
	if got[0].RuleCode != "A" || got[1].RuleCode != "B" {
		t.Fatalf("wrong order: %s, %s", got[0].RuleCode, got[1].RuleCode)
	}
}

func TestCache_Expiry(t *testing.T) {
	cache := NewCache(time.Millisecond)
	cache.Set("k", []*rules.FieldRule{{RuleCode: "R"}})
	time.Sleep(5 * time.Millisecond)
	if _, ok := cache.Get("k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestCache_DefaultTTL(t *testing.T) {
	cache := NewCache(0)
	if cache.ttl != DefaultCacheTTL {
		t.Fatalf("expected default TTL, got %v", cache.ttl)
	}
}
