package validation

import (
	"context"
	"log"
	"sort"

	"mdm-backend/internal/rules"
)

// RuleSource is the read side of the rule repository.
type RuleSource interface {
	FindActiveFieldRules(ctx context.Context, locale string) ([]*rules.FieldRule, error)
	FindActiveSectionRules(ctx context.Context, locale string) ([]*rules.SectionRule, error)
}

// Resolver selects the applicable rule set for a validation context:
// locale fallback, wildcard scope matching, priority ordering with a
// specificity tie-break, and most-specific-wins deduplication.
type Resolver struct {
	source RuleSource
	cache  *Cache
}

func NewResolver(source RuleSource, cache *Cache) *Resolver {
	return &Resolver{source: source, cache: cache}
}

// FieldRules resolves the deduplicated, ordered field rules for a context.
// Results are cached per context until a rule mutation invalidates them.
func (r *Resolver) FieldRules(ctx context.Context, vctx rules.Context) ([]*rules.FieldRule, error) {
	key := "field:" + vctx.CacheKey()
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	all, err := r.loadFieldRules(ctx, vctx.Locale)
	if err != nil {
		return nil, err
	}

	var matching []*rules.FieldRule
	for _, rule := range all {
		if rule.Matches(vctx) {
			matching = append(matching, rule)
		}
	}

	sortRules(matching)
	deduplicated := deduplicate(matching)

	r.cache.Set(key, deduplicated)
	return deduplicated, nil
}

// SectionRules resolves matching section rules ordered by priority.
// Section rules are not deduplicated: overlapping cardinality checks on the
// same collection are all executed.
func (r *Resolver) SectionRules(ctx context.Context, vctx rules.Context) ([]*rules.SectionRule, error) {
	all, err := r.loadSectionRules(ctx, vctx.Locale)
	if err != nil {
		return nil, err
	}

	var matching []*rules.SectionRule
	for _, rule := range all {
		if rule.Matches(vctx) {
			matching = append(matching, rule)
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Priority < matching[j].Priority
	})
	return matching, nil
}

// loadFieldRules reads active rules for the effective locale, degrading to
// English when a non-English locale has no rule set at all.
func (r *Resolver) loadFieldRules(ctx context.Context, locale string) ([]*rules.FieldRule, error) {
	effective := rules.NormalizeLocale(locale)
	all, err := r.source.FindActiveFieldRules(ctx, effective)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 && effective != "en" {
		log.Printf("WARN: no field rules for locale %q, falling back to English", effective)
		return r.source.FindActiveFieldRules(ctx, "en")
	}
	return all, nil
}

func (r *Resolver) loadSectionRules(ctx context.Context, locale string) ([]*rules.SectionRule, error) {
	effective := rules.NormalizeLocale(locale)
	all, err := r.source.FindActiveSectionRules(ctx, effective)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 && effective != "en" {
		log.Printf("WARN: no section rules for locale %q, falling back to English", effective)
		return r.source.FindActiveSectionRules(ctx, "en")
	}
	return all, nil
}

// sortRules orders by priority ascending, breaking ties by specificity
// descending so pinned rules come before wildcard rules.
func sortRules(ruleSet []*rules.FieldRule) {
	sort.SliceStable(ruleSet, func(i, j int) bool {
		if ruleSet[i].Priority != ruleSet[j].Priority {
			return ruleSet[i].Priority < ruleSet[j].Priority
		}
		return ruleSet[i].Specificity() > ruleSet[j].Specificity()
	})
}

// deduplicate keeps, per (targetEntity, targetField, kind), only the most
// specific rule. Administrators can thus override a global rule for one
// source system without deleting the general one.
func deduplicate(ruleSet []*rules.FieldRule) []*rules.FieldRule {
	best := make(map[string]*rules.FieldRule, len(ruleSet))
	var order []string
	for _, rule := range ruleSet {
		key := rule.DedupKey()
		current, ok := best[key]
		if !ok {
			best[key] = rule
			order = append(order, key)
			continue
		}
		if rule.Specificity() > current.Specificity() {
			best[key] = rule
		}
	}

	result := make([]*rules.FieldRule, 0, len(order))
	for _, key := range order {
		result = append(result, best[key])
	}
	return result
}
