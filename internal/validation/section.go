package validation

import (
	"mdm-backend/internal/rules"
)

const (
	defaultMinMessage = "{sectionLabel} requires at least {minimumCount} record(s), but has {actualCount}"
	defaultMaxMessage = "{sectionLabel} allows maximum {maximumCount} record(s), but has {actualCount}"
)

// executeSectionRule checks a child collection's cardinality. The rule's
// compiled filter narrows the collection first; totalCount stays available
// as a placeholder so messages can contrast filtered vs raw counts.
func executeSectionRule(rule *rules.SectionRule, data map[string]any) Result {
	section := records(data, rule.SectionName)
	totalCount := len(section)

	filtered := rule.Filter.Apply(section)
	actualCount := len(filtered)

	if rule.MinimumCount > 0 && actualCount < rule.MinimumCount {
		template := rule.MinErrorMessage
		if template == "" {
			template = defaultMinMessage
		}
		severity := rules.SeverityWarning
		if rule.BlockSubmission {
			severity = rules.SeverityError
		}
		return fail(ReplacePlaceholders(template, map[string]any{
			"sectionLabel": rule.SectionLabel,
			"minimumCount": rule.MinimumCount,
			"actualCount":  actualCount,
			"totalCount":   totalCount,
		}), severity, rule.BlockSubmission)
	}

	if rule.MaximumCount != nil && actualCount > *rule.MaximumCount {
		template := rule.MaxErrorMessage
		if template == "" {
			template = defaultMaxMessage
		}
		// Exceeding a maximum is always an error, blocking or not.
		return fail(ReplacePlaceholders(template, map[string]any{
			"sectionLabel": rule.SectionLabel,
			"maximumCount": *rule.MaximumCount,
			"actualCount":  actualCount,
			"totalCount":   totalCount,
		}), rules.SeverityError, rule.BlockSubmission)
	}

	return pass
}
