package admin

import (
	"fmt"

	"mdm-backend/internal/rules"
)

var validKinds = map[rules.Kind]bool{
	rules.KindRequired:  true,
	rules.KindMinLength: true,
	rules.KindMaxLength: true,
	rules.KindRegex:     true,
	rules.KindEmail:     true,
	rules.KindVAT:       true,
	rules.KindIBAN:      true,
	rules.KindCustom:    true,
}

var validSeverities = map[rules.Severity]bool{
	rules.SeverityError:   true,
	rules.SeverityWarning: true,
	rules.SeverityInfo:    true,
}

func validateFieldRule(rule *rules.FieldRule) error {
	if rule.RuleCode == "" {
		return fmt.Errorf("ruleCode is required")
	}
	if !validKinds[rule.Kind] {
		return fmt.Errorf("unknown validation rule kind: %s", rule.Kind)
	}
	if rule.Kind == rules.KindCustom && rule.CustomValidator == "" {
		return fmt.Errorf("customValidator is required for Custom rules")
	}
	if rule.ErrorMessage == "" {
		return fmt.Errorf("errorMessage is required")
	}
	if rule.Severity == "" {
		rule.Severity = rules.SeverityError
	}
	if !validSeverities[rule.Severity] {
		return fmt.Errorf("unknown severity: %s", rule.Severity)
	}
	rule.Locale = rules.NormalizeLocale(rule.Locale)
	return nil
}

func validateSectionRule(rule *rules.SectionRule) error {
	if rule.RuleCode == "" {
		return fmt.Errorf("ruleCode is required")
	}
	if rule.SectionName == "" {
		return fmt.Errorf("sectionName is required")
	}
	if rule.MinimumCount < 0 {
		return fmt.Errorf("minimumCount must not be negative")
	}
	if rule.MaximumCount != nil && *rule.MaximumCount < rule.MinimumCount {
		return fmt.Errorf("maximumCount must not be below minimumCount")
	}
	if rule.FilterCriteria != "" {
		if _, err := rules.ParseFilter(rule.FilterCriteria); err != nil {
			return fmt.Errorf("invalid filterCriteria: %v", err)
		}
	}
	rule.Locale = rules.NormalizeLocale(rule.Locale)
	return nil
}
