package validation

import (
	"log"
	"regexp"
	"strconv"

	"mdm-backend/internal/rules"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// executeFieldRule runs a single field rule against the request payload.
// Misconfigured rules (unknown kind, bad regex, bad numeric bound) pass
// with a logged warning so one broken rule row cannot block every
// submission system-wide.
func (s *Service) executeFieldRule(rule *rules.FieldRule, data map[string]any) Result {
	value := fieldValue(data, rule.TargetEntity, rule.TargetField)

	// Country-scoped postal rules (VAL_POSTAL_DE etc.) only apply to
	// addresses of that country, so they need the full address records.
	if rule.Kind == rules.KindRegex && rule.TargetEntity == "PartnerAddresses" && rule.TargetField == "postalCode" {
		if cc := rule.PostalCountry(); cc != "" {
			return validateCountryPostal(data, rule, cc)
		}
	}

	switch rule.Kind {
	case rules.KindRequired:
		return validateRequired(value, rule)
	case rules.KindMinLength:
		return validateLength(value, rule, true)
	case rules.KindMaxLength:
		return validateLength(value, rule, false)
	case rules.KindRegex:
		return validateRegex(value, rule)
	case rules.KindEmail:
		return validatePattern(value, emailPattern, rule)
	case rules.KindVAT:
		return validateFormat(value, rule, ValidateVAT)
	case rules.KindIBAN:
		return validateFormat(value, rule, ValidateIBAN)
	case rules.KindCustom:
		return s.registry.Evaluate(rule.CustomValidator, value, data, rule)
	default:
		log.Printf("WARN: unknown validation rule kind %q (rule %s), skipping", rule.Kind, rule.RuleCode)
		return pass
	}
}

func ruleFail(rule *rules.FieldRule, message string) Result {
	return fail(message, rule.Severity, rule.BlockSubmission)
}

// validateRequired fails on nil/empty scalars. For array-valued child
// fields, one populated element satisfies the rule.
func validateRequired(value any, rule *rules.FieldRule) Result {
	if arr, ok := value.([]any); ok {
		for _, v := range arr {
			if !isEmpty(v) {
				return pass
			}
		}
		return ruleFail(rule, rule.ErrorMessage)
	}
	if isEmpty(value) {
		return ruleFail(rule, rule.ErrorMessage)
	}
	return pass
}

// validateLength handles MinLength and MaxLength. Empty values pass (that
// is the Required rule's job); for arrays the first offending element's
// length feeds the error message.
func validateLength(value any, rule *rules.FieldRule, isMin bool) Result {
	bound, err := strconv.Atoi(rule.Value)
	if err != nil {
		log.Printf("WARN: rule %s has non-numeric length bound %q, skipping", rule.RuleCode, rule.Value)
		return pass
	}

	boundKey := "maxLength"
	if isMin {
		boundKey = "minLength"
	}
	violates := func(l int) bool {
		if isMin {
			return l < bound
		}
		return l > bound
	}
	failWith := func(actual int) Result {
		return ruleFail(rule, ReplacePlaceholders(rule.ErrorMessage, map[string]any{
			"fieldLabel":   FieldLabel(rule.TargetField),
			boundKey:       bound,
			"actualLength": actual,
		}))
	}

	if arr, ok := value.([]any); ok {
		for _, v := range arr {
			if isEmpty(v) {
				continue
			}
			if l := len(asString(v)); violates(l) {
				return failWith(l)
			}
		}
		return pass
	}

	s := asString(value)
	if s == "" {
		return pass
	}
	if violates(len(s)) {
		return failWith(len(s))
	}
	return pass
}

func validateRegex(value any, rule *rules.FieldRule) Result {
	re, err := regexp.Compile(rule.Value)
	if err != nil {
		log.Printf("WARN: rule %s has invalid regex %q, skipping: %v", rule.RuleCode, rule.Value, err)
		return pass
	}
	return validatePattern(value, re, rule)
}

func validatePattern(value any, re *regexp.Regexp, rule *rules.FieldRule) Result {
	if value == nil {
		return pass
	}
	if arr, ok := value.([]any); ok {
		for _, v := range arr {
			if !isEmpty(v) && !re.MatchString(asString(v)) {
				return ruleFail(rule, rule.ErrorMessage)
			}
		}
		return pass
	}
	s := asString(value)
	if s == "" {
		return pass
	}
	if !re.MatchString(s) {
		return ruleFail(rule, rule.ErrorMessage)
	}
	return pass
}

// validateFormat runs a VAT/IBAN format check. Unlike the other kinds these
// fail closed: a malformed or unsupported-country value is a hard failure,
// because identity-critical data cannot default to valid.
func validateFormat(value any, rule *rules.FieldRule, check func(string) error) Result {
	if value == nil {
		return pass
	}

	failWith := func(err error) Result {
		message := rule.ErrorMessage
		if message == "" {
			message = err.Error()
		}
		return ruleFail(rule, message)
	}

	if arr, ok := value.([]any); ok {
		for _, v := range arr {
			if isEmpty(v) {
				continue
			}
			if err := check(asString(v)); err != nil {
				return failWith(err)
			}
		}
		return pass
	}

	s := asString(value)
	if s == "" {
		return pass
	}
	if err := check(s); err != nil {
		return failWith(err)
	}
	return pass
}

// validateCountryPostal applies a postal regex only to addresses whose
// country_code matches the rule's country. With no address in that country
// the rule vacuously passes.
func validateCountryPostal(data map[string]any, rule *rules.FieldRule, countryCode string) Result {
	re, err := regexp.Compile(rule.Value)
	if err != nil {
		log.Printf("WARN: rule %s has invalid regex %q, skipping: %v", rule.RuleCode, rule.Value, err)
		return pass
	}

	for _, addr := range records(data, "addresses") {
		if asString(addr["country_code"]) != countryCode {
			continue
		}
		postal := asString(addr["postalCode"])
		if postal != "" && !re.MatchString(postal) {
			return ruleFail(rule, rule.ErrorMessage)
		}
	}
	return pass
}
