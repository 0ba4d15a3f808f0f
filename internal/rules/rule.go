package rules

import (
	"fmt"
	"regexp"
)

// Kind is the closed set of field-level validation rule types.
type Kind string

const (
	KindRequired  Kind = "Required"
	KindMinLength Kind = "MinLength"
	KindMaxLength Kind = "MaxLength"
	KindRegex     Kind = "Regex"
	KindEmail     Kind = "Email"
	KindVAT       Kind = "VAT"
	KindIBAN      Kind = "IBAN"
	KindCustom    Kind = "Custom"
)

type Severity string

const (
	SeverityError   Severity = "Error"
	SeverityWarning Severity = "Warning"
	SeverityInfo    Severity = "Info"
)

// Context identifies which rules apply to a validation call. Empty scope
// values only match wildcard rules; Locale is normalized by the resolver.
type Context struct {
	Status       string `json:"status"`
	SourceSystem string `json:"sourceSystem"`
	EntityType   string `json:"entityType"`
	RequestType  string `json:"requestType"`
	Locale       string `json:"locale"`
}

func (c Context) CacheKey() string {
	return fmt.Sprintf("%s-%s-%s-%s-%s", c.Status, c.SourceSystem, c.EntityType, c.RequestType, c.Locale)
}

// NormalizeLocale maps the requested locale onto the supported set.
// Only en and de rule sets exist; everything else degrades to English.
func NormalizeLocale(locale string) string {
	if locale == "de" {
		return "de"
	}
	return "en"
}

// FieldRule is one field-level check from the _validation_rules table.
// Nil scope fields are wildcards and match any context value.
type FieldRule struct {
	ID              string   `json:"id"`
	RuleCode        string   `json:"ruleCode"`
	TargetEntity    string   `json:"targetEntity"`
	TargetField     string   `json:"targetField"`
	Kind            Kind     `json:"validationRule"`
	Value           string   `json:"validationValue,omitempty"`
	CustomValidator string   `json:"customValidator,omitempty"`
	ErrorMessage    string   `json:"errorMessage"`
	Severity        Severity `json:"errorSeverity"`
	BlockSubmission bool     `json:"blockSubmission"`
	Category        string   `json:"category,omitempty"`
	Status          *string  `json:"status"`
	SourceSystem    *string  `json:"sourceSystem"`
	EntityType      *string  `json:"entityType"`
	RequestType     *string  `json:"requestType"`
	Priority        int      `json:"priority"`
	Locale          string   `json:"locale"`
	Active          bool     `json:"active"`
}

// Matches reports whether the rule's scope covers the context. Each
// dimension matches when the rule leaves it nil or pins the exact value.
func (r *FieldRule) Matches(c Context) bool {
	return scopeMatches(r.Status, c.Status) &&
		scopeMatches(r.SourceSystem, c.SourceSystem) &&
		scopeMatches(r.EntityType, c.EntityType) &&
		scopeMatches(r.RequestType, c.RequestType)
}

// Specificity scores how many scope dimensions the rule pins. Rules that
// pin more dimensions outrank wildcard rules at equal priority.
func (r *FieldRule) Specificity() int {
	return specificity(r.Status, r.SourceSystem, r.EntityType, r.RequestType)
}

// DedupKey identifies overlapping rules: when two matching rules share a
// key, only the more specific one is executed.
func (r *FieldRule) DedupKey() string {
	return fmt.Sprintf("%s-%s-%s", r.TargetEntity, r.TargetField, r.Kind)
}

var postalRulePattern = regexp.MustCompile(`VAL_POSTAL_([A-Z]{2})$`)

// PostalCountry extracts the country code from country-scoped postal rule
// codes such as VAL_POSTAL_DE. Returns "" for rules without one.
func (r *FieldRule) PostalCountry() string {
	m := postalRulePattern.FindStringSubmatch(r.RuleCode)
	if m == nil {
		return ""
	}
	return m[1]
}

func scopeMatches(scope *string, value string) bool {
	return scope == nil || *scope == value
}

func specificity(status, sourceSystem, entityType, requestType *string) int {
	score := 0
	if status != nil {
		score += 1000
	}
	if sourceSystem != nil {
		score += 100
	}
	if entityType != nil {
		score += 10
	}
	if requestType != nil {
		score += 1
	}
	return score
}
