package validation

import (
	"log"

	"mdm-backend/internal/rules"
)

// CustomValidator is a named business predicate consulted by Custom rules.
// It receives the extracted field value and the full request payload.
type CustomValidator interface {
	Validate(value any, data map[string]any, rule *rules.FieldRule) Result
}

// ValidatorFunc adapts a plain function to CustomValidator.
type ValidatorFunc func(value any, data map[string]any, rule *rules.FieldRule) Result

func (f ValidatorFunc) Validate(value any, data map[string]any, rule *rules.FieldRule) Result {
	return f(value, data, rule)
}

// Registry maps validator names to implementations. An unknown name is a
// recoverable lookup miss: the rule passes with a logged warning, because a
// misconfigured rule row must never block submissions by itself.
type Registry struct {
	validators map[string]CustomValidator
}

func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]CustomValidator)}
}

func (r *Registry) Register(name string, v CustomValidator) {
	r.validators[name] = v
}

func (r *Registry) Evaluate(name string, value any, data map[string]any, rule *rules.FieldRule) Result {
	if name == "" {
		log.Printf("WARN: rule %s has kind Custom but no validator name, skipping", rule.RuleCode)
		return pass
	}
	v, ok := r.validators[name]
	if !ok {
		log.Printf("WARN: custom validator not found: %s (rule %s), skipping", name, rule.RuleCode)
		return pass
	}
	return v.Validate(value, data, rule)
}

// DefaultRegistry registers the built-in business validators.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("validateStreetFormat", ValidatorFunc(validateStreetFormat))
	r.Register("validateBankAccountCountry", ValidatorFunc(validateBankAccountCountry))
	r.Register("validatePrimaryAddress", ValidatorFunc(validatePrimaryAddress))
	r.Register("validateEstablishedVatConsistency", ValidatorFunc(validateEstablishedVatConsistency))
	r.Register("validateSupplierBankAccount", ValidatorFunc(validateSupplierBankAccount))
	r.Register("validateEmailDomain", ValidatorFunc(validateEmailDomain))
	r.Register("validateIbanSwiftConsistency", ValidatorFunc(validateIbanSwiftConsistency))
	r.Register("validateAddressCompleteness", ValidatorFunc(validateAddressCompleteness))
	r.Register("validatePartnerNameLegitimacy", ValidatorFunc(validatePartnerNameLegitimacy))
	r.Register("validatePostalCodeByCountry", ValidatorFunc(validatePostalCodeByCountry))
	return r
}
