package validation

import (
	"context"
	"fmt"
	"log"
	"strings"

	"mdm-backend/internal/rules"
)

// Service is the validation entry point: it resolves the applicable rules
// for a context, executes them over a request payload and aggregates the
// findings into a Report. Stateless per call apart from the resolver cache.
type Service struct {
	resolver *Resolver
	registry *Registry
	// nested marks source systems whose emails/banks live under
	// sub-accounts, so top-level email/bank rules do not apply.
	nested map[string]bool
}

func NewService(source RuleSource, cache *Cache, registry *Registry, nestedSourceSystems []string) *Service {
	nested := make(map[string]bool, len(nestedSourceSystems))
	for _, system := range nestedSourceSystems {
		nested[system] = true
	}
	return &Service{
		resolver: NewResolver(source, cache),
		registry: registry,
		nested:   nested,
	}
}

func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// ValidateRequest runs all applicable field and section rules plus the
// fixed bank account check, and returns the aggregate result. It returns an
// error only when the rule repository is unreachable; rule failures become
// report entries, never errors.
func (s *Service) ValidateRequest(ctx context.Context, data map[string]any, status, sourceSystem, entityType, requestType, locale string) (*Report, error) {
	if locale == "" {
		locale = "en"
	}
	vctx := rules.Context{
		Status:       status,
		SourceSystem: sourceSystem,
		EntityType:   entityType,
		RequestType:  requestType,
		Locale:       locale,
	}

	report := &Report{
		Errors:   []Message{},
		Warnings: []Message{},
		Context:  vctx,
	}

	fieldRules, err := s.resolver.FieldRules(ctx, vctx)
	if err != nil {
		return nil, fmt.Errorf("resolve field rules: %w", err)
	}

	for _, rule := range fieldRules {
		if s.nested[sourceSystem] && (rule.TargetEntity == "PartnerEmails" || rule.TargetEntity == "PartnerBanks") {
			log.Printf("Skipping %s rule %s for %s (collections nested under sub-accounts)", rule.TargetEntity, rule.RuleCode, sourceSystem)
			continue
		}
		if result := s.executeFieldRule(rule, data); !result.Valid {
			report.add(Message{
				Field:           rule.TargetField,
				Entity:          rule.TargetEntity,
				Message:         result.Message,
				Severity:        messageSeverity(result.Severity, rule.Severity),
				BlockSubmission: result.Block,
				RuleCode:        rule.RuleCode,
				Category:        rule.Category,
			})
		}
	}

	sectionRules, err := s.resolver.SectionRules(ctx, vctx)
	if err != nil {
		return nil, fmt.Errorf("resolve section rules: %w", err)
	}

	for _, rule := range sectionRules {
		if s.nested[sourceSystem] && (rule.SectionName == "emails" || rule.SectionName == "banks") {
			log.Printf("Skipping %s section rule %s for %s (collection nested under sub-accounts)", rule.SectionName, rule.RuleCode, sourceSystem)
			continue
		}
		if result := executeSectionRule(rule, data); !result.Valid {
			report.add(Message{
				Field:           rule.SectionName,
				Entity:          rule.SectionLabel,
				Message:         result.Message,
				Severity:        result.Severity,
				BlockSubmission: result.Block,
				RuleCode:        rule.RuleCode,
			})
		}
	}

	if !s.nested[sourceSystem] {
		for _, msg := range validateBankAccounts(records(data, "banks"), locale) {
			report.add(msg)
		}
	}

	report.RulesExecuted = len(fieldRules) + len(sectionRules)
	report.Valid = len(report.Errors) == 0
	return report, nil
}

// UIRule is the slimmed rule shape the frontend uses to decorate mandatory
// fields before submission.
type UIRule struct {
	TargetEntity string `json:"targetEntity"`
	TargetField  string `json:"targetField"`
	IsMandatory  bool   `json:"isMandatory"`
	ErrorMessage string `json:"errorMessage"`
}

// RulesForUI returns the blocking Required rules resolved for a context.
func (s *Service) RulesForUI(ctx context.Context, vctx rules.Context) ([]UIRule, error) {
	resolved, err := s.resolver.FieldRules(ctx, vctx)
	if err != nil {
		return nil, err
	}

	result := []UIRule{}
	for _, rule := range resolved {
		if rule.Kind == rules.KindRequired && rule.BlockSubmission {
			result = append(result, UIRule{
				TargetEntity: rule.TargetEntity,
				TargetField:  rule.TargetField,
				IsMandatory:  true,
				ErrorMessage: rule.ErrorMessage,
			})
		}
	}
	return result, nil
}

var bankAccountMessages = map[string]string{
	"en": "Either IBAN or Account Number must be provided for bank account",
	"de": "Entweder IBAN oder Kontonummer muss für das Bankkonto angegeben werden",
}

// validateBankAccounts enforces the fixed business rule that every bank
// record carries an IBAN or an account number. The message is chosen by
// locale directly, not through the rule tables.
func validateBankAccounts(banks []map[string]any, locale string) []Message {
	var messages []Message
	text := bankAccountMessages[rules.NormalizeLocale(locale)]

	for i, bank := range banks {
		hasIBAN := strings.TrimSpace(asString(bank["iban"])) != ""
		hasAccount := strings.TrimSpace(asString(bank["accountNumber"])) != ""
		if hasIBAN || hasAccount {
			continue
		}

		identifier := asString(bank["bankName"])
		if identifier == "" {
			identifier = fmt.Sprintf("Bank #%d", i+1)
		}
		messages = append(messages, Message{
			Field:           "iban_or_accountNumber",
			Entity:          "PartnerBanks",
			Message:         fmt.Sprintf("%s (%s)", text, identifier),
			Severity:        rules.SeverityError,
			BlockSubmission: true,
		})
	}
	return messages
}

// add routes a finding into errors or warnings. Info severity is
// informational and lands with the warnings; only Error entries block.
func (r *Report) add(msg Message) {
	if msg.Severity == rules.SeverityError {
		r.Errors = append(r.Errors, msg)
	} else {
		r.Warnings = append(r.Warnings, msg)
	}
}

// messageSeverity prefers the result's severity when the validator set one.
func messageSeverity(result, fallback rules.Severity) rules.Severity {
	if result != "" {
		return result
	}
	return fallback
}
