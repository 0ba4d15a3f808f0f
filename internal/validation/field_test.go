package validation

import (
	"strings"
	"testing"

	"mdm-backend/internal/rules"
)

func newTestService() *Service {
	return NewService(nil, NewCache(0), DefaultRegistry(), []string{"Salesforce"})
}

func TestValidateRequired_Scalar(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "R", TargetEntity: "BusinessPartnerRequests", TargetField: "partnerName",
		Kind: rules.KindRequired, ErrorMessage: "Partner Name is required",
		Severity: rules.SeverityError, BlockSubmission: true,
	}

	result := svc.executeFieldRule(rule, map[string]any{"partnerName": "ACME"})
	if !result.Valid {
		t.Fatalf("populated field should pass: %v", result)
	}

	for _, data := range []map[string]any{
		{},
		{"partnerName": nil},
		{"partnerName": ""},
	} {
		result = svc.executeFieldRule(rule, data)
		if result.Valid {
			t.Fatalf("empty field should fail: %v", data)
		}
		if result.Message != "Partner Name is required" {
			t.Fatalf("got message %q", result.Message)
		}
		if !result.Block {
			t.Fatal("expected blocking failure")
		}
	}
}

func TestValidateRequired_ArrayOnePopulatedSuffices(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "R", TargetEntity: "PartnerEmails", TargetField: "emailAddress",
		Kind: rules.KindRequired, ErrorMessage: "Email is required", Severity: rules.SeverityError,
	}

	data := map[string]any{"emails": []any{
		map[string]any{"emailAddress": ""},
		map[string]any{"emailAddress": "a@example.com"},
	}}
	if result := svc.executeFieldRule(rule, data); !result.Valid {
		t.Fatalf("one populated element should satisfy the rule: %v", result)
	}

	data = map[string]any{"emails": []any{
		map[string]any{"emailAddress": ""},
		map[string]any{},
	}}
	if result := svc.executeFieldRule(rule, data); result.Valid {
		t.Fatal("all-empty elements should fail")
	}
}

func TestValidateMinLength(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "M", TargetEntity: "BusinessPartnerRequests", TargetField: "partnerName",
		Kind: rules.KindMinLength, Value: "3",
		ErrorMessage: "{fieldLabel} must be at least {minLength} characters (current: {actualLength})",
		Severity:     rules.SeverityError, BlockSubmission: true,
	}

	result := svc.executeFieldRule(rule, map[string]any{"partnerName": "AB"})
	if result.Valid {
		t.Fatal("two characters should fail a min of three")
	}
	want := "Partner Name must be at least 3 characters (current: 2)"
	if result.Message != want {
		t.Fatalf("got %q, want %q", result.Message, want)
	}

	if result := svc.executeFieldRule(rule, map[string]any{"partnerName": "ABC"}); !result.Valid {
		t.Fatalf("exactly the bound should pass: %v", result)
	}
	// Emptiness is the Required rule's concern.
	if result := svc.executeFieldRule(rule, map[string]any{}); !result.Valid {
		t.Fatal("missing value should pass a length rule")
	}
	if result := svc.executeFieldRule(rule, map[string]any{"partnerName": ""}); !result.Valid {
		t.Fatal("empty value should pass a length rule")
	}
}

func TestValidateMaxLength(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "M", TargetEntity: "BusinessPartnerRequests", TargetField: "partnerName",
		Kind: rules.KindMaxLength, Value: "5",
		ErrorMessage: "{fieldLabel} must not exceed {maxLength} characters (current: {actualLength})",
		Severity:     rules.SeverityError,
	}

	result := svc.executeFieldRule(rule, map[string]any{"partnerName": "ABCDEF"})
	if result.Valid {
		t.Fatal("six characters should fail a max of five")
	}
	if !strings.Contains(result.Message, "must not exceed 5 characters (current: 6)") {
		t.Fatalf("got %q", result.Message)
	}
	if result := svc.executeFieldRule(rule, map[string]any{"partnerName": "ABCDE"}); !result.Valid {
		t.Fatal("exactly the bound should pass")
	}
}

func TestValidateLength_BadBoundSkips(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "M", TargetEntity: "BusinessPartnerRequests", TargetField: "partnerName",
		Kind: rules.KindMinLength, Value: "three", Severity: rules.SeverityError,
	}
	if result := svc.executeFieldRule(rule, map[string]any{"partnerName": "A"}); !result.Valid {
		t.Fatal("non-numeric bound should skip the rule, not fail it")
	}
}

func TestValidateLength_ArrayReportsFirstOffender(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "M", TargetEntity: "PartnerAddresses", TargetField: "street",
		Kind: rules.KindMinLength, Value: "5",
		ErrorMessage: "{fieldLabel} needs {minLength}, has {actualLength}",
		Severity:     rules.SeverityError,
	}
	data := map[string]any{"addresses": []any{
		map[string]any{"street": "Long Enough Street"},
		map[string]any{"street": "Ab"},
	}}
	result := svc.executeFieldRule(rule, data)
	if result.Valid {
		t.Fatal("short element should fail")
	}
	if !strings.Contains(result.Message, "has 2") {
		t.Fatalf("expected offending length 2 in %q", result.Message)
	}
}

func TestValidateRegex(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "RX", TargetEntity: "BusinessPartnerRequests", TargetField: "partnerName",
		Kind: rules.KindRegex, Value: "^[A-Z]+$",
		ErrorMessage: "uppercase only", Severity: rules.SeverityError,
	}
	if result := svc.executeFieldRule(rule, map[string]any{"partnerName": "ACME"}); !result.Valid {
		t.Fatalf("matching value should pass: %v", result)
	}
	result := svc.executeFieldRule(rule, map[string]any{"partnerName": "acme"})
	if result.Valid {
		t.Fatal("non-matching value should fail")
	}
	if result.Message != "uppercase only" {
		t.Fatalf("got %q", result.Message)
	}
}

func TestValidateRegex_InvalidPatternSkips(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "RX", TargetEntity: "BusinessPartnerRequests", TargetField: "partnerName",
		Kind: rules.KindRegex, Value: "([unclosed", Severity: rules.SeverityError,
	}
	if result := svc.executeFieldRule(rule, map[string]any{"partnerName": "anything"}); !result.Valid {
		t.Fatal("invalid pattern should skip the rule")
	}
}

func TestValidateEmail(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "E", TargetEntity: "PartnerEmails", TargetField: "emailAddress",
		Kind: rules.KindEmail, ErrorMessage: "Email address format is invalid",
		Severity: rules.SeverityError,
	}

	ok := map[string]any{"emails": []any{map[string]any{"emailAddress": "user@example.com"}}}
	if result := svc.executeFieldRule(rule, ok); !result.Valid {
		t.Fatalf("valid email should pass: %v", result)
	}

	for _, bad := range []string{"user", "user@", "@example.com", "user @example.com", "user@example"} {
		data := map[string]any{"emails": []any{map[string]any{"emailAddress": bad}}}
		if result := svc.executeFieldRule(rule, data); result.Valid {
			t.Fatalf("email %q should fail", bad)
		}
	}
}

func TestValidateVATRule_FailsClosed(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "V", TargetEntity: "PartnerVatIds", TargetField: "vatNumber",
		Kind: rules.KindVAT, ErrorMessage: "VAT number format is invalid",
		Severity: rules.SeverityError, BlockSubmission: true,
	}

	data := map[string]any{"vatIds": []any{map[string]any{"vatNumber": "XX123456789"}}}
	result := svc.executeFieldRule(rule, data)
	if result.Valid {
		t.Fatal("unsupported country must fail, not skip")
	}
	if result.Message != "VAT number format is invalid" {
		t.Fatalf("got %q", result.Message)
	}

	data = map[string]any{"vatIds": []any{map[string]any{"vatNumber": "DE123456789"}}}
	if result := svc.executeFieldRule(rule, data); !result.Valid {
		t.Fatalf("valid VAT should pass: %v", result)
	}
}

func TestValidateFormat_ErrorTextWhenNoRuleMessage(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "I", TargetEntity: "PartnerBanks", TargetField: "iban",
		Kind: rules.KindIBAN, Severity: rules.SeverityError,
	}
	data := map[string]any{"banks": []any{map[string]any{"iban": "DE98370400440532013000"}}}
	result := svc.executeFieldRule(rule, data)
	if result.Valid {
		t.Fatal("bad check digits should fail")
	}
	if result.Message == "" {
		t.Fatal("expected the checker's error text as fallback message")
	}
}

func TestValidateCountryPostal(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "VAL_POSTAL_DE", TargetEntity: "PartnerAddresses", TargetField: "postalCode",
		Kind: rules.KindRegex, Value: "^[0-9]{5}$",
		ErrorMessage: "German postal codes must be 5 digits",
		Severity:     rules.SeverityError, BlockSubmission: true,
	}

	// A bad US postal code is not this rule's business.
	data := map[string]any{"addresses": []any{
		map[string]any{"country_code": "US", "postalCode": "not-a-zip"},
	}}
	if result := svc.executeFieldRule(rule, data); !result.Valid {
		t.Fatal("rule should only apply to German addresses")
	}

	data = map[string]any{"addresses": []any{
		map[string]any{"country_code": "DE", "postalCode": "1011"},
	}}
	result := svc.executeFieldRule(rule, data)
	if result.Valid {
		t.Fatal("four-digit German postal code should fail")
	}
	if result.Message != "German postal codes must be 5 digits" {
		t.Fatalf("got %q", result.Message)
	}

	// No German address at all: vacuous pass.
	if result := svc.executeFieldRule(rule, map[string]any{}); !result.Valid {
		t.Fatal("no addresses should pass")
	}
}

func TestExecuteFieldRule_UnknownKindSkips(t *testing.T) {
	svc := newTestService()
	rule := &rules.FieldRule{
		RuleCode: "U", TargetEntity: "BusinessPartnerRequests", TargetField: "partnerName",
		Kind: rules.Kind("Checksum"), Severity: rules.SeverityError,
	}
	if result := svc.executeFieldRule(rule, map[string]any{"partnerName": "x"}); !result.Valid {
		t.Fatal("unknown kind should skip the rule")
	}
}
