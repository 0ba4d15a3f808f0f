package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"mdm-backend/internal/rules"
)

var numericOnly = regexp.MustCompile(`^\d+$`)

// validateStreetFormat rejects streets that are purely numeric: a house
// number alone is not a street.
func validateStreetFormat(value any, data map[string]any, rule *rules.FieldRule) Result {
	if value == nil {
		return pass
	}

	check := func(s string) bool { return s != "" && numericOnly.MatchString(s) }

	bad := false
	if arr, ok := value.([]any); ok {
		for _, v := range arr {
			if check(asString(v)) {
				bad = true
				break
			}
		}
	} else {
		bad = check(asString(value))
	}

	if bad {
		return fail("Street address must contain street name, not just house number", rules.SeverityError, true)
	}
	return pass
}

// bankAccountFormats is the per-country account number convention. Unknown
// countries are skipped silently.
var bankAccountFormats = map[string]*regexp.Regexp{
	"DE": regexp.MustCompile(`^\d{10,12}$`),
	"US": regexp.MustCompile(`^\d{9,12}$`),
	"GB": regexp.MustCompile(`^\d{8}$`),
	"FR": regexp.MustCompile(`^\d{11}$`),
}

func validateBankAccountCountry(value any, data map[string]any, rule *rules.FieldRule) Result {
	if value == nil {
		return pass
	}

	for _, bank := range records(data, "banks") {
		account := asString(bank["accountNumber"])
		country := asString(bank["bankCountry"])
		if account == "" || country == "" {
			continue
		}
		format, ok := bankAccountFormats[country]
		if !ok {
			continue
		}
		if !format.MatchString(account) {
			return fail("Bank account number format does not match country requirements", rules.SeverityWarning, false)
		}
	}
	return pass
}

// validatePrimaryAddress requires exactly one address marked primary.
func validatePrimaryAddress(value any, data map[string]any, rule *rules.FieldRule) Result {
	addresses := records(data, "addresses")
	if len(addresses) == 0 {
		return pass
	}

	primaries := 0
	for _, addr := range addresses {
		if addr["isPrimary"] == true {
			primaries++
		}
	}

	switch {
	case primaries == 0:
		return fail("At least one address must be marked as primary", rules.SeverityError, true)
	case primaries > 1:
		return fail("Only one address can be marked as primary", rules.SeverityError, true)
	}
	return pass
}

// validateEstablishedVatConsistency: every address flagged established in a
// country needs a VAT record for that country.
func validateEstablishedVatConsistency(value any, data map[string]any, rule *rules.FieldRule) Result {
	vatIds := records(data, "vatIds")

	var missing []string
	for _, addr := range records(data, "addresses") {
		if addr["isEstablished"] != true {
			continue
		}
		country := asString(addr["country"])
		found := false
		for _, vat := range vatIds {
			if asString(vat["country"]) == country {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, country)
		}
	}

	if len(missing) > 0 {
		return fail(
			fmt.Sprintf("Established address(es) in %s require VAT ID for those countries", strings.Join(missing, ", ")),
			rules.SeverityWarning, false)
	}
	return pass
}

// validateSupplierBankAccount: suppliers need at least one bank account for
// payment processing.
func validateSupplierBankAccount(value any, data map[string]any, rule *rules.FieldRule) Result {
	entityType := asString(data["entityType"])
	if entityType != "Supplier" && entityType != "Both" {
		return pass
	}
	if len(records(data, "banks")) == 0 {
		return fail("Suppliers must have at least one bank account for payment processing", rules.SeverityError, true)
	}
	return pass
}

var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"guerrillamail.com": true,
	"10minutemail.com":  true,
	"throwaway.email":   true,
	"mailinator.com":    true,
	"maildrop.cc":       true,
}

func validateEmailDomain(value any, data map[string]any, rule *rules.FieldRule) Result {
	if value == nil {
		return pass
	}

	for _, email := range records(data, "emails") {
		address := asString(email["emailAddress"])
		_, domain, ok := strings.Cut(address, "@")
		if !ok {
			continue
		}
		if disposableDomains[strings.ToLower(domain)] {
			return fail("Disposable or temporary email addresses are not allowed", rules.SeverityWarning, false)
		}
	}
	return pass
}

// validateIbanSwiftConsistency: IBAN and SWIFT must be both present or both
// absent on each bank record.
func validateIbanSwiftConsistency(value any, data map[string]any, rule *rules.FieldRule) Result {
	for _, bank := range records(data, "banks") {
		hasIban := asString(bank["iban"]) != ""
		hasSwift := asString(bank["swiftCode"]) != ""
		if hasIban != hasSwift {
			return fail("Bank accounts with IBAN must also have SWIFT/BIC code (and vice versa)", rules.SeverityWarning, false)
		}
	}
	return pass
}

var completenessFields = []string{"name2", "phoneNumber", "faxNumber", "region", "district"}

// validateAddressCompleteness scores the primary address over a fixed set
// of optional fields; below 60% it produces an informational message naming
// what is missing.
func validateAddressCompleteness(value any, data map[string]any, rule *rules.FieldRule) Result {
	var primary map[string]any
	for _, addr := range records(data, "addresses") {
		if addr["isPrimary"] == true {
			primary = addr
			break
		}
	}
	if primary == nil {
		return pass
	}

	var missing []string
	for _, field := range completenessFields {
		if isEmpty(primary[field]) {
			missing = append(missing, field)
		}
	}

	completeness := float64(len(completenessFields)-len(missing)) / float64(len(completenessFields)) * 100
	if completeness < 60 {
		return fail(
			fmt.Sprintf("Primary address is %d%% complete. Consider adding: %s",
				int(math.Round(completeness)), strings.Join(missing, ", ")),
			rules.SeverityInfo, false)
	}
	return pass
}

var suspiciousNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^test`),
	regexp.MustCompile(`(?i)test$`),
	regexp.MustCompile(`(?i)dummy`),
	regexp.MustCompile(`(?i)fake`),
	regexp.MustCompile(`(?i)xxx`),
	regexp.MustCompile(`(?i)^aaa+$`),
	regexp.MustCompile(`(?i)^bbb+$`),
	regexp.MustCompile(`^111+$`),
	regexp.MustCompile(`^000+$`),
}

func validatePartnerNameLegitimacy(value any, data map[string]any, rule *rules.FieldRule) Result {
	if value == nil {
		return pass
	}

	name := asString(data["partnerName"])
	for _, pattern := range suspiciousNamePatterns {
		if pattern.MatchString(name) {
			return fail("Partner name appears to be a test or placeholder name", rules.SeverityWarning, false)
		}
	}
	return pass
}

type postalFormat struct {
	pattern *regexp.Regexp
	example string
}

// postalFormats is the country-aware postal table used when a single rule
// row should cover several countries (distinct from per-country Regex rows).
var postalFormats = map[string]postalFormat{
	"DE": {regexp.MustCompile(`^[0-9]{5}$`), "10115"},
	"US": {regexp.MustCompile(`^[0-9]{5}(-[0-9]{4})?$`), "12345 or 12345-6789"},
	"GB": {regexp.MustCompile(`(?i)^[A-Z]{1,2}[0-9][A-Z0-9]? ?[0-9][A-Z]{2}$`), "SW1A 1AA"},
	"FR": {regexp.MustCompile(`^[0-9]{5}$`), "75001"},
	"CA": {regexp.MustCompile(`(?i)^[A-Z][0-9][A-Z] ?[0-9][A-Z][0-9]$`), "K1A 0B1"},
	"NL": {regexp.MustCompile(`(?i)^[0-9]{4} ?[A-Z]{2}$`), "1012 AB"},
}

func validatePostalCodeByCountry(value any, data map[string]any, rule *rules.FieldRule) Result {
	for _, addr := range records(data, "addresses") {
		postal := asString(addr["postalCode"])
		country := asString(addr["country"])
		if postal == "" || country == "" {
			continue
		}
		format, ok := postalFormats[country]
		if !ok {
			continue
		}
		if !format.pattern.MatchString(postal) {
			return fail(
				fmt.Sprintf("Postal code format for %s is invalid. Expected format: %s", country, format.example),
				rules.SeverityError, true)
		}
	}
	return pass
}
