package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ReplacePlaceholders fills {name} placeholders from a map or {0},{1}...
// from a slice. Unresolved placeholders stay verbatim; templates never fail.
func ReplacePlaceholders(template string, values any) string {
	if template == "" || values == nil {
		return template
	}

	result := template
	switch v := values.(type) {
	case map[string]any:
		for key, value := range v {
			result = strings.ReplaceAll(result, "{"+key+"}", fmt.Sprint(value))
		}
	case []any:
		for i, value := range v {
			result = strings.ReplaceAll(result, "{"+strconv.Itoa(i)+"}", fmt.Sprint(value))
		}
	}
	return result
}

// fieldLabels maps technical field names to human-readable labels.
var fieldLabels = map[string]string{
	"partnerName":   "Partner Name",
	"street":        "Street",
	"city":          "City",
	"postalCode":    "Postal Code",
	"country":       "Country",
	"emailAddress":  "Email Address",
	"accountNumber": "Account Number",
	"iban":          "IBAN",
	"vatNumber":     "VAT Number",
	"bankName":      "Bank Name",
	"paymentTerms":  "Payment Terms",
	"paymentMethod": "Payment Method",
}

// FieldLabel returns a human label for a field, falling back to humanized
// camelCase (partnerName -> Partner Name) when no label is registered.
func FieldLabel(field string) string {
	if field == "" {
		return "Field"
	}
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return humanize(field)
}

func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
