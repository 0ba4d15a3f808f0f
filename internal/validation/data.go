package validation

import (
	"fmt"
	"strings"
)

// entitySections maps rule target entities to the request payload property
// holding the child collection.
var entitySections = map[string]string{
	"PartnerAddresses":       "addresses",
	"PartnerEmails":          "emails",
	"PartnerBanks":           "banks",
	"PartnerVatIds":          "vatIds",
	"PartnerIdentifications": "identifications",
	"SubAccounts":            "subAccounts",
}

const mainEntity = "BusinessPartnerRequests"

func sectionForEntity(entity string) string {
	if section, ok := entitySections[entity]; ok {
		return section
	}
	return strings.ToLower(entity)
}

// records coerces a child collection into []map[string]any. Decoded JSON
// arrives as []any; Go callers may hand in []map[string]any directly.
func records(data map[string]any, key string) []map[string]any {
	switch section := data[key].(type) {
	case []map[string]any:
		return section
	case []any:
		result := make([]map[string]any, 0, len(section))
		for _, item := range section {
			if record, ok := item.(map[string]any); ok {
				result = append(result, record)
			}
		}
		return result
	default:
		return nil
	}
}

// fieldValue extracts the value(s) a field rule targets: a scalar for main
// entity fields, a flat []any for child collection fields, including the
// doubly nested sub-account emails/banks used by Salesforce payloads.
func fieldValue(data map[string]any, targetEntity, targetField string) any {
	if targetField == "" {
		return nil
	}

	if targetEntity == "SubAccountEmails" || targetEntity == "SubAccountBanks" {
		child := "emails"
		if targetEntity == "SubAccountBanks" {
			child = "banks"
		}
		var values []any
		for _, subAccount := range records(data, "subAccounts") {
			for _, record := range records(subAccount, child) {
				if v, ok := record[targetField]; ok && v != nil {
					values = append(values, v)
				}
			}
		}
		if len(values) == 0 {
			return nil
		}
		return values
	}

	if targetEntity != "" && targetEntity != mainEntity {
		section := records(data, sectionForEntity(targetEntity))
		if section == nil {
			return nil
		}
		values := make([]any, len(section))
		for i, record := range section {
			values[i] = record[targetField]
		}
		return values
	}

	return data[targetField]
}

func isEmpty(v any) bool {
	return v == nil || v == ""
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
