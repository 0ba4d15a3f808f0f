package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ibanBasicFormat = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{1,30}$`)

// ibanLengths is the expected total length per country (ISO 13616 registry).
var ibanLengths = map[string]int{
	"AD": 24, "AE": 23, "AL": 28, "AT": 20, "AZ": 28, "BA": 20, "BE": 16,
	"BG": 22, "BH": 22, "BR": 29, "BY": 28, "CH": 21, "CR": 22, "CY": 28,
	"CZ": 24, "DE": 22, "DK": 18, "DO": 28, "EE": 20, "EG": 29, "ES": 24,
	"FI": 18, "FO": 18, "FR": 27, "GB": 22, "GE": 22, "GI": 23, "GL": 18,
	"GR": 27, "GT": 28, "HR": 21, "HU": 28, "IE": 22, "IL": 23, "IS": 26,
	"IT": 27, "JO": 30, "KW": 30, "KZ": 20, "LB": 28, "LI": 21, "LT": 20,
	"LU": 20, "LV": 21, "MC": 27, "MD": 24, "ME": 22, "MK": 19, "MR": 27,
	"MT": 31, "MU": 30, "NL": 18, "NO": 15, "PK": 24, "PL": 28, "PS": 29,
	"PT": 25, "QA": 29, "RO": 24, "RS": 22, "SA": 24, "SE": 24, "SI": 19,
	"SK": 24, "SM": 27, "TN": 24, "TR": 26, "UA": 29, "VA": 22, "VG": 24,
	"XK": 20,
}

// ValidateIBAN checks the basic format, the country-specific length where
// the country is known, and the ISO 7064 mod-97 check digits.
func ValidateIBAN(iban string) error {
	if iban == "" {
		return fmt.Errorf("IBAN is required")
	}

	clean := strings.ToUpper(strings.ReplaceAll(iban, " ", ""))

	if !ibanBasicFormat.MatchString(clean) {
		return fmt.Errorf("invalid IBAN format")
	}

	countryCode := clean[:2]
	if expected, ok := ibanLengths[countryCode]; ok && len(clean) != expected {
		return fmt.Errorf("IBAN length for %s should be %d characters, got %d", countryCode, expected, len(clean))
	}

	// Rearrange the first four characters to the end and map letters to
	// two-digit numbers (A=10 ... Z=35), then reduce mod 97 block-wise.
	rearranged := clean[4:] + clean[:4]
	var numeric strings.Builder
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			numeric.WriteString(strconv.Itoa(int(r) - 55))
		} else {
			numeric.WriteRune(r)
		}
	}

	remainder := numeric.String()
	for len(remainder) > 2 {
		end := 9
		if end > len(remainder) {
			end = len(remainder)
		}
		block, err := strconv.Atoi(remainder[:end])
		if err != nil {
			return fmt.Errorf("invalid IBAN format")
		}
		remainder = strconv.Itoa(block%97) + remainder[end:]
	}

	final, err := strconv.Atoi(remainder)
	if err != nil || final%97 != 1 {
		return fmt.Errorf("invalid IBAN check digits")
	}
	return nil
}
