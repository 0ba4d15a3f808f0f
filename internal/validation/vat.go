package validation

import (
	"fmt"
	"regexp"
)

// vatPatterns holds per-country VAT number formats: EU member states plus
// a few non-EU identifiers. An unlisted country is a hard error, not a
// skip; absence of a VAT rule is itself reported for identity data.
var vatPatterns = map[string]*regexp.Regexp{
	"AT": regexp.MustCompile(`^ATU[0-9]{8}$`),
	"BE": regexp.MustCompile(`^BE[0-9]{10}$`),
	"BG": regexp.MustCompile(`^BG[0-9]{9,10}$`),
	"HR": regexp.MustCompile(`^HR[0-9]{11}$`),
	"CY": regexp.MustCompile(`^CY[0-9]{8}[A-Z]$`),
	"CZ": regexp.MustCompile(`^CZ[0-9]{8,10}$`),
	"DK": regexp.MustCompile(`^DK[0-9]{8}$`),
	"EE": regexp.MustCompile(`^EE[0-9]{9}$`),
	"FI": regexp.MustCompile(`^FI[0-9]{8}$`),
	"FR": regexp.MustCompile(`^FR[A-HJ-NP-Z0-9]{2}[0-9]{9}$`),
	"DE": regexp.MustCompile(`^DE[0-9]{9}$`),
	"GR": regexp.MustCompile(`^GR[0-9]{9}$`),
	"HU": regexp.MustCompile(`^HU[0-9]{8}$`),
	"IE": regexp.MustCompile(`^IE[0-9][A-Z][0-9]{5}[A-Z]$|^IE[0-9]{7}[A-WY-Z][A-I]$`),
	"IT": regexp.MustCompile(`^IT[0-9]{11}$`),
	"LV": regexp.MustCompile(`^LV[0-9]{11}$`),
	"LT": regexp.MustCompile(`^LT([0-9]{9}|[0-9]{12})$`),
	"LU": regexp.MustCompile(`^LU[0-9]{8}$`),
	"MT": regexp.MustCompile(`^MT[0-9]{8}$`),
	"NL": regexp.MustCompile(`^NL[0-9]{9}B[0-9]{2}$`),
	"PL": regexp.MustCompile(`^PL[0-9]{10}$`),
	"PT": regexp.MustCompile(`^PT[0-9]{9}$`),
	"RO": regexp.MustCompile(`^RO[0-9]{2,10}$`),
	"SK": regexp.MustCompile(`^SK[0-9]{10}$`),
	"SI": regexp.MustCompile(`^SI[0-9]{8}$`),
	"ES": regexp.MustCompile(`^ES[A-Z][0-9]{7}[0-9A-Z]$`),
	"SE": regexp.MustCompile(`^SE[0-9]{12}$`),
	"GB": regexp.MustCompile(`^GB([0-9]{9}|[0-9]{12})$`),
	"CH": regexp.MustCompile(`^CHE[0-9]{9}(MWST)?$`),
}

var vatCountryPrefix = regexp.MustCompile(`^[A-Z]{2}`)

// ValidateVAT checks a VAT number against its country's format. The
// country comes from the leading two letters.
func ValidateVAT(vatNumber string) error {
	if vatNumber == "" {
		return fmt.Errorf("VAT number is required")
	}

	countryCode := vatCountryPrefix.FindString(vatNumber)
	if countryCode == "" {
		return fmt.Errorf("VAT number must start with 2-letter country code")
	}

	pattern, ok := vatPatterns[countryCode]
	if !ok {
		return fmt.Errorf("VAT validation not supported for country: %s", countryCode)
	}
	if !pattern.MatchString(vatNumber) {
		return fmt.Errorf("invalid VAT number format for %s", countryCode)
	}
	return nil
}
