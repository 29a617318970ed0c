package order

import (
	"regexp"
	"strings"

	"cookie-cutter-backend/internal/apperr"
	"cookie-cutter-backend/internal/models"
)

// postcodeRules is keyed by lowercased country name. Countries without a
// rule fall back to a permissive non-empty check.
var postcodeRules = map[string]*regexp.Regexp{
	"australia":      regexp.MustCompile(`^\d{4}$`),
	"new zealand":    regexp.MustCompile(`^\d{4}$`),
	"united states":  regexp.MustCompile(`^\d{5}(-\d{4})?$`),
	"usa":            regexp.MustCompile(`^\d{5}(-\d{4})?$`),
	"united kingdom": regexp.MustCompile(`^[A-Za-z]{1,2}\d[A-Za-z\d]? ?\d[A-Za-z]{2}$`),
	"canada":         regexp.MustCompile(`^[A-Za-z]\d[A-Za-z] ?\d[A-Za-z]\d$`),
}

var defaultPostcodeRule = regexp.MustCompile(`^[\w][\w\- ]{1,8}[\w]$`)

func ValidatePostcode(country, postcode string) error {
	rule, ok := postcodeRules[strings.ToLower(strings.TrimSpace(country))]
	if !ok {
		rule = defaultPostcodeRule
	}
	if !rule.MatchString(postcode) {
		return apperr.E(apperr.KindValidation, "postcode %q is not valid for %s", postcode, country)
	}
	return nil
}

func validateAddress(a *models.DeliveryAddress) error {
	missing := []string{}
	if a.Street == "" {
		missing = append(missing, "street")
	}
	if a.Suburb == "" {
		missing = append(missing, "suburb")
	}
	if a.State == "" {
		missing = append(missing, "state")
	}
	if a.Postcode == "" {
		missing = append(missing, "postcode")
	}
	if a.Country == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return apperr.E(apperr.KindValidation, "delivery address is missing required fields").
			WithDetail("missing_fields", missing)
	}
	return ValidatePostcode(a.Country, a.Postcode)
}
