// Package phone normalizes consumer phone numbers to E.164 for SMS delivery.
package phone

import (
	"fmt"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is assumed when a number has no country prefix.
const DefaultRegion = "US"

// Normalize parses a raw phone number and returns it in E.164 form.
func Normalize(raw string) (string, error) {
	return NormalizeRegion(raw, DefaultRegion)
}

// NormalizeRegion parses a raw phone number against the given region.
func NormalizeRegion(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number: %q", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// IsValid reports whether raw parses to a valid number.
func IsValid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}
