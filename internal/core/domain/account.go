package domain

import "strings"

// Account identifies an advertising account under management.
type Account struct {
	ID           string
	Name         string
	CurrencyCode string
	TimeZone     string
}

// FormatCustomerID renders a 10-digit customer ID as XXX-XXX-XXXX. Inputs
// that are not 10 digits after stripping dashes are returned unchanged.
func FormatCustomerID(id string) string {
	digits := strings.ReplaceAll(id, "-", "")
	if len(digits) != 10 {
		return id
	}
	return digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
}

// NormalizeCustomerID strips dash formatting from a customer ID.
func NormalizeCustomerID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}
