// Package templating substitutes {{placeholder}} tokens in message bodies.
// Resolution is a single flat pass: recognized tokens are replaced with
// string values from the render context, unknown tokens are left verbatim.
// No formatting happens here; formatted values arrive precomputed.
package templating

import (
	"regexp"
	"strings"

	"collectflow_backend/internal/arrangements"
)

// ConsumerInfo is the consumer slice of the render context.
type ConsumerInfo struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// AccountInfo is the account slice of the render context.
// Balance and DueDate are display-formatted strings.
type AccountInfo struct {
	AccountNumber string
	Balance       string
	CreditorName  string
	Status        string
	DueDate       string
}

// TenantInfo is the agency slice of the render context.
type TenantInfo struct {
	Name  string
	Email string
	Phone string
}

// Context carries everything a template render may reference. Nil slices
// leave their tokens unresolved (verbatim in the output).
type Context struct {
	Consumer    *ConsumerInfo
	Account     *AccountInfo
	Tenant      *TenantInfo
	Arrangement *arrangements.Enriched
}

var tokenPattern = regexp.MustCompile(`\{\{([a-zA-Z][a-zA-Z0-9_]*)\}\}`)

// Replace substitutes every recognized {{token}} in template using ctx.
// Deterministic: the same inputs always produce the same output.
func Replace(template string, ctx Context) string {
	values := ctx.values()
	return tokenPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-2]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})
}

func (c Context) values() map[string]string {
	values := make(map[string]string, 24)

	if c.Consumer != nil {
		values["firstName"] = c.Consumer.FirstName
		values["lastName"] = c.Consumer.LastName
		values["fullName"] = strings.TrimSpace(c.Consumer.FirstName + " " + c.Consumer.LastName)
		values["email"] = c.Consumer.Email
		values["phone"] = c.Consumer.Phone
	}

	if c.Account != nil {
		values["accountNumber"] = c.Account.AccountNumber
		values["balance"] = c.Account.Balance
		values["creditorName"] = c.Account.CreditorName
		values["status"] = c.Account.Status
		values["dueDate"] = c.Account.DueDate
	}

	if c.Tenant != nil {
		values["agencyName"] = c.Tenant.Name
		values["agencyEmail"] = c.Tenant.Email
		values["agencyPhone"] = c.Tenant.Phone
	}

	if c.Arrangement != nil {
		values["arrangementName"] = c.Arrangement.Name
		values["arrangementSummary"] = c.Arrangement.Summary
		values["arrangementMonthlyRange"] = c.Arrangement.MonthlyRange
		values["arrangementBalanceRange"] = c.Arrangement.BalanceRange
		values["arrangementMaxTermLabel"] = c.Arrangement.MaxTermLabel
		values["arrangementDetails"] = c.Arrangement.Details
	}

	return values
}
