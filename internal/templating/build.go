package templating

import (
	"collectflow_backend/internal/arrangements"
	consumerrepo "collectflow_backend/internal/consumers/repository"
	tenantrepo "collectflow_backend/internal/tenants/repository"
	"collectflow_backend/platform/money"
)

// FromDomain maps domain records into a render context. Monetary and date
// fields are display-formatted here so the resolver stays a plain
// string-for-string substitution. Nil records leave their section unset.
func FromDomain(c *consumerrepo.Consumer, a *consumerrepo.Account, t *tenantrepo.Tenant, enriched *arrangements.Enriched) Context {
	ctx := Context{Arrangement: enriched}

	if c != nil {
		ctx.Consumer = &ConsumerInfo{
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Phone:     c.Phone,
		}
	}

	if a != nil {
		info := &AccountInfo{
			AccountNumber: a.AccountNumber,
			Balance:       money.FormatCents(a.BalanceCents),
			CreditorName:  a.CreditorName,
			Status:        a.Status,
		}
		if a.DueDate != nil {
			info.DueDate = a.DueDate.Format("January 2, 2006")
		}
		ctx.Account = info
	}

	if t != nil {
		ctx.Tenant = &TenantInfo{
			Name:  t.Name,
			Email: t.Email,
			Phone: t.Phone,
		}
	}

	return ctx
}
