// Package arrangements models payment-plan offers and derives the
// human-readable summaries shown to consumers in rendered messages.
package arrangements

import (
	"time"

	"github.com/google/uuid"
)

// PlanType is the closed set of payment-plan shapes.
type PlanType string

const (
	PlanRange          PlanType = "range"
	PlanFixedMonthly   PlanType = "fixed_monthly"
	PlanSettlement     PlanType = "settlement"
	PlanCustomTerms    PlanType = "custom_terms"
	PlanOneTimePayment PlanType = "one_time_payment"
)

// Option is a payment-plan template offered by an agency. All monetary
// fields are integer cents; percentage fields are basis points.
type Option struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenantId"`
	Name     string    `json:"name"`
	PlanType PlanType  `json:"planType"`

	// range / fixed_monthly
	MonthlyPaymentMinCents *int64 `json:"monthlyPaymentMinCents,omitempty"`
	MonthlyPaymentMaxCents *int64 `json:"monthlyPaymentMaxCents,omitempty"`
	FixedMonthlyCents      *int64 `json:"fixedMonthlyCents,omitempty"`
	MaxTermMonths          *int   `json:"maxTermMonths,omitempty"`

	// eligibility bounds on the consumer's total balance
	BalanceMinCents *int64 `json:"balanceMinCents,omitempty"`
	BalanceMaxCents *int64 `json:"balanceMaxCents,omitempty"`

	// settlement
	PayoffPercentageBasisPoints *int64     `json:"payoffPercentageBasisPoints,omitempty"`
	SettlementPaymentCount      *int       `json:"settlementPaymentCount,omitempty"`
	SettlementTotalCents        *int64     `json:"settlementTotalCents,omitempty"`
	PayoffText                  string     `json:"payoffText,omitempty"`
	ExpiresAt                   *time.Time `json:"expiresAt,omitempty"`

	// custom_terms
	TermsText string `json:"termsText,omitempty"`

	// one_time_payment
	OneTimeMinimumCents *int64 `json:"oneTimeMinimumCents,omitempty"`

	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlanSummary is the display form of an Option.
type PlanSummary struct {
	PlanType PlanType `json:"planType"`
	Headline string   `json:"headline"`
	Detail   string   `json:"detail,omitempty"`
}

// Enriched carries every arrangement-derived template value, precomputed so
// the template resolver does no formatting of its own.
type Enriched struct {
	Name         string
	Summary      string
	MonthlyRange string
	BalanceRange string
	MaxTermLabel string
	Details      string
}
