package arrangements

import (
	"testing"
	"time"
)

func cents(v int64) *int64 { return &v }
func num(v int) *int       { return &v }

func TestSummaryRangeBothBounds(t *testing.T) {
	s := Summary(Option{
		PlanType:               PlanRange,
		MonthlyPaymentMinCents: cents(5000),
		MonthlyPaymentMaxCents: cents(25000),
		MaxTermMonths:          num(12),
	})
	if s.Headline != "Monthly payments between $50.00 - $250.00" {
		t.Fatalf("headline = %q", s.Headline)
	}
	if s.Detail != "Up to 12 months" {
		t.Fatalf("detail = %q", s.Detail)
	}
}

func TestSummaryRangeSingleBound(t *testing.T) {
	s := Summary(Option{PlanType: PlanRange, MonthlyPaymentMinCents: cents(5000)})
	if s.Headline != "Monthly payments from $50.00" {
		t.Fatalf("min-only headline = %q", s.Headline)
	}

	s = Summary(Option{PlanType: PlanRange, MonthlyPaymentMaxCents: cents(25000)})
	if s.Headline != "Monthly payments up to $250.00" {
		t.Fatalf("max-only headline = %q", s.Headline)
	}

	s = Summary(Option{PlanType: PlanRange})
	if s.Headline != "Flexible monthly payments" {
		t.Fatalf("no-bounds headline = %q", s.Headline)
	}
	if s.Detail != "" {
		t.Fatalf("no-term detail = %q", s.Detail)
	}
}

func TestSummaryDefaultsToRange(t *testing.T) {
	s := Summary(Option{MonthlyPaymentMinCents: cents(1000)})
	if s.PlanType != PlanRange {
		t.Fatalf("empty plan type should default to range, got %q", s.PlanType)
	}
	s = Summary(Option{PlanType: "weird_future_plan", MonthlyPaymentMinCents: cents(1000)})
	if s.Headline != "Monthly payments from $10.00" {
		t.Fatalf("unknown plan type should use range formatting, got %q", s.Headline)
	}
}

func TestSummaryFixedMonthly(t *testing.T) {
	s := Summary(Option{PlanType: PlanFixedMonthly, FixedMonthlyCents: cents(7500), MaxTermMonths: num(24)})
	if s.Headline != "$75.00/month" {
		t.Fatalf("headline = %q", s.Headline)
	}
	if s.Detail != "for up to 24 months" {
		t.Fatalf("detail = %q", s.Detail)
	}

	s = Summary(Option{PlanType: PlanFixedMonthly, FixedMonthlyCents: cents(7500)})
	if s.Detail != "until paid in full" {
		t.Fatalf("open-ended detail = %q", s.Detail)
	}
}

func TestSummarySettlementPayInFull(t *testing.T) {
	s := Summary(Option{
		PlanType:                    PlanSettlement,
		PayoffPercentageBasisPoints: cents(5000),
		SettlementPaymentCount:      num(1),
	})
	if s.Headline != "Settle for 50% - Pay in Full" {
		t.Fatalf("headline = %q", s.Headline)
	}
}

func TestSummarySettlementMultiPayment(t *testing.T) {
	expires := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	s := Summary(Option{
		PlanType:                    PlanSettlement,
		PayoffPercentageBasisPoints: cents(4000),
		SettlementPaymentCount:      num(3),
		SettlementTotalCents:        cents(90000),
		ExpiresAt:                   &expires,
		PayoffText:                  "Balance forgiven after final payment",
	})
	if s.Headline != "Settle for 40% - 3 payments of $300.00" {
		t.Fatalf("headline = %q", s.Headline)
	}
	want := "3 payments of $300.00 each • Offer expires June 15, 2024 • Balance forgiven after final payment"
	if s.Detail != want {
		t.Fatalf("detail = %q, want %q", s.Detail, want)
	}
}

func TestSummarySettlementFractionalPercentage(t *testing.T) {
	s := Summary(Option{PlanType: PlanSettlement, PayoffPercentageBasisPoints: cents(1250)})
	if s.Headline != "Settle for 12.5%" {
		t.Fatalf("headline = %q", s.Headline)
	}
}

func TestSummarySettlementFreeTextFallback(t *testing.T) {
	s := Summary(Option{PlanType: PlanSettlement, PayoffText: "Ask about our hardship program"})
	if s.Headline != "Ask about our hardship program" {
		t.Fatalf("headline = %q", s.Headline)
	}
	if s.Detail != "" {
		t.Fatalf("free text used in headline should not repeat in detail, got %q", s.Detail)
	}
}

func TestSummaryCustomTerms(t *testing.T) {
	s := Summary(Option{PlanType: PlanCustomTerms, TermsText: "Call us for terms"})
	if s.Headline != "Call us for terms" {
		t.Fatalf("headline = %q", s.Headline)
	}
	s = Summary(Option{PlanType: PlanCustomTerms})
	if s.Headline != "Contact us to discuss payment options" {
		t.Fatalf("fallback headline = %q", s.Headline)
	}
}

func TestSummaryOneTimePayment(t *testing.T) {
	s := Summary(Option{PlanType: PlanOneTimePayment, OneTimeMinimumCents: cents(10000)})
	if s.Headline != "One-time payment of $100.00 or more" {
		t.Fatalf("headline = %q", s.Headline)
	}
	if s.Detail != "Pay what you can, when you can" {
		t.Fatalf("detail = %q", s.Detail)
	}

	s = Summary(Option{PlanType: PlanOneTimePayment})
	if s.Headline != "Flexible one-time payment" {
		t.Fatalf("fallback headline = %q", s.Headline)
	}
}

func TestEnrich(t *testing.T) {
	if Enrich(nil) != nil {
		t.Fatalf("nil option should enrich to nil")
	}

	e := Enrich(&Option{
		Name:                   "Starter Plan",
		PlanType:               PlanRange,
		MonthlyPaymentMinCents: cents(5000),
		MonthlyPaymentMaxCents: cents(25000),
		BalanceMinCents:        cents(100000),
		BalanceMaxCents:        cents(500000),
		MaxTermMonths:          num(12),
	})
	if e.Name != "Starter Plan" {
		t.Fatalf("name = %q", e.Name)
	}
	if e.Summary != "Monthly payments between $50.00 - $250.00" {
		t.Fatalf("summary = %q", e.Summary)
	}
	if e.MonthlyRange != "$50.00 - $250.00" {
		t.Fatalf("monthly range = %q", e.MonthlyRange)
	}
	if e.BalanceRange != "$1,000.00 - $5,000.00" {
		t.Fatalf("balance range = %q", e.BalanceRange)
	}
	if e.MaxTermLabel != "12 months" {
		t.Fatalf("term label = %q", e.MaxTermLabel)
	}
	if e.Details != "Up to 12 months" {
		t.Fatalf("details = %q", e.Details)
	}
}
