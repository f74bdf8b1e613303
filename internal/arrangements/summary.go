package arrangements

import (
	"fmt"
	"strconv"
	"strings"

	"collectflow_backend/platform/money"
)

// Summary derives the display headline and detail for a payment plan.
// Dispatch is a closed switch on PlanType; an empty or unknown plan type
// falls back to range-style formatting with whatever bounds are present.
func Summary(opt Option) PlanSummary {
	planType := opt.PlanType
	if planType == "" {
		planType = PlanRange
	}

	switch planType {
	case PlanFixedMonthly:
		return fixedMonthlySummary(opt)
	case PlanSettlement:
		return settlementSummary(opt)
	case PlanCustomTerms:
		return customTermsSummary(opt)
	case PlanOneTimePayment:
		return oneTimeSummary(opt)
	case PlanRange:
		return rangeSummary(opt, PlanRange)
	default:
		return rangeSummary(opt, planType)
	}
}

func rangeSummary(opt Option, planType PlanType) PlanSummary {
	min := opt.MonthlyPaymentMinCents
	max := opt.MonthlyPaymentMaxCents

	var headline string
	switch {
	case min != nil && max != nil:
		headline = fmt.Sprintf("Monthly payments between %s - %s", money.FormatCents(*min), money.FormatCents(*max))
	case min != nil:
		headline = fmt.Sprintf("Monthly payments from %s", money.FormatCents(*min))
	case max != nil:
		headline = fmt.Sprintf("Monthly payments up to %s", money.FormatCents(*max))
	default:
		headline = "Flexible monthly payments"
	}

	detail := ""
	if opt.MaxTermMonths != nil && *opt.MaxTermMonths > 0 {
		detail = fmt.Sprintf("Up to %d months", *opt.MaxTermMonths)
	}

	return PlanSummary{PlanType: planType, Headline: headline, Detail: detail}
}

func fixedMonthlySummary(opt Option) PlanSummary {
	if opt.FixedMonthlyCents == nil {
		return rangeSummary(opt, PlanFixedMonthly)
	}

	headline := fmt.Sprintf("%s/month", money.FormatCents(*opt.FixedMonthlyCents))
	detail := "until paid in full"
	if opt.MaxTermMonths != nil && *opt.MaxTermMonths > 0 {
		detail = fmt.Sprintf("for up to %d months", *opt.MaxTermMonths)
	}

	return PlanSummary{PlanType: PlanFixedMonthly, Headline: headline, Detail: detail}
}

func settlementSummary(opt Option) PlanSummary {
	count := 0
	if opt.SettlementPaymentCount != nil {
		count = *opt.SettlementPaymentCount
	}

	var headline string
	payoffTextInHeadline := false
	switch {
	case opt.PayoffPercentageBasisPoints != nil && count == 1:
		headline = fmt.Sprintf("Settle for %s%% - Pay in Full", formatBasisPoints(*opt.PayoffPercentageBasisPoints))
	case opt.PayoffPercentageBasisPoints != nil && count > 1 && opt.SettlementTotalCents != nil:
		per := *opt.SettlementTotalCents / int64(count)
		headline = fmt.Sprintf("Settle for %s%% - %d payments of %s",
			formatBasisPoints(*opt.PayoffPercentageBasisPoints), count, money.FormatCents(per))
	case opt.PayoffPercentageBasisPoints != nil:
		headline = fmt.Sprintf("Settle for %s%%", formatBasisPoints(*opt.PayoffPercentageBasisPoints))
	case opt.PayoffText != "":
		headline = opt.PayoffText
		payoffTextInHeadline = true
	default:
		headline = "Settlement offer"
	}

	var parts []string
	if count > 1 && opt.SettlementTotalCents != nil {
		per := *opt.SettlementTotalCents / int64(count)
		parts = append(parts, fmt.Sprintf("%d payments of %s each", count, money.FormatCents(per)))
	}
	if opt.ExpiresAt != nil {
		parts = append(parts, fmt.Sprintf("Offer expires %s", opt.ExpiresAt.Format("January 2, 2006")))
	}
	if opt.PayoffText != "" && !payoffTextInHeadline {
		parts = append(parts, opt.PayoffText)
	}

	return PlanSummary{PlanType: PlanSettlement, Headline: headline, Detail: strings.Join(parts, " • ")}
}

func customTermsSummary(opt Option) PlanSummary {
	headline := opt.TermsText
	if headline == "" {
		headline = "Contact us to discuss payment options"
	}
	return PlanSummary{PlanType: PlanCustomTerms, Headline: headline}
}

func oneTimeSummary(opt Option) PlanSummary {
	headline := "Flexible one-time payment"
	if opt.OneTimeMinimumCents != nil {
		headline = fmt.Sprintf("One-time payment of %s or more", money.FormatCents(*opt.OneTimeMinimumCents))
	}
	return PlanSummary{
		PlanType: PlanOneTimePayment,
		Headline: headline,
		Detail:   "Pay what you can, when you can",
	}
}

// formatBasisPoints renders basis points as a percentage, dropping
// insignificant decimals: 5000 -> "50", 1250 -> "12.5".
func formatBasisPoints(bps int64) string {
	return strconv.FormatFloat(float64(bps)/100.0, 'f', -1, 64)
}

// Enrich precomputes every arrangement-derived template value for one
// render. Returns nil for a nil option so callers can pass it straight
// through to the template resolver.
func Enrich(opt *Option) *Enriched {
	if opt == nil {
		return nil
	}

	summary := Summary(*opt)

	return &Enriched{
		Name:         opt.Name,
		Summary:      summary.Headline,
		MonthlyRange: formatRange(opt.MonthlyPaymentMinCents, opt.MonthlyPaymentMaxCents),
		BalanceRange: formatRange(opt.BalanceMinCents, opt.BalanceMaxCents),
		MaxTermLabel: formatTerm(opt.MaxTermMonths),
		Details:      summary.Detail,
	}
}

func formatRange(min, max *int64) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%s - %s", money.FormatCents(*min), money.FormatCents(*max))
	case min != nil:
		return fmt.Sprintf("%s+", money.FormatCents(*min))
	case max != nil:
		return fmt.Sprintf("up to %s", money.FormatCents(*max))
	default:
		return ""
	}
}

func formatTerm(months *int) string {
	if months == nil || *months <= 0 {
		return ""
	}
	return fmt.Sprintf("%d months", *months)
}
