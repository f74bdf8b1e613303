package templating

import (
	"strings"
	"testing"

	"collectflow_backend/internal/arrangements"
)

func cents(v int64) *int64 { return &v }

func fullContext() Context {
	return Context{
		Consumer: &ConsumerInfo{FirstName: "Avery", LastName: "Stone", Email: "avery@example.com", Phone: "+15551234567"},
		Account:  &AccountInfo{AccountNumber: "ACC-1001", Balance: "$1,250.00", CreditorName: "Acme Bank", Status: "open", DueDate: "2024-02-01"},
		Tenant:   &TenantInfo{Name: "Northwind Recovery", Email: "support@northwind.example", Phone: "+15550001111"},
	}
}

func TestReplaceConsumerAccountTenantTokens(t *testing.T) {
	tpl := "Hi {{firstName}} {{lastName}}, your {{creditorName}} account {{accountNumber}} has a balance of {{balance}}. Questions? Contact {{agencyName}} at {{agencyEmail}}."
	got := Replace(tpl, fullContext())
	want := "Hi Avery Stone, your Acme Bank account ACC-1001 has a balance of $1,250.00. Questions? Contact Northwind Recovery at support@northwind.example."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReplaceWithEnrichedArrangement(t *testing.T) {
	enriched := arrangements.Enrich(&arrangements.Option{
		Name:                   "Starter Plan",
		PlanType:               arrangements.PlanRange,
		MonthlyPaymentMinCents: cents(5000),
		MonthlyPaymentMaxCents: cents(25000),
	})
	ctx := fullContext()
	ctx.Arrangement = enriched

	got := Replace("Hi {{firstName}}, balance {{arrangementSummary}}", ctx)
	if !strings.HasPrefix(got, "Hi Avery, balance Monthly payments between $50.00 - $250.00") {
		t.Fatalf("got %q", got)
	}
	if strings.Contains(got, "{{") {
		t.Fatalf("unresolved token remains in %q", got)
	}
}

func TestReplaceArrangementTokensWithoutContextStayVerbatim(t *testing.T) {
	got := Replace("Plan: {{arrangementSummary}}", fullContext())
	if got != "Plan: {{arrangementSummary}}" {
		t.Fatalf("got %q", got)
	}
}

func TestReplaceUnknownTokenPassesThrough(t *testing.T) {
	got := Replace("Value: {{notARealVariable}}", fullContext())
	if got != "Value: {{notARealVariable}}" {
		t.Fatalf("got %q", got)
	}
}

func TestReplaceFullName(t *testing.T) {
	ctx := Context{Consumer: &ConsumerInfo{FirstName: "Avery"}}
	if got := Replace("{{fullName}}", ctx); got != "Avery" {
		t.Fatalf("fullName with missing last name = %q", got)
	}
}

func TestReplaceIsDeterministic(t *testing.T) {
	ctx := fullContext()
	tpl := "{{firstName}} {{balance}} {{agencyPhone}} {{unknownToken}}"
	first := Replace(tpl, ctx)
	for i := 0; i < 5; i++ {
		if got := Replace(tpl, ctx); got != first {
			t.Fatalf("render %d differs: %q vs %q", i, got, first)
		}
	}
}

func TestReplaceEmptyTemplate(t *testing.T) {
	if got := Replace("", fullContext()); got != "" {
		t.Fatalf("got %q", got)
	}
}
