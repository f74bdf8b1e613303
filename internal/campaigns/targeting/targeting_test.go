package targeting

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"collectflow_backend/internal/consumers/repository"
	"collectflow_backend/platform/money"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func consumer(folderID *uuid.UUID) repository.Consumer {
	return repository.Consumer{
		ID:        uuid.New(),
		TenantID:  uuid.New(),
		FolderID:  folderID,
		FirstName: "Avery",
		CreatedAt: testNow.AddDate(0, 0, -30),
	}
}

func account(consumerID uuid.UUID, balance int64, status string, folderID *uuid.UUID) repository.Account {
	return repository.Account{
		ID:           uuid.New(),
		ConsumerID:   consumerID,
		FolderID:     folderID,
		BalanceCents: balance,
		Status:       status,
	}
}

func ids(cs []repository.Consumer) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(cs))
	for _, c := range cs {
		out[c.ID] = true
	}
	return out
}

func TestFolderTargetingFailsClosed(t *testing.T) {
	c := consumer(nil)
	spec := Spec{TargetType: TargetFolder}

	got := filterConsumersAt([]repository.Consumer{c}, nil, spec, testNow)
	if len(got) != 0 {
		t.Fatalf("empty folder set must match nobody, matched %d", len(got))
	}
}

func TestFolderTargetingMatchesConsumerOrAccountFolder(t *testing.T) {
	folder := uuid.New()
	other := uuid.New()

	inFolder := consumer(&folder)
	viaAccount := consumer(nil)
	outside := consumer(&other)

	accounts := []repository.Account{
		account(viaAccount.ID, 1000, "open", &folder),
		account(outside.ID, 1000, "open", nil),
	}
	spec := Spec{TargetType: TargetFolder, TargetFolderIDs: []uuid.UUID{folder}}

	got := ids(filterConsumersAt([]repository.Consumer{inFolder, viaAccount, outside}, accounts, spec, testNow))
	if !got[inFolder.ID] || !got[viaAccount.ID] {
		t.Fatalf("consumers in the folder were not matched: %v", got)
	}
	if got[outside.ID] {
		t.Fatalf("consumer outside the folder was matched")
	}
}

func TestCustomFiltersAreANDed(t *testing.T) {
	rich := consumer(nil)
	richAccounts := []repository.Account{account(rich.ID, 500000, "open", nil)}

	spec := Spec{
		TargetType: TargetCustom,
		CustomFilters: CustomFilters{
			BalanceMin: "$1,000.00",
			Status:     "overdue",
		},
	}

	// Balance passes, status does not: must be excluded.
	got := filterConsumersAt([]repository.Consumer{rich}, richAccounts, spec, testNow)
	if len(got) != 0 {
		t.Fatalf("consumer matching only one of two filters was included")
	}

	richAccounts[0].Status = "Overdue"
	got = filterConsumersAt([]repository.Consumer{rich}, richAccounts, spec, testNow)
	if len(got) != 1 {
		t.Fatalf("consumer matching both filters (status case-insensitive) was excluded")
	}
}

func TestCustomBalanceBounds(t *testing.T) {
	c := consumer(nil)
	accounts := []repository.Account{
		account(c.ID, 30000, "open", nil),
		account(c.ID, 45000, "open", nil),
	}

	spec := Spec{TargetType: TargetCustom, CustomFilters: CustomFilters{BalanceMin: "$500", BalanceMax: "$1000"}}
	if got := filterConsumersAt([]repository.Consumer{c}, accounts, spec, testNow); len(got) != 1 {
		t.Fatalf("total balance $750 should match [$500, $1000]")
	}

	spec.CustomFilters.BalanceMax = "$700"
	if got := filterConsumersAt([]repository.Consumer{c}, accounts, spec, testNow); len(got) != 0 {
		t.Fatalf("total balance $750 should fail max $700")
	}
}

func TestCustomFilterParseFailureDegradesToAbsent(t *testing.T) {
	c := consumer(nil)
	accounts := []repository.Account{account(c.ID, 100, "open", nil)}

	spec := Spec{
		TargetType: TargetCustom,
		CustomFilters: CustomFilters{
			BalanceMin:      "not a number",
			LastContactDays: "soon",
		},
	}
	if got := filterConsumersAt([]repository.Consumer{c}, accounts, spec, testNow); len(got) != 1 {
		t.Fatalf("unparseable filters should not exclude anyone")
	}
}

func TestCustomStatusMatchesMetadataHint(t *testing.T) {
	c := consumer(nil)
	c.Metadata = map[string]string{"status": "Disputed"}

	spec := Spec{TargetType: TargetCustom, CustomFilters: CustomFilters{Status: "disputed"}}
	if got := filterConsumersAt([]repository.Consumer{c}, nil, spec, testNow); len(got) != 1 {
		t.Fatalf("metadata status hint should satisfy the status filter")
	}
}

func TestCustomLastContactDays(t *testing.T) {
	stale := consumer(nil)
	stale.Metadata = map[string]string{"lastContactAt": testNow.AddDate(0, 0, -45).Format(time.RFC3339)}

	fresh := consumer(nil)
	registered := testNow.AddDate(0, 0, -3)
	fresh.RegisteredAt = &registered

	undated := consumer(nil)
	undated.CreatedAt = time.Time{}

	spec := Spec{TargetType: TargetCustom, CustomFilters: CustomFilters{LastContactDays: "30"}}
	got := ids(filterConsumersAt([]repository.Consumer{stale, fresh, undated}, nil, spec, testNow))

	if !got[stale.ID] {
		t.Fatalf("consumer last contacted 45 days ago should match a 30-day threshold")
	}
	if got[fresh.ID] {
		t.Fatalf("consumer registered 3 days ago should not match a 30-day threshold")
	}
	if got[undated.ID] {
		t.Fatalf("consumer with no resolvable contact date must be excluded")
	}
}

func TestAllTargetGroups(t *testing.T) {
	withBalance := consumer(nil)
	zeroBalance := consumer(nil)
	declined := consumer(nil)
	declined.Metadata = map[string]string{"status": "decline"}
	recent := consumer(nil)
	recent.CreatedAt = testNow.Add(-2 * time.Hour)

	all := []repository.Consumer{withBalance, zeroBalance, declined, recent}
	accounts := []repository.Account{
		account(withBalance.ID, 100, "open", nil),
		account(zeroBalance.ID, 0, "open", nil),
	}

	got := ids(filterConsumersAt(all, accounts, Spec{TargetType: TargetAll, TargetGroup: "with-balance"}, testNow))
	if !got[withBalance.ID] || got[zeroBalance.ID] {
		t.Fatalf("with-balance group mismatch: %v", got)
	}

	got = ids(filterConsumersAt(all, accounts, Spec{TargetType: TargetAll, TargetGroup: "decline"}, testNow))
	if !got[declined.ID] || got[withBalance.ID] {
		t.Fatalf("decline group mismatch: %v", got)
	}

	got = ids(filterConsumersAt(all, accounts, Spec{TargetType: TargetAll, TargetGroup: "recent-upload"}, testNow))
	if !got[recent.ID] || got[withBalance.ID] {
		t.Fatalf("recent-upload group mismatch: %v", got)
	}

	got = ids(filterConsumersAt(all, accounts, Spec{TargetType: TargetAll}, testNow))
	if len(got) != len(all) {
		t.Fatalf("default group should match everyone, matched %d", len(got))
	}
}

func TestSanitizeUnknownTypeFallsBackToAll(t *testing.T) {
	spec := Sanitize(Spec{TargetType: "segment", TargetGroup: "  with-balance "})
	if spec.TargetType != TargetAll {
		t.Fatalf("unknown target type should sanitize to all, got %q", spec.TargetType)
	}
	if spec.TargetGroup != "with-balance" {
		t.Fatalf("target group not trimmed: %q", spec.TargetGroup)
	}
}

func TestMonetaryRoundTrip(t *testing.T) {
	// The display formatter and the targeting parser agree for any cents value.
	for _, v := range []int64{0, 1, 99, 100, 12345, 999999, 100000001} {
		s := money.FormatCents(v)
		got, ok := money.ParseCurrencyToCents(s)
		if !ok {
			t.Fatalf("failed to parse %q", s)
		}
		if got != v {
			t.Fatalf("round trip %d -> %q -> %d", v, s, got)
		}
	}
}
