// Package targeting evaluates campaign audience specifications against
// consumer and account snapshots. The evaluator is pure: it never touches
// storage itself.
package targeting

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"collectflow_backend/internal/consumers/repository"
	"collectflow_backend/platform/money"
)

// TargetType selects the audience strategy.
type TargetType string

const (
	TargetAll    TargetType = "all"
	TargetFolder TargetType = "folder"
	TargetCustom TargetType = "custom"
)

// CustomFilters are the optional consumer filters for custom targeting.
// Balance bounds arrive as currency strings from the UI; a value that does
// not parse is treated as if the filter were absent.
type CustomFilters struct {
	BalanceMin      string `json:"balanceMin,omitempty"`
	BalanceMax      string `json:"balanceMax,omitempty"`
	Status          string `json:"status,omitempty"`
	LastContactDays string `json:"lastContactDays,omitempty"`
}

// Spec describes who a campaign or sequence reaches.
type Spec struct {
	TargetGroup     string        `json:"targetGroup,omitempty"`
	TargetType      TargetType    `json:"targetType"`
	TargetFolderIDs []uuid.UUID   `json:"targetFolderIds,omitempty"`
	CustomFilters   CustomFilters `json:"customFilters,omitempty"`
}

// Sanitize normalizes a spec before evaluation. Unknown target
// types fall back to "all" and filter strings are trimmed. Sanitization
// never fails; malformed pieces are dropped.
func Sanitize(spec Spec) Spec {
	switch spec.TargetType {
	case TargetAll, TargetFolder, TargetCustom:
	default:
		spec.TargetType = TargetAll
	}
	spec.TargetGroup = strings.TrimSpace(spec.TargetGroup)
	spec.CustomFilters.BalanceMin = strings.TrimSpace(spec.CustomFilters.BalanceMin)
	spec.CustomFilters.BalanceMax = strings.TrimSpace(spec.CustomFilters.BalanceMax)
	spec.CustomFilters.Status = strings.TrimSpace(spec.CustomFilters.Status)
	spec.CustomFilters.LastContactDays = strings.TrimSpace(spec.CustomFilters.LastContactDays)
	return spec
}

// FilterConsumers returns the subset of consumers matching the targeting
// spec. Accounts are indexed by consumer once; each consumer is then
// evaluated independently.
func FilterConsumers(consumers []repository.Consumer, accounts []repository.Account, spec Spec) []repository.Consumer {
	return filterConsumersAt(consumers, accounts, spec, time.Now().UTC())
}

func filterConsumersAt(consumers []repository.Consumer, accounts []repository.Account, spec Spec, now time.Time) []repository.Consumer {
	spec = Sanitize(spec)

	byConsumer := make(map[uuid.UUID][]repository.Account, len(consumers))
	for _, a := range accounts {
		byConsumer[a.ConsumerID] = append(byConsumer[a.ConsumerID], a)
	}

	var out []repository.Consumer
	for _, c := range consumers {
		if matchesTargeting(c, byConsumer[c.ID], spec, now) {
			out = append(out, c)
		}
	}
	return out
}

func matchesTargeting(c repository.Consumer, accounts []repository.Account, spec Spec, now time.Time) bool {
	switch spec.TargetType {
	case TargetFolder:
		return matchesFolders(c, accounts, spec.TargetFolderIDs)
	case TargetCustom:
		return matchesCustomFilters(c, accounts, spec.CustomFilters, now)
	default:
		return matchesGroup(c, accounts, spec.TargetGroup, now)
	}
}

// matchesFolders fails closed: an empty folder set matches nobody.
func matchesFolders(c repository.Consumer, accounts []repository.Account, folderIDs []uuid.UUID) bool {
	if len(folderIDs) == 0 {
		return false
	}
	folders := make(map[uuid.UUID]struct{}, len(folderIDs))
	for _, id := range folderIDs {
		folders[id] = struct{}{}
	}

	if c.FolderID != nil {
		if _, ok := folders[*c.FolderID]; ok {
			return true
		}
	}
	for _, a := range accounts {
		if a.FolderID != nil {
			if _, ok := folders[*a.FolderID]; ok {
				return true
			}
		}
	}
	return false
}

// matchesCustomFilters requires every configured filter to pass. A filter
// whose value does not parse is skipped, never failed.
func matchesCustomFilters(c repository.Consumer, accounts []repository.Account, f CustomFilters, now time.Time) bool {
	totalBalance := int64(0)
	for _, a := range accounts {
		totalBalance += a.BalanceCents
	}

	if f.BalanceMin != "" {
		if min, ok := money.ParseCurrencyToCents(f.BalanceMin); ok && totalBalance < min {
			return false
		}
	}
	if f.BalanceMax != "" {
		if max, ok := money.ParseCurrencyToCents(f.BalanceMax); ok && totalBalance > max {
			return false
		}
	}

	if f.Status != "" && !matchesStatus(c, accounts, f.Status) {
		return false
	}

	if f.LastContactDays != "" {
		if days, err := strconv.Atoi(f.LastContactDays); err == nil {
			last, ok := lastContactTime(c)
			if !ok {
				return false
			}
			elapsed := int(now.Sub(last).Hours() / 24)
			if elapsed < days {
				return false
			}
		}
	}

	return true
}

func matchesStatus(c repository.Consumer, accounts []repository.Account, status string) bool {
	for _, a := range accounts {
		if strings.EqualFold(a.Status, status) {
			return true
		}
	}
	// Imports sometimes carry a status or folder hint in metadata instead of
	// on the account rows.
	for _, key := range []string{"status", "folder"} {
		if v, ok := c.Metadata[key]; ok && strings.EqualFold(strings.TrimSpace(v), status) {
			return true
		}
	}
	return false
}

// lastContactTime resolves the most trustworthy "last contact" timestamp:
// metadata fields first, then portal registration, then record creation.
func lastContactTime(c repository.Consumer) (time.Time, bool) {
	for _, key := range []string{"lastContactAt", "last_contact", "lastContact"} {
		if raw, ok := c.Metadata[key]; ok {
			if t, ok := parseFlexibleTime(raw); ok {
				return t, true
			}
		}
	}
	if c.RegisteredAt != nil {
		return *c.RegisteredAt, true
	}
	if !c.CreatedAt.IsZero() {
		return c.CreatedAt, true
	}
	return time.Time{}, false
}

func parseFlexibleTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// matchesGroup implements the "all" target type's group presets.
func matchesGroup(c repository.Consumer, accounts []repository.Account, group string, now time.Time) bool {
	switch group {
	case "with-balance":
		for _, a := range accounts {
			if a.BalanceCents > 0 {
				return true
			}
		}
		return false
	case "decline":
		return matchesStatus(c, accounts, "decline")
	case "recent-upload":
		return now.Sub(c.CreatedAt) <= 24*time.Hour
	default:
		return true
	}
}
