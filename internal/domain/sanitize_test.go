package domain_test

import (
	"testing"
	"time"

	"github.com/robbyyapr/duwit/internal/domain"
)

var now = time.Date(2024, time.June, 5, 12, 0, 0, 0, time.UTC)

func TestSanitizeGarbageFallsBackToBase(t *testing.T) {
	base := domain.DefaultStore(now)
	for _, raw := range []string{"", "not json", "42", `"a string"`, "null"} {
		got := domain.Sanitize([]byte(raw), base)
		if got.Settings.Theme != "light" {
			t.Errorf("%q: expected default theme, got %q", raw, got.Settings.Theme)
		}
		if len(got.Balances.History) != 0 || len(got.Zakat.Weekly) != 0 {
			t.Errorf("%q: expected empty collections", raw)
		}
	}
}

func TestSanitizeSectionBySection(t *testing.T) {
	base := domain.DefaultStore(now)
	// Settings are malformed (wrong shape) but balances are fine: the
	// settings section degrades to defaults without discarding the rest.
	raw := []byte(`{
		"settings": "oops",
		"balances": {"current": 500, "history": [
			{"date": "2024-06-04", "transactions": [
				{"id": "tx-1", "time": "2024-06-04T09:00:00Z", "capitalUsed": 100, "withdraw": 150, "profit": 999, "zakat": 999}
			]},
			"garbage entry",
			{"notDate": true}
		]},
		"lastDailyNotif": "2024-06-04"
	}`)

	got := domain.Sanitize(raw, base)

	if got.Settings.Theme != "light" {
		t.Errorf("expected default settings, got %+v", got.Settings)
	}
	if got.Balances.Current != 500 {
		t.Errorf("current = %d, want 500", got.Balances.Current)
	}
	if len(got.Balances.History) != 1 {
		t.Fatalf("expected 1 surviving history entry, got %d", len(got.Balances.History))
	}
	if got.LastDailyNotif != "2024-06-04" {
		t.Errorf("lastDailyNotif = %q", got.LastDailyNotif)
	}
}

func TestSanitizeRecomputesDerivedFields(t *testing.T) {
	base := domain.DefaultStore(now)
	raw := []byte(`{"balances": {"history": [
		{"date": "2024-06-04", "transactions": [
			{"id": "u1", "time": "2024-06-04T09:00:00Z", "capitalUsed": 100, "withdraw": 150, "profit": 12345, "zakat": 12345},
			{"id": "s1", "time": "2024-06-04T10:00:00Z", "capitalUsed": 0, "withdraw": 200, "profit": 200, "zakat": 5, "isSystem": true}
		]}
	]}}`)

	got := domain.Sanitize(raw, base)
	txs := got.Balances.History[0].Transactions

	// User transaction: smuggled profit/zakat are discarded.
	if txs[0].Profit != 50 || txs[0].Zakat != 1 {
		t.Errorf("user tx derived = %d/%d, want 50/1", txs[0].Profit, txs[0].Zakat)
	}
	// System transaction: forced to zero, never derived from withdraw.
	if txs[1].Profit != 0 || txs[1].Zakat != 0 {
		t.Errorf("system tx derived = %d/%d, want 0/0", txs[1].Profit, txs[1].Zakat)
	}
}

func TestSanitizeMergesOntoCurrent(t *testing.T) {
	// PUT /api/store semantics: absent sections keep the current value.
	current := domain.DefaultStore(now)
	current.Settings.DeductZakatFromBalance = true
	current.LastDailyNotif = "2024-06-01"
	current.Balances.History = []domain.DailyEntry{{Date: "2024-06-01"}}

	got := domain.Sanitize([]byte(`{"settings": {"theme": "dark", "notifGranted": true, "deductZakatFromBalance": true}}`), current)

	if got.Settings.Theme != "dark" || !got.Settings.NotifGranted {
		t.Errorf("incoming settings not applied: %+v", got.Settings)
	}
	if got.LastDailyNotif != "2024-06-01" {
		t.Errorf("absent field should keep current value, got %q", got.LastDailyNotif)
	}
	// Sanitize must not alias the base store.
	got.Settings.Theme = "sepia"
	if current.Settings.Theme == "sepia" {
		t.Error("sanitize returned a value aliasing its base")
	}
	got.Balances.History[0].Date = "1999-01-01"
	if current.Balances.History[0].Date == "1999-01-01" {
		t.Error("sanitize returned history aliasing its base")
	}
}

func TestCloneIsDeep(t *testing.T) {
	paidAt := now
	s := domain.DefaultStore(now)
	s.Balances.History = []domain.DailyEntry{{
		Date:         "2024-06-04",
		Transactions: []domain.Transaction{{ID: "tx-1", CapitalUsed: 10}},
	}}
	s.Zakat.Weekly = []domain.WeekZakat{{WeekLabel: "2024-23", PaidAt: &paidAt}}

	c := s.Clone()
	c.Balances.History[0].Transactions[0].CapitalUsed = 999
	*c.Zakat.Weekly[0].PaidAt = now.Add(time.Hour)

	if s.Balances.History[0].Transactions[0].CapitalUsed != 10 {
		t.Error("clone shares transaction storage")
	}
	if !s.Zakat.Weekly[0].PaidAt.Equal(now) {
		t.Error("clone shares paidAt pointer")
	}
}
