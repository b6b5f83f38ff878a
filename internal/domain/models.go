// Package domain defines the persisted ledger document and its invariants.
// The JSON field names match the stored document exactly; the document is
// the single source of truth that the reconciler keeps consistent.
package domain

import "time"

// Transaction is one ledger event. All amounts are whole rupiah.
// Profit and Zakat are derived fields: they are always recomputed from
// CapitalUsed/Withdraw by Derive, never accepted from callers.
type Transaction struct {
	ID          string    `json:"id"`
	Time        time.Time `json:"time"`
	CapitalUsed int64     `json:"capitalUsed"`
	Withdraw    int64     `json:"withdraw"`
	Profit      int64     `json:"profit"`
	Zakat       int64     `json:"zakat"`
	Notes       string    `json:"notes,omitempty"`
	// IsSystem marks engine-synthesized entries (zakat deduction, balance
	// adjustment). It affects presentation only, never the arithmetic.
	IsSystem bool `json:"isSystem,omitempty"`
}

// DailyEntry is one calendar day's rollup, keyed by a YYYY-MM-DD day key.
// Aggregates are sums over Transactions; OpeningBalance chains from the
// previous day with data and ClosingBalance feeds the next.
type DailyEntry struct {
	Date           string        `json:"date"`
	OpeningBalance int64         `json:"openingBalance"`
	CapitalUsed    int64         `json:"capitalUsed"`
	TotalWithdraw  int64         `json:"totalWithdraw"`
	Profit         int64         `json:"profit"`
	ZakatAccrued   int64         `json:"zakatAccrued"`
	ClosingBalance int64         `json:"closingBalance"`
	Transactions   []Transaction `json:"transactions"`
	Notes          string        `json:"notes,omitempty"`
}

// WeekZakat is one ISO week's zakat obligation.
// Accrued is recomputed on every reconciliation; Paid, PaidAt and
// AckByUser are sticky user-state carried forward by week label.
type WeekZakat struct {
	WeekLabel string     `json:"weekLabel"`
	Start     string     `json:"start"`
	End       string     `json:"end"`
	Accrued   int64      `json:"accrued"`
	Paid      int64      `json:"paid"`
	PaidAt    *time.Time `json:"paidAt"`
	AckByUser bool       `json:"ackByUser"`
}

// Settings holds the user preferences embedded in the store document.
type Settings struct {
	Theme                  string `json:"theme"`
	NotifGranted           bool   `json:"notifGranted"`
	DeductZakatFromBalance bool   `json:"deductZakatFromBalance"`
}

// Balances holds the current balance and the per-day history.
// Current always equals the closing balance of the most recent entry.
type Balances struct {
	Current int64        `json:"current"`
	History []DailyEntry `json:"history"`
}

// ZakatState holds the weekly zakat records, most recent week first.
type ZakatState struct {
	Weekly []WeekZakat `json:"weekly"`
}

// Store is the aggregate root: the whole persisted document.
type Store struct {
	Settings       Settings   `json:"settings"`
	Balances       Balances   `json:"balances"`
	Zakat          ZakatState `json:"zakat"`
	LastActivityAt time.Time  `json:"lastActivityAt"`
	LastDailyNotif string     `json:"lastDailyNotif"`
}

// Clone returns a deep copy of the store, safe to hand out as a snapshot.
func (s *Store) Clone() *Store {
	out := *s
	out.Balances.History = make([]DailyEntry, len(s.Balances.History))
	for i, day := range s.Balances.History {
		copied := day
		copied.Transactions = append([]Transaction(nil), day.Transactions...)
		out.Balances.History[i] = copied
	}
	out.Zakat.Weekly = make([]WeekZakat, len(s.Zakat.Weekly))
	for i, week := range s.Zakat.Weekly {
		copied := week
		if week.PaidAt != nil {
			at := *week.PaidAt
			copied.PaidAt = &at
		}
		out.Zakat.Weekly[i] = copied
	}
	return &out
}

// Day returns the daily entry for the given day key, or nil.
func (s *Store) Day(key string) *DailyEntry {
	for i := range s.Balances.History {
		if s.Balances.History[i].Date == key {
			return &s.Balances.History[i]
		}
	}
	return nil
}

// Week returns the weekly zakat record with the given label, or nil.
func (s *Store) Week(label string) *WeekZakat {
	for i := range s.Zakat.Weekly {
		if s.Zakat.Weekly[i].WeekLabel == label {
			return &s.Zakat.Weekly[i]
		}
	}
	return nil
}
