package domain

import (
	"encoding/json"
	"time"
)

// DefaultStore returns a fully-populated zero store.
func DefaultStore(now time.Time) *Store {
	return &Store{
		Settings: Settings{
			Theme:                  "light",
			NotifGranted:           false,
			DeductZakatFromBalance: false,
		},
		Balances: Balances{
			Current: 0,
			History: []DailyEntry{},
		},
		Zakat: ZakatState{
			Weekly: []WeekZakat{},
		},
		LastActivityAt: now,
		LastDailyNotif: "",
	}
}

// rawStore splits the document into independently-decoded sections so a
// malformed section degrades to its fallback instead of failing the
// whole document.
type rawStore struct {
	Settings       json.RawMessage `json:"settings"`
	Balances       json.RawMessage `json:"balances"`
	Zakat          json.RawMessage `json:"zakat"`
	LastActivityAt json.RawMessage `json:"lastActivityAt"`
	LastDailyNotif json.RawMessage `json:"lastDailyNotif"`
}

type rawBalances struct {
	Current json.RawMessage   `json:"current"`
	History []json.RawMessage `json:"history"`
}

// Sanitize decodes raw into a fully-populated store, falling back to
// base field-by-field for anything missing or malformed. It never fails:
// unrecognizable input yields a copy of base. Derived transaction fields
// are recomputed on the way in, so a tampered document cannot smuggle in
// wrong profit or zakat values.
func Sanitize(raw []byte, base *Store) *Store {
	out := base.Clone()

	var doc rawStore
	if err := json.Unmarshal(raw, &doc); err != nil {
		return out
	}

	if len(doc.Settings) > 0 {
		// Decode on top of the base settings: fields absent from the
		// incoming section keep their current value.
		settings := out.Settings
		if err := json.Unmarshal(doc.Settings, &settings); err == nil {
			out.Settings = settings
		}
	}
	if len(doc.Balances) > 0 {
		var balances rawBalances
		if err := json.Unmarshal(doc.Balances, &balances); err == nil {
			if len(balances.Current) > 0 {
				var current int64
				if err := json.Unmarshal(balances.Current, &current); err == nil {
					out.Balances.Current = current
				}
			}
			if balances.History != nil {
				history := make([]DailyEntry, 0, len(balances.History))
				for _, rawDay := range balances.History {
					var day DailyEntry
					if err := json.Unmarshal(rawDay, &day); err != nil || day.Date == "" {
						continue
					}
					history = append(history, normalizeDay(day))
				}
				out.Balances.History = history
			}
		}
	}
	if len(doc.Zakat) > 0 {
		var zakat ZakatState
		if err := json.Unmarshal(doc.Zakat, &zakat); err == nil {
			weekly := make([]WeekZakat, 0, len(zakat.Weekly))
			for _, week := range zakat.Weekly {
				if week.WeekLabel == "" {
					continue
				}
				if week.Accrued < 0 {
					week.Accrued = 0
				}
				if week.Paid < 0 {
					week.Paid = 0
				}
				weekly = append(weekly, week)
			}
			out.Zakat.Weekly = weekly
		}
	}
	if len(doc.LastActivityAt) > 0 {
		var at time.Time
		if err := json.Unmarshal(doc.LastActivityAt, &at); err == nil {
			out.LastActivityAt = at
		}
	}
	if len(doc.LastDailyNotif) > 0 {
		var notif string
		if err := json.Unmarshal(doc.LastDailyNotif, &notif); err == nil {
			out.LastDailyNotif = notif
		}
	}

	return out
}

// normalizeDay clamps amounts and recomputes derived fields for user
// transactions. System transactions keep profit=zakat=0 by construction,
// so re-deriving from their withdraw would corrupt balance adjustments.
func normalizeDay(day DailyEntry) DailyEntry {
	if day.Transactions == nil {
		day.Transactions = []Transaction{}
	}
	for i := range day.Transactions {
		tx := &day.Transactions[i]
		if tx.CapitalUsed < 0 {
			tx.CapitalUsed = 0
		}
		if tx.Withdraw < 0 {
			tx.Withdraw = 0
		}
		if tx.IsSystem {
			tx.Profit, tx.Zakat = 0, 0
		} else {
			tx.Profit, tx.Zakat = Derive(tx.CapitalUsed, tx.Withdraw)
		}
	}
	return day
}
