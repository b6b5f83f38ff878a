// Package ledger is the reconciliation engine: pure functions over the
// store document that restore every derived invariant after a mutation.
// Nothing in this package can fail — every entry point terminates with a
// fully consistent store, whatever intermediate state it is handed.
//
// Collections are regenerated wholesale on every pass rather than patched
// incrementally. The dataset is one user's daily entries; correctness
// wins over efficiency here.
package ledger

import (
	"sort"
	"time"

	"github.com/robbyyapr/duwit/internal/dates"
	"github.com/robbyyapr/duwit/internal/domain"
)

// Reconcile recomputes all derived state of the store:
// daily aggregates, the opening/closing balance chain, the current
// balance, and the weekly zakat accruals. Sticky zakat-payment fields
// (paid, paidAt, ackByUser) are carried forward by week label.
func Reconcile(s *domain.Store, now time.Time) {
	today := dates.DayKey(now)

	ensureToday(s, today)

	// Prune empty placeholder days; today always stays to anchor the
	// current-day view.
	kept := s.Balances.History[:0]
	for _, day := range s.Balances.History {
		if len(day.Transactions) > 0 || day.Date == today {
			kept = append(kept, day)
		}
	}
	s.Balances.History = kept

	sort.Slice(s.Balances.History, func(i, j int) bool {
		return s.Balances.History[i].Date > s.Balances.History[j].Date
	})

	// Walk oldest-to-newest, chaining closing into the next opening.
	history := s.Balances.History
	var prevClosing int64
	for i := len(history) - 1; i >= 0; i-- {
		day := &history[i]
		sortTransactions(day.Transactions)

		day.OpeningBalance = prevClosing
		day.CapitalUsed, day.TotalWithdraw, day.Profit, day.ZakatAccrued = 0, 0, 0, 0
		for _, tx := range day.Transactions {
			day.CapitalUsed += tx.CapitalUsed
			day.TotalWithdraw += tx.Withdraw
			day.Profit += tx.Profit
			day.ZakatAccrued += tx.Zakat
		}
		day.ClosingBalance = day.OpeningBalance - day.CapitalUsed + day.TotalWithdraw
		prevClosing = day.ClosingBalance
	}

	if len(history) > 0 {
		s.Balances.Current = history[0].ClosingBalance
	} else {
		s.Balances.Current = 0
	}

	regroupWeekly(s)

	s.LastActivityAt = now
}

// ensureToday guarantees a daily entry for the current calendar day,
// seeding its balances from the most recent existing entry.
func ensureToday(s *domain.Store, today string) {
	if s.Day(today) != nil {
		return
	}
	var latest *domain.DailyEntry
	for i := range s.Balances.History {
		if latest == nil || s.Balances.History[i].Date > latest.Date {
			latest = &s.Balances.History[i]
		}
	}
	var opening int64
	if latest != nil {
		opening = latest.ClosingBalance
	}
	s.Balances.History = append(s.Balances.History, domain.DailyEntry{
		Date:           today,
		OpeningBalance: opening,
		ClosingBalance: opening,
		Transactions:   []domain.Transaction{},
	})
}

// regroupWeekly rebuilds the weekly zakat records from the daily
// accruals. Accrued is always a fresh sum; paid/paidAt/ackByUser are
// copied from any existing record with the same label.
func regroupWeekly(s *domain.Store) {
	sums := map[string]int64{}
	for _, day := range s.Balances.History {
		// Today's empty anchor entry creates no weekly record.
		if len(day.Transactions) == 0 {
			continue
		}
		label := dates.WeekLabelForDay(day.Date)
		if label == "" {
			continue
		}
		sums[label] += day.ZakatAccrued
	}

	weekly := make([]domain.WeekZakat, 0, len(sums))
	for label, accrued := range sums {
		week := domain.WeekZakat{
			WeekLabel: label,
			Accrued:   accrued,
		}
		// Bounds are recomputed from the label; a malformed label has
		// already been filtered out above.
		week.Start, week.End, _ = dates.WeekRange(label)
		if existing := s.Week(label); existing != nil {
			week.Paid = existing.Paid
			week.PaidAt = existing.PaidAt
			week.AckByUser = existing.AckByUser
		}
		weekly = append(weekly, week)
	}

	sort.Slice(weekly, func(i, j int) bool {
		return weekly[i].WeekLabel > weekly[j].WeekLabel
	})
	s.Zakat.Weekly = weekly
}

// sortTransactions keeps a day's transactions ascending by time.
func sortTransactions(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Time.Before(txs[j].Time)
	})
}
