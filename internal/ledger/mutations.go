package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/robbyyapr/duwit/internal/dates"
	"github.com/robbyyapr/duwit/internal/domain"
)

// TransactionInput is the caller-supplied part of a transaction. Derived
// fields are always recomputed; anything a caller claims about profit or
// zakat is discarded.
type TransactionInput struct {
	Time        time.Time
	CapitalUsed int64
	Withdraw    int64
	Notes       string
}

// AddTransaction derives, assigns an id, inserts the transaction into the
// daily entry its time falls on (creating the entry if absent), and
// reconciles. It returns the new transaction's id.
func AddTransaction(s *domain.Store, in TransactionInput, now time.Time) string {
	if in.Time.IsZero() {
		in.Time = now
	}
	tx := buildTransaction(in, uuid.NewString())
	insert(s, tx)
	Reconcile(s, now)
	return tx.ID
}

// UpdateTransaction removes the transaction with originalID from
// whichever day holds it, re-derives from the new inputs, re-inserts by
// the (possibly moved) time, and reconciles. An unknown id leaves the
// store untouched and reports OutcomeNoMatch.
func UpdateTransaction(s *domain.Store, in TransactionInput, originalID string, now time.Time) domain.Outcome {
	if !remove(s, originalID) {
		return domain.OutcomeNoMatch
	}
	if in.Time.IsZero() {
		in.Time = now
	}
	tx := buildTransaction(in, originalID)
	insert(s, tx)
	Reconcile(s, now)
	return domain.OutcomeApplied
}

// AcknowledgeZakat marks the labelled week's obligation as paid by the
// user. Unknown weeks report OutcomeNoMatch, already-acknowledged weeks
// OutcomeNoChange; both leave the store untouched. When the
// deduct-from-balance setting is on and the week accrued anything, a
// system transaction dated now deducts the payment from the running
// balance like any other expense.
func AcknowledgeZakat(s *domain.Store, weekLabel string, now time.Time) domain.Outcome {
	week := s.Week(weekLabel)
	if week == nil {
		return domain.OutcomeNoMatch
	}
	if week.AckByUser {
		return domain.OutcomeNoChange
	}

	week.AckByUser = true
	week.Paid = week.Accrued
	paidAt := now
	week.PaidAt = &paidAt

	if s.Settings.DeductZakatFromBalance && week.Accrued > 0 {
		insert(s, domain.Transaction{
			ID:          uuid.NewString(),
			Time:        now,
			CapitalUsed: week.Accrued,
			Notes:       fmt.Sprintf("Pembayaran Zakat mgg. %s", weekLabel),
			IsSystem:    true,
		})
	}

	Reconcile(s, now)
	return domain.OutcomeApplied
}

// AdjustBalance reconciles today's balance to newBalance by synthesizing
// one system transaction for the difference: a shortfall is recorded as
// capital used, a surplus as a withdrawal. Adjustments never generate
// profit or zakat. A zero difference leaves the store untouched.
func AdjustBalance(s *domain.Store, newBalance int64, now time.Time) domain.Outcome {
	adjustment := newBalance - todayBalance(s, now)
	if adjustment == 0 {
		return domain.OutcomeNoChange
	}

	tx := domain.Transaction{
		ID:       uuid.NewString(),
		Time:     now,
		Notes:    "Penyesuaian Saldo",
		IsSystem: true,
	}
	if adjustment < 0 {
		tx.CapitalUsed = -adjustment
	} else {
		tx.Withdraw = adjustment
	}
	insert(s, tx)
	Reconcile(s, now)
	return domain.OutcomeApplied
}

// todayBalance computes today's balance from today's own opening balance
// and transaction sums, without mutating the store. When today has no
// entry yet its balance is the closing balance of the most recent day.
func todayBalance(s *domain.Store, now time.Time) int64 {
	today := s.Day(dates.DayKey(now))
	if today == nil {
		var latest *domain.DailyEntry
		for i := range s.Balances.History {
			if latest == nil || s.Balances.History[i].Date > latest.Date {
				latest = &s.Balances.History[i]
			}
		}
		if latest == nil {
			return 0
		}
		return latest.ClosingBalance
	}

	balance := today.OpeningBalance
	for _, tx := range today.Transactions {
		balance += tx.Withdraw - tx.CapitalUsed
	}
	return balance
}

func buildTransaction(in TransactionInput, id string) domain.Transaction {
	if in.CapitalUsed < 0 {
		in.CapitalUsed = 0
	}
	if in.Withdraw < 0 {
		in.Withdraw = 0
	}
	profit, zakat := domain.Derive(in.CapitalUsed, in.Withdraw)
	return domain.Transaction{
		ID:          id,
		Time:        in.Time,
		CapitalUsed: in.CapitalUsed,
		Withdraw:    in.Withdraw,
		Profit:      profit,
		Zakat:       zakat,
		Notes:       in.Notes,
	}
}

// insert places tx into the daily entry its time falls on, creating the
// entry when absent and keeping the day's transactions in time order.
func insert(s *domain.Store, tx domain.Transaction) {
	key := dates.DayKey(tx.Time)
	day := s.Day(key)
	if day == nil {
		s.Balances.History = append(s.Balances.History, domain.DailyEntry{
			Date:         key,
			Transactions: []domain.Transaction{},
		})
		day = &s.Balances.History[len(s.Balances.History)-1]
	}
	day.Transactions = append(day.Transactions, tx)
	sortTransactions(day.Transactions)
}

// remove deletes the transaction with the given id from whichever daily
// entry holds it. It reports whether anything was removed.
func remove(s *domain.Store, id string) bool {
	for i := range s.Balances.History {
		day := &s.Balances.History[i]
		for j := range day.Transactions {
			if day.Transactions[j].ID == id {
				day.Transactions = append(day.Transactions[:j], day.Transactions[j+1:]...)
				return true
			}
		}
	}
	return false
}
