// Package service provides the business logic layer (use cases).
// LedgerService owns the authoritative in-memory store document and is
// the single writer: every mutation is a synchronous transformation of
// that one value, reconciled and then persisted as a whole.
package service

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/robbyyapr/duwit/internal/dates"
	"github.com/robbyyapr/duwit/internal/domain"
	"github.com/robbyyapr/duwit/internal/infra/observability"
	"github.com/robbyyapr/duwit/internal/ledger"
	"github.com/robbyyapr/duwit/internal/port"
)

var ledgerTracer = otel.Tracer("service/ledger")

// LedgerService orchestrates ledger mutations over one store document.
type LedgerService struct {
	repo    port.StoreRepository
	clock   port.Clock
	metrics *observability.Metrics
	logger  *zap.Logger

	mu    sync.Mutex
	store *domain.Store
}

// NewLedgerService creates a ledger service. Call Load before serving.
func NewLedgerService(repo port.StoreRepository, clock port.Clock, metrics *observability.Metrics, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		repo:    repo,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
		store:   domain.DefaultStore(clock.Now()),
	}
}

// Load primes the in-memory store from the repository. A load failure is
// logged and counted, and the service starts from a fresh default store
// instead of blocking.
func (s *LedgerService) Load(ctx context.Context) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Load")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	loaded, err := s.repo.Load(ctx)
	if err != nil {
		s.metrics.IncrStoreError("load")
		s.logger.Warn("ledger: load failed, starting from defaults", zap.Error(err))
		loaded = domain.DefaultStore(now)
	}
	ledger.Reconcile(loaded, now)
	s.store = loaded
}

// Snapshot returns a deep copy of the current store.
func (s *LedgerService) Snapshot(ctx context.Context) *domain.Store {
	_, span := ledgerTracer.Start(ctx, "LedgerService.Snapshot")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Clone()
}

// AddTransaction records a new user transaction and returns its id.
func (s *LedgerService) AddTransaction(ctx context.Context, in ledger.TransactionInput) (string, *domain.Store, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.AddTransaction")
	defer span.End()

	var id string
	_, snap, err := s.apply(ctx, "add_transaction", func(store *domain.Store, now time.Time) domain.Outcome {
		id = ledger.AddTransaction(store, in, now)
		return domain.OutcomeApplied
	})
	span.SetAttributes(attribute.String("transaction.id", id))
	return id, snap, err
}

// UpdateTransaction edits the transaction with originalID. An unknown id
// is reported as OutcomeNoMatch with the store untouched, never an error.
func (s *LedgerService) UpdateTransaction(ctx context.Context, in ledger.TransactionInput, originalID string) (domain.Outcome, *domain.Store, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", originalID))

	return s.apply(ctx, "update_transaction", func(store *domain.Store, now time.Time) domain.Outcome {
		return ledger.UpdateTransaction(store, in, originalID, now)
	})
}

// AcknowledgeZakat marks a week's zakat obligation as paid.
func (s *LedgerService) AcknowledgeZakat(ctx context.Context, weekLabel string) (domain.Outcome, *domain.Store, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.AcknowledgeZakat")
	defer span.End()
	span.SetAttributes(attribute.String("zakat.week", weekLabel))

	return s.apply(ctx, "acknowledge_zakat", func(store *domain.Store, now time.Time) domain.Outcome {
		return ledger.AcknowledgeZakat(store, weekLabel, now)
	})
}

// AdjustBalance reconciles today's balance to newBalance with one
// system transaction.
func (s *LedgerService) AdjustBalance(ctx context.Context, newBalance int64) (domain.Outcome, *domain.Store, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.AdjustBalance")
	defer span.End()
	span.SetAttributes(attribute.Int64("balance.target", newBalance))

	return s.apply(ctx, "adjust_balance", func(store *domain.Store, now time.Time) domain.Outcome {
		return ledger.AdjustBalance(store, newBalance, now)
	})
}

// ReplaceStore applies a whole-document PUT: the raw payload is
// sanitized on top of the current store (read-current, merge,
// write-current — incoming fields win, absent fields keep their current
// value), reconciled, and persisted.
func (s *LedgerService) ReplaceStore(ctx context.Context, raw []byte) (*domain.Store, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ReplaceStore")
	defer span.End()

	_, snap, err := s.apply(ctx, "replace_store", func(store *domain.Store, now time.Time) domain.Outcome {
		merged := domain.Sanitize(raw, store)
		ledger.Reconcile(merged, now)
		*store = *merged
		return domain.OutcomeApplied
	})
	return snap, err
}

// SettingsPatch updates individual settings; nil fields are untouched.
type SettingsPatch struct {
	Theme                  *string
	NotifGranted           *bool
	DeductZakatFromBalance *bool
}

// UpdateSettings applies a settings patch. Settings changes do not
// touch derived state, so no reconciliation runs.
func (s *LedgerService) UpdateSettings(ctx context.Context, patch SettingsPatch) (*domain.Store, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateSettings")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Theme != nil {
		s.store.Settings.Theme = *patch.Theme
	}
	if patch.NotifGranted != nil {
		s.store.Settings.NotifGranted = *patch.NotifGranted
	}
	if patch.DeductZakatFromBalance != nil {
		s.store.Settings.DeductZakatFromBalance = *patch.DeductZakatFromBalance
	}
	return s.store.Clone(), s.persistLocked(ctx)
}

// MarkDailyNotif records that the daily reminder fired for the given
// day key.
func (s *LedgerService) MarkDailyNotif(ctx context.Context, dayKey string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.MarkDailyNotif")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.LastDailyNotif == dayKey {
		return nil
	}
	s.store.LastDailyNotif = dayKey
	return s.persistLocked(ctx)
}

// ReminderDue reports whether the daily no-entry reminder should fire:
// notifications granted, nothing recorded today, and not yet reminded
// today. The hour gate belongs to the scheduler.
func (s *LedgerService) ReminderDue(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Settings.NotifGranted {
		return false
	}
	today := dates.DayKey(now)
	if s.store.LastDailyNotif == today {
		return false
	}
	day := s.store.Day(today)
	return day == nil || len(day.Transactions) == 0
}

// apply runs one mutation under the single-writer lock: mutate,
// measure, count, persist when something changed.
func (s *LedgerService) apply(ctx context.Context, op string, fn func(*domain.Store, time.Time) domain.Outcome) (domain.Outcome, *domain.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	started := time.Now()
	outcome := fn(s.store, now)
	s.metrics.ObserveReconcile(time.Since(started))
	s.metrics.IncrMutation(op, string(outcome))

	if outcome != domain.OutcomeApplied {
		s.logger.Debug("ledger: mutation was a no-op",
			zap.String("operation", op),
			zap.String("outcome", string(outcome)),
		)
		return outcome, s.store.Clone(), nil
	}

	return outcome, s.store.Clone(), s.persistLocked(ctx)
}

// persistLocked saves the current store. On failure the in-memory state
// stays authoritative; the caller is told durability is unconfirmed.
func (s *LedgerService) persistLocked(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.store); err != nil {
		s.metrics.IncrStoreError("save")
		s.logger.Error("ledger: save failed, in-memory state remains authoritative", zap.Error(err))
		return err
	}
	return nil
}
