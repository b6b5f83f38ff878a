// Package notify runs the daily no-entry reminder: once per day, after
// a fixed hour, it nudges the user when no transaction has been recorded
// yet. The decision state lives in the store (lastDailyNotif), so a
// restart never double-notifies.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/robbyyapr/duwit/internal/dates"
	"github.com/robbyyapr/duwit/internal/infra/resilience"
	"github.com/robbyyapr/duwit/internal/port"
)

// LedgerSource is the slice of the ledger service the reminder needs.
type LedgerSource interface {
	ReminderDue(now time.Time) bool
	MarkDailyNotif(ctx context.Context, dayKey string) error
}

// Reminder checks the ledger on a ticker and emits at most one reminder
// per calendar day.
type Reminder struct {
	src        LedgerSource
	clock      port.Clock
	hour       int
	webhookURL string
	httpClient *http.Client
	cfg        resilience.Config
	metrics    interface{ IncrReminder() }
	logger     *zap.Logger
}

// New creates a reminder scheduler. webhookURL may be empty; the
// reminder is always logged.
func New(src LedgerSource, clock port.Clock, hour int, webhookURL string, httpClient *http.Client, cfg resilience.Config, metrics interface{ IncrReminder() }, logger *zap.Logger) *Reminder {
	return &Reminder{
		src:        src,
		clock:      clock,
		hour:       hour,
		webhookURL: webhookURL,
		httpClient: httpClient,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// Run ticks once a minute until ctx is done.
func (r *Reminder) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick runs one reminder check.
func (r *Reminder) Tick(ctx context.Context) {
	now := r.clock.Now()
	if now.Hour() < r.hour {
		return
	}
	if !r.src.ReminderDue(now) {
		return
	}

	today := dates.DayKey(now)
	r.logger.Info("reminder: no transaction recorded today",
		zap.String("day", today),
	)
	r.sendWebhook(ctx, today)
	r.metrics.IncrReminder()

	if err := r.src.MarkDailyNotif(ctx, today); err != nil {
		// The reminder may fire again after a restart; better twice
		// than never for a nudge.
		r.logger.Warn("reminder: failed to persist lastDailyNotif", zap.Error(err))
	}
}

type webhookPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Day   string `json:"day"`
}

func (r *Reminder) sendWebhook(ctx context.Context, day string) {
	if r.webhookURL == "" {
		return
	}

	payload, err := json.Marshal(webhookPayload{
		Title: "Belum ada catatan hari ini di 'duwit'",
		Body:  "Jangan lupa catat aktivitas tradingmu hari ini. Isi sekarang?",
		Day:   day,
	})
	if err != nil {
		return
	}

	err = resilience.RetryWithBackoff(ctx, r.cfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.webhookURL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			return &webhookStatusError{status: resp.StatusCode}
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("reminder: webhook delivery failed", zap.Error(err))
	}
}

type webhookStatusError struct{ status int }

func (e *webhookStatusError) Error() string {
	return http.StatusText(e.status)
}
