package handler

import (
	"encoding/json"
	"net/http"

	"github.com/robbyyapr/duwit/internal/domain"
	"github.com/robbyyapr/duwit/internal/ledger"
	"github.com/robbyyapr/duwit/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// transactionBody is shared by add and update. Derived fields a client
// might send (profit, zakat) are ignored on decode and recomputed.
type transactionBody struct {
	Time        string `json:"time"`
	CapitalUsed Amount `json:"capitalUsed"`
	Withdraw    Amount `json:"withdraw"`
	Notes       string `json:"notes"`
}

func (b transactionBody) input() ledger.TransactionInput {
	return ledger.TransactionInput{
		Time:        parseWhen(b.Time),
		CapitalUsed: int64(b.CapitalUsed),
		Withdraw:    int64(b.Withdraw),
		Notes:       b.Notes,
	}
}

// ============================================================
// POST /v1/transactions
// ============================================================

func addTransactionHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		var body transactionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id, store, err := svc.AddTransaction(ctx, body.input())
		span.SetAttributes(attribute.String("transaction.id", id))
		writeMutation(w, domain.OutcomeApplied, id, store, err, logger)
	}
}

// ============================================================
// PUT /v1/transactions/{transactionId}
// ============================================================

func updateTransactionHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/transactions/{transactionId}")
		defer span.End()

		transactionID := chi.URLParam(r, "transactionId")
		if transactionID == "" {
			writeError(w, http.StatusBadRequest, "transactionId is required")
			return
		}
		span.SetAttributes(attribute.String("transaction.id", transactionID))

		var body transactionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		outcome, store, err := svc.UpdateTransaction(ctx, body.input(), transactionID)
		if err == nil && outcome == domain.OutcomeNoMatch {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeMutation(w, outcome, transactionID, store, err, logger)
	}
}

// ============================================================
// POST /v1/zakat/{weekLabel}/ack
// ============================================================

func ackZakatHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/zakat/{weekLabel}/ack")
		defer span.End()

		weekLabel := chi.URLParam(r, "weekLabel")
		if weekLabel == "" {
			writeError(w, http.StatusBadRequest, "weekLabel is required")
			return
		}
		span.SetAttributes(attribute.String("zakat.week", weekLabel))

		outcome, store, err := svc.AcknowledgeZakat(ctx, weekLabel)
		writeMutation(w, outcome, "", store, err, logger)
	}
}

// ============================================================
// POST /v1/balance/adjust
// ============================================================

func adjustBalanceHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/balance/adjust")
		defer span.End()

		var body struct {
			NewBalance Amount `json:"newBalance"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		outcome, store, err := svc.AdjustBalance(ctx, int64(body.NewBalance))
		writeMutation(w, outcome, "", store, err, logger)
	}
}

// ============================================================
// PUT /v1/settings
// ============================================================

func updateSettingsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/settings")
		defer span.End()

		var body struct {
			Theme                  *string `json:"theme"`
			NotifGranted           *bool   `json:"notifGranted"`
			DeductZakatFromBalance *bool   `json:"deductZakatFromBalance"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		store, err := svc.UpdateSettings(ctx, service.SettingsPatch{
			Theme:                  body.Theme,
			NotifGranted:           body.NotifGranted,
			DeductZakatFromBalance: body.DeductZakatFromBalance,
		})
		writeMutation(w, domain.OutcomeApplied, "", store, err, logger)
	}
}
