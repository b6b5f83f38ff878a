package handler

import (
	"io"
	"net/http"

	"github.com/robbyyapr/duwit/internal/domain"
	"github.com/robbyyapr/duwit/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Store document — GET/PUT /api/store
// ============================================================

func getStoreHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/store")
		defer span.End()

		writeJSON(w, http.StatusOK, svc.Snapshot(ctx))
	}
}

// putStoreHandler replaces the whole document. The body is sanitized
// field by field onto the current store, so a partial or partly broken
// document never wipes state it does not mention.
func putStoreHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/store")
		defer span.End()

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		store, err := svc.ReplaceStore(ctx, raw)
		writeMutation(w, domain.OutcomeApplied, "", store, err, logger)
	}
}
