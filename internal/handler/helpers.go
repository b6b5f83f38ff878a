package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/robbyyapr/duwit/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Amount is a rupiah amount that tolerates sloppy clients: floats are
// truncated, numeric strings parsed, anything unparseable becomes 0.
type Amount int64

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(strings.Trim(string(data), `"`))
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*a = Amount(v)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*a = Amount(int64(f))
		return nil
	}
	*a = 0
	return nil
}

// parseWhen accepts RFC3339 timestamps or bare day keys; anything else
// yields the zero time, which the ledger substitutes with now.
func parseWhen(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}

// mutationResponse is the common shape for the four mutation routes.
// durable is false when the in-memory state updated but persisting it
// failed; the client should treat the returned store as pending.
type mutationResponse struct {
	Outcome domain.Outcome `json:"outcome"`
	Durable bool           `json:"durable"`
	ID      string         `json:"id,omitempty"`
	Store   *domain.Store  `json:"store,omitempty"`
}

func writeMutation(w http.ResponseWriter, outcome domain.Outcome, id string, store *domain.Store, err error, logger *zap.Logger) {
	if err != nil {
		var storage *domain.ErrStorage
		if errors.As(err, &storage) {
			logger.Error("store save failed, memory remains authoritative", zap.Error(err))
			writeJSON(w, http.StatusOK, mutationResponse{
				Outcome: outcome,
				Durable: false,
				ID:      id,
				Store:   store,
			})
			return
		}
		handleServiceError(w, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{
		Outcome: outcome,
		Durable: true,
		ID:      id,
		Store:   store,
	})
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var circuitOpen *domain.ErrCircuitOpen
	var storage *domain.ErrStorage

	switch {
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &storage):
		logger.Error("storage error", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
