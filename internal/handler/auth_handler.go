package handler

import (
	"encoding/json"
	"net/http"

	"github.com/robbyyapr/duwit/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// POST /v1/auth/unlock
// ============================================================

func authUnlockHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/unlock")
		defer span.End()

		if authSvc == nil || !authSvc.Enabled() {
			writeJSON(w, http.StatusOK, map[string]any{
				"locked":  false,
				"message": "PIN tidak dikonfigurasi",
			})
			return
		}

		var body struct {
			PIN string `json:"pin"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		token, err := authSvc.Unlock(ctx, body.PIN, r.RemoteAddr)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"token":     token,
			"expiresIn": int(authSvc.SessionTTL().Seconds()),
		})
	}
}
