package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/robbyyapr/duwit/internal/domain"
	"github.com/robbyyapr/duwit/internal/handler"
	"github.com/robbyyapr/duwit/internal/infra/cache"
	"github.com/robbyyapr/duwit/internal/infra/observability"
	"github.com/robbyyapr/duwit/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memRepo struct {
	mu     sync.Mutex
	stored *domain.Store
}

func (r *memRepo) Load(ctx context.Context) (*domain.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stored == nil {
		return domain.DefaultStore(time.Now()), nil
	}
	return r.stored.Clone(), nil
}

func (r *memRepo) Save(ctx context.Context, s *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored = s.Clone()
	return nil
}

func newTestRouter(t *testing.T, authSvc *service.AuthService) http.Handler {
	t.Helper()
	metrics := observability.NewMetrics()
	svc := service.NewLedgerService(&memRepo{}, service.SystemClock{}, metrics, zap.NewNop())
	svc.Load(context.Background())
	return handler.NewRouter(svc, authSvc, metrics, zap.NewNop())
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestPing(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/ping", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestLedgerMetricsSnapshot(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/v1/metrics/ledger", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid snapshot JSON: %v", err)
	}
}

func TestGetStoreReturnsDocument(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/store", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var store domain.Store
	if err := json.Unmarshal(rec.Body.Bytes(), &store); err != nil {
		t.Fatalf("invalid store JSON: %v", err)
	}
	if store.Settings.Theme == "" {
		t.Error("expected defaulted settings in snapshot")
	}
	if len(store.Balances.History) != 1 {
		t.Errorf("expected today's anchor entry, got %d entries", len(store.Balances.History))
	}
}

func TestAddTransactionFlow(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/transactions",
		`{"capitalUsed": 100, "withdraw": 150, "notes": "pagi"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Outcome string        `json:"outcome"`
		Durable bool          `json:"durable"`
		ID      string        `json:"id"`
		Store   *domain.Store `json:"store"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Outcome != "applied" {
		t.Errorf("expected outcome applied, got %q", resp.Outcome)
	}
	if !resp.Durable {
		t.Error("expected durable save")
	}
	if resp.ID == "" {
		t.Error("expected a transaction id")
	}
	if resp.Store == nil || resp.Store.Balances.Current != 50 {
		t.Errorf("expected current balance 50, got %+v", resp.Store)
	}
}

func TestUpdateUnknownTransactionIs404(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPut, "/v1/transactions/nope",
		`{"capitalUsed": 1, "withdraw": 2}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAmountCoercion(t *testing.T) {
	router := newTestRouter(t, nil)

	// String numerics parse, garbage coerces to 0.
	rec := doJSON(t, router, http.MethodPost, "/v1/transactions",
		`{"capitalUsed": "100", "withdraw": "banyak"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Store *domain.Store `json:"store"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	today := resp.Store.Balances.History[0]
	if today.CapitalUsed != 100 || today.TotalWithdraw != 0 {
		t.Errorf("expected capitalUsed 100 and withdraw 0, got %d/%d",
			today.CapitalUsed, today.TotalWithdraw)
	}
}

func TestAdjustBalanceNoChange(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/balance/adjust", `{"newBalance": 0}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Outcome string `json:"outcome"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Outcome != "no_change" {
		t.Errorf("expected outcome no_change, got %q", resp.Outcome)
	}
}

func TestAckUnknownWeekReportsNoMatch(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/zakat/1999-01/ack", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Outcome string `json:"outcome"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Outcome != "no_match" {
		t.Errorf("expected outcome no_match, got %q", resp.Outcome)
	}
}

func TestUpdateSettings(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPut, "/v1/settings",
		`{"theme": "dark", "notifGranted": true}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Store *domain.Store `json:"store"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Store.Settings.Theme != "dark" || !resp.Store.Settings.NotifGranted {
		t.Errorf("settings patch not applied: %+v", resp.Store.Settings)
	}
}

func TestSessionGate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("080495"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	metrics := observability.NewMetrics()
	authSvc := service.NewAuthService(string(hash), "test-secret", 10*time.Minute,
		service.SystemClock{}, cache.New[int](5*time.Minute), metrics, zap.NewNop())
	router := newTestRouter(t, authSvc)

	// Without a token, mutations are locked.
	rec := doJSON(t, router, http.MethodPost, "/v1/transactions",
		`{"capitalUsed": 1, "withdraw": 2}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", rec.Code)
	}

	// Wrong PIN stays locked.
	rec = doJSON(t, router, http.MethodPost, "/v1/auth/unlock", `{"pin": "000000"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong PIN, got %d", rec.Code)
	}

	// Correct PIN issues a token that opens the gate.
	rec = doJSON(t, router, http.MethodPost, "/v1/auth/unlock", `{"pin": "080495"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for correct PIN, got %d: %s", rec.Code, rec.Body.String())
	}
	var unlock struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &unlock); err != nil {
		t.Fatalf("invalid unlock JSON: %v", err)
	}
	if unlock.Token == "" {
		t.Fatal("expected a session token")
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/transactions",
		`{"capitalUsed": 1, "withdraw": 2}`, map[string]string{
			"Authorization": "Bearer " + unlock.Token,
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a session, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUnlockWithoutPinConfigured(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/unlock", `{"pin": "whatever"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Locked bool `json:"locked"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Locked {
		t.Error("expected the gate to report unlocked")
	}
}

func TestReplaceStoreMergesLeniently(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(t, router, http.MethodPut, "/api/store",
		`{"settings": {"theme": "dark"}, "balances": "garbage"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Store *domain.Store `json:"store"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Store.Settings.Theme != "dark" {
		t.Errorf("expected theme merged, got %q", resp.Store.Settings.Theme)
	}
	if len(resp.Store.Balances.History) != 1 {
		t.Errorf("expected history preserved despite broken section, got %d", len(resp.Store.Balances.History))
	}
}
