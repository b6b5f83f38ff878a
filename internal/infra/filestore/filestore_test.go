package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/robbyyapr/duwit/internal/domain"
	"github.com/robbyyapr/duwit/internal/infra/filestore"
	"github.com/robbyyapr/duwit/internal/infra/resilience"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2024, time.June, 5, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*filestore.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "store.json")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}
	return filestore.New(path, fixedClock{testNow}, cfg, zap.NewNop()), path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	fs, _ := newStore(t)

	got, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Settings.Theme != "light" || len(got.Balances.History) != 0 {
		t.Errorf("expected default store, got %+v", got)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	fs, path := newStore(t)

	store := domain.DefaultStore(testNow)
	store.Balances.Current = 50
	store.Balances.History = []domain.DailyEntry{{
		Date:           "2024-06-05",
		ClosingBalance: 50,
		TotalWithdraw:  150,
		CapitalUsed:    100,
		Profit:         50,
		ZakatAccrued:   1,
		Transactions: []domain.Transaction{{
			ID:          "tx-1",
			Time:        testNow,
			CapitalUsed: 100,
			Withdraw:    150,
			Profit:      50,
			Zakat:       1,
		}},
	}}

	if err := fs.Save(context.Background(), store); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("data file not written: %v", err)
	}

	got, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Balances.Current != 50 {
		t.Errorf("current = %d", got.Balances.Current)
	}
	tx := got.Balances.History[0].Transactions[0]
	if tx.ID != "tx-1" || tx.Profit != 50 || tx.Zakat != 1 || !tx.Time.Equal(testNow) {
		t.Errorf("transaction did not survive the round trip: %+v", tx)
	}
}

func TestLoadMalformedFileDegradesToDefaults(t *testing.T) {
	fs, path := newStore(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{this is not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := fs.Load(context.Background())
	if err != nil {
		t.Fatalf("malformed content must not be a load error, got %v", err)
	}
	if len(got.Balances.History) != 0 || got.Settings.Theme != "light" {
		t.Errorf("expected defaults, got %+v", got)
	}
}

func TestSaveCreatesDataDir(t *testing.T) {
	fs, path := newStore(t)

	if err := fs.Save(context.Background(), domain.DefaultStore(testNow)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}
