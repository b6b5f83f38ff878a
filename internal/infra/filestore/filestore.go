// Package filestore persists the ledger document as a single JSON file,
// the default backend. Writes are atomic (temp file + rename) and
// serialized by a mutex, so loosely concurrent requests cannot tear or
// lose a write at the file level.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/robbyyapr/duwit/internal/domain"
	"github.com/robbyyapr/duwit/internal/infra/resilience"
	"github.com/robbyyapr/duwit/internal/port"
)

var tracer = otel.Tracer("filestore")

// Store is a file-backed port.StoreRepository.
type Store struct {
	path   string
	clock  port.Clock
	cfg    resilience.Config
	logger *zap.Logger
	mu     sync.Mutex
}

// New creates a file store persisting to path.
func New(path string, clock port.Clock, cfg resilience.Config, logger *zap.Logger) *Store {
	return &Store{path: path, clock: clock, cfg: cfg, logger: logger}
}

// Load reads and sanitizes the persisted document. A missing file yields
// a fresh default store; malformed content degrades field-by-field. Only
// a real I/O failure is an error.
func (s *Store) Load(ctx context.Context) (*domain.Store, error) {
	_, span := tracer.Start(ctx, "filestore.Load")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("filestore: no data file yet, starting from defaults",
			zap.String("path", s.path),
		)
		return domain.DefaultStore(s.clock.Now()), nil
	}
	if err != nil {
		return nil, &domain.ErrStorage{Op: "load", Err: err}
	}

	return domain.Sanitize(raw, domain.DefaultStore(s.clock.Now())), nil
}

// Save writes the document atomically, retrying transient I/O errors
// with backoff.
func (s *Store) Save(ctx context.Context, store *domain.Store) error {
	_, span := tracer.Start(ctx, "filestore.Save")
	defer span.End()

	raw, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return &domain.ErrStorage{Op: "save", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = resilience.RetryWithBackoff(ctx, s.cfg, func() error {
		return s.writeAtomic(raw)
	})
	if err != nil {
		s.logger.Error("filestore: save failed",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return &domain.ErrStorage{Op: "save", Err: err}
	}
	return nil
}

func (s *Store) writeAtomic(raw []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
