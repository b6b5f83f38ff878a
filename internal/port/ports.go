// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/robbyyapr/duwit/internal/domain"
)

// StoreRepository persists the ledger document as a whole.
// Load returns a fully-populated store: missing or malformed persisted
// state is defaulted field-by-field, never rejected.
type StoreRepository interface {
	Load(ctx context.Context) (*domain.Store, error)
	Save(ctx context.Context, store *domain.Store) error
}

// Clock supplies "now" for timestamps, day keys, and the reminder
// schedule. Substitutable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
