// Package remotestore persists the ledger document against a remote
// HTTP endpoint exposing GET/PUT /api/store. It is the optional backend
// for running duwit as a thin node in front of a shared store; calls go
// through a circuit breaker, retry with backoff, and a bulkhead.
package remotestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/robbyyapr/duwit/internal/domain"
	"github.com/robbyyapr/duwit/internal/infra/resilience"
	"github.com/robbyyapr/duwit/internal/port"
)

var tracer = otel.Tracer("remotestore")

// Client is an HTTP-backed port.StoreRepository.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clock      port.Clock
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewClient creates a remote store client.
func NewClient(httpClient *http.Client, baseURL string, clock port.Clock, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		clock:      clock,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(maxConcurrency),
		logger:     logger,
	}
}

// Load fetches and sanitizes the remote document.
func (c *Client) Load(ctx context.Context) (*domain.Store, error) {
	ctx, span := tracer.Start(ctx, "remotestore.Load")
	defer span.End()

	raw, err := c.doRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "load", Err: err}
	}
	return domain.Sanitize(raw, domain.DefaultStore(c.clock.Now())), nil
}

// Save replaces the remote document with the given store.
func (c *Client) Save(ctx context.Context, store *domain.Store) error {
	ctx, span := tracer.Start(ctx, "remotestore.Save")
	defer span.End()

	body, err := json.Marshal(store)
	if err != nil {
		return &domain.ErrStorage{Op: "save", Err: err}
	}
	if _, err := c.doRequest(ctx, http.MethodPut, body); err != nil {
		return &domain.ErrStorage{Op: "save", Err: err}
	}
	return nil
}

// doRequest executes one store request through bulkhead, breaker and retry.
func (c *Client) doRequest(ctx context.Context, method string, body []byte) ([]byte, error) {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	var raw []byte
	err := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
		result, err := c.cb.Execute(func() (interface{}, error) {
			return c.roundTrip(ctx, method, body)
		})
		if err != nil {
			return err
		}
		raw, _ = result.([]byte)
		return nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &domain.ErrCircuitOpen{Service: "remote-store"}
		}
		return nil, err
	}
	return raw, nil
}

func (c *Client) roundTrip(ctx context.Context, method string, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/api/store", c.baseURL)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("remotestore: request failed",
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("remotestore: non-2xx response",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("remote store returned status %d", resp.StatusCode)
	}

	c.logger.Debug("remotestore: request OK",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
	)
	return raw, nil
}
