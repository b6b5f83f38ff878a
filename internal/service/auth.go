package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/robbyyapr/duwit/internal/domain"
	"github.com/robbyyapr/duwit/internal/infra/observability"
	"github.com/robbyyapr/duwit/internal/port"
)

var authTracer = otel.Tracer("service/auth")

// maxUnlockAttempts failed PINs from one client trip the cooldown.
const maxUnlockAttempts = 5

// AuthService is the lock-screen PIN gate. It is presentation glue for a
// single-user app, not a security boundary: a correct PIN yields a
// short-lived session token whose expiry doubles as the idle re-lock.
// With no PIN hash configured the gate is disabled entirely.
type AuthService struct {
	pinHash  []byte
	secret   []byte
	ttl      time.Duration
	clock    port.Clock
	attempts port.Cache[int]
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAuthService creates the PIN gate.
func NewAuthService(pinBcryptHash, sessionSecret string, sessionTTL time.Duration, clock port.Clock, attempts port.Cache[int], metrics *observability.Metrics, logger *zap.Logger) *AuthService {
	return &AuthService{
		pinHash:  []byte(pinBcryptHash),
		secret:   []byte(sessionSecret),
		ttl:      sessionTTL,
		clock:    clock,
		attempts: attempts,
		metrics:  metrics,
		logger:   logger,
	}
}

// Enabled reports whether a PIN is configured.
func (s *AuthService) Enabled() bool {
	return len(s.pinHash) > 0
}

// Unlock verifies the PIN and issues a session token. Failed attempts
// per client are throttled through the TTL cache, so the cooldown
// clears itself.
func (s *AuthService) Unlock(ctx context.Context, pin, client string) (string, error) {
	_, span := authTracer.Start(ctx, "AuthService.Unlock")
	defer span.End()

	count, _ := s.attempts.Get(client)
	if count >= maxUnlockAttempts {
		s.metrics.IncrUnlock("throttled")
		s.logger.Warn("auth: unlock throttled", zap.String("client", client))
		return "", &domain.ErrUnauthorized{Message: "Terlalu banyak percobaan, coba lagi nanti"}
	}

	if err := bcrypt.CompareHashAndPassword(s.pinHash, []byte(pin)); err != nil {
		s.attempts.Set(client, count+1)
		s.metrics.IncrUnlock("failure")
		return "", &domain.ErrUnauthorized{Message: "PIN salah"}
	}

	s.attempts.Delete(client)
	s.metrics.IncrUnlock("success")

	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "owner",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Verify checks a session token.
func (s *AuthService) Verify(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &domain.ErrUnauthorized{Message: "unexpected signing method"}
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !token.Valid {
		return &domain.ErrUnauthorized{Message: "Sesi terkunci, buka kembali dengan PIN"}
	}
	return nil
}

// SessionTTL exposes the idle-lock window.
func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}
