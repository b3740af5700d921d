package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var sessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "session_events_total",
	Help: "Session lifecycle events by operation and outcome.",
}, []string{"op", "outcome"})

// logoutOutcome records what Logout actually did; callers only see success.
type logoutOutcome string

const (
	logoutRevoked         logoutOutcome = "revoked"
	logoutNoToken         logoutOutcome = "no_token"
	logoutMalformed       logoutOutcome = "malformed"
	logoutRegistryFailure logoutOutcome = "registry_failure"
)

// Logout revokes the refresh token if it parses. It always reports success to
// the caller; the real outcome is logged and counted.
func (s *SessionManager) Logout(ctx context.Context, refreshToken string) {
	out := s.logout(ctx, refreshToken)
	sessionEvents.WithLabelValues("logout", string(out)).Inc()
	if out != logoutRegistryFailure {
		s.log.Debug("logout", zap.String("outcome", string(out)))
	}
}

func (s *SessionManager) logout(ctx context.Context, refreshToken string) logoutOutcome {
	if refreshToken == "" {
		return logoutNoToken
	}
	claims, err := s.tokens.Inspect(refreshToken)
	if err != nil {
		return logoutMalformed
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt); err != nil {
		s.log.Warn("logout: refresh token not revoked", zap.Error(err))
		return logoutRegistryFailure
	}
	return logoutRevoked
}

// identityHash keeps raw emails out of logs.
func identityHash(identity string) string {
	h := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(h[:8])
}
