// Package token defines the bearer-credential capability consumed by the
// transport clients.
package token

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single credential refresh.
const DefaultTimeout = 2 * time.Second

// Provider supplies a current bearer token, refreshing if near expiry.
// An empty token with nil error means "no credential available".
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (string, error)

// Token implements Provider.
func (f ProviderFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Bounded wraps a Provider with a hard timeout and degrades failure to
// "proceed without a token". A slow or broken credential refresh must never
// stall or fail a search; the backend owns rejecting unauthenticated calls.
type Bounded struct {
	inner   Provider
	timeout time.Duration
	logger  *zap.Logger
}

// NewBounded creates the timeout wrapper. timeout <= 0 means DefaultTimeout.
func NewBounded(inner Provider, timeout time.Duration, logger *zap.Logger) *Bounded {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bounded{inner: inner, timeout: timeout, logger: logger}
}

// Token returns the current bearer token, or "" if the inner provider is
// missing, errors, or exceeds the timeout. Never returns an error.
func (b *Bounded) Token(ctx context.Context) string {
	if b.inner == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	tok, err := b.inner.Token(ctx)
	if err != nil {
		b.logger.Warn("Token refresh failed, proceeding unauthenticated", zap.Error(err))
		return ""
	}
	return tok
}
