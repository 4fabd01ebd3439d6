package mock

import (
	"context"

	"github.com/dukerupert/angelia"
)

// Compile-time interface check
var _ angelia.TokenRegistry = (*TokenRegistry)(nil)

// TokenRegistry is a mock implementation of angelia.TokenRegistry.
type TokenRegistry struct {
	AuthorizeFn func(ctx context.Context, token string) ([]string, error)
	CountFn     func(ctx context.Context) int

	// Tracking authorize calls for assertions
	AuthorizeCalls []string
}

func (r *TokenRegistry) Authorize(ctx context.Context, token string) ([]string, error) {
	r.AuthorizeCalls = append(r.AuthorizeCalls, token)
	if r.AuthorizeFn != nil {
		return r.AuthorizeFn(ctx, token)
	}
	return nil, angelia.Forbidden("Invalid token or unauthorized access")
}

func (r *TokenRegistry) Count(ctx context.Context) int {
	if r.CountFn != nil {
		return r.CountFn(ctx)
	}
	return 0
}

// Reset clears all recorded calls.
func (r *TokenRegistry) Reset() {
	r.AuthorizeCalls = nil
}
