package angelia

import "context"

// TokenRegistry resolves bearer tokens to their authorized recipient lists.
type TokenRegistry interface {
	// Authorize returns the ordered recipient list configured for the
	// token. It returns an EFORBIDDEN error both for unknown tokens and
	// for tokens mapped to an empty list; callers must not be able to
	// tell the two apart.
	Authorize(ctx context.Context, token string) ([]string, error)

	// Count returns the number of configured tokens. Used by the health
	// endpoint; a registry that cannot be read counts as empty.
	Count(ctx context.Context) int
}

// TokenPrefix returns the first n characters of a token for log
// traceability without leaking the full secret.
func TokenPrefix(token string, n int) string {
	if len(token) <= n {
		return token
	}
	return token[:n] + "..."
}
