// Package ratelimit provides approximate per-client admission control.
// Implementations are deliberately coarse: the purpose is abuse mitigation,
// not billing-grade accounting.
package ratelimit

import "context"

// Limiter answers whether one more request from key is admitted under the
// given per-window limit. Implementations must be safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int) bool
}
