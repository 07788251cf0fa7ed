// Package membership abstracts the expected voter pool used to compute
// participation rates. The real pool lives in an external membership
// registry; the static implementation covers single-process deployments
// and tests.
package membership

import "context"

// Registry reports the size of the eligible voter pool.
type Registry interface {
	// PoolSize returns the number of members expected to vote. Zero means
	// the pool is unknown; participation cannot be computed.
	PoolSize(ctx context.Context) int
}

// StaticRegistry is a fixed-size pool, typically sized from config.
type StaticRegistry struct {
	size int
}

// NewStaticRegistry creates a registry with a fixed pool size.
func NewStaticRegistry(size int) *StaticRegistry {
	if size < 0 {
		size = 0
	}
	return &StaticRegistry{size: size}
}

// PoolSize implements Registry.
func (r *StaticRegistry) PoolSize(_ context.Context) int { return r.size }

// ParticipationRate returns voters/pool as a percentage. An unknown pool
// degrades to zero participation, which blocks auto-approval but never
// blocks voting.
func ParticipationRate(voters, pool int) float64 {
	if pool <= 0 {
		return 0
	}
	return float64(voters) / float64(pool) * 100
}
