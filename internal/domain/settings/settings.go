// Package settings holds the process-wide admin configuration for the
// vetting rules and its audit trail.
//
// Readers must observe either the old or the new record atomically, never a
// blend, so the current value lives behind an atomic pointer and is swapped
// whole on every update.
package settings

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vetterlabs/vetter/internal/domain/model"
)

// Bounds on the configurable vetting rules.
const (
	minVoteThreshold          = 0.0
	maxVoteThreshold          = 5.0
	minParticipationThreshold = 0
	maxParticipationThreshold = 100
	minVotesPerUser           = 1
)

// Settings is the versioned value object injected into the scoring engine.
// Treat instances as immutable once published.
type Settings struct {
	Version                int     `json:"version"`
	VoteThreshold          float64 `json:"vote_threshold" koanf:"vote_threshold"`
	ParticipationThreshold int     `json:"participation_threshold" koanf:"participation_threshold"`
	AutoApprovalEnabled    bool    `json:"auto_approval_enabled" koanf:"auto_approval_enabled"`
	FastTrackEnabled       bool    `json:"fast_track_enabled" koanf:"fast_track_enabled"`
	MaxVotesPerUser        int     `json:"max_votes_per_user" koanf:"max_votes_per_user"`
}

// Default returns the settings the service boots with when no persisted
// configuration exists.
func Default() Settings {
	return Settings{
		Version:                1,
		VoteThreshold:          4.0,
		ParticipationThreshold: 51,
		AutoApprovalEnabled:    true,
		FastTrackEnabled:       true,
		MaxVotesPerUser:        10,
	}
}

// Validate lists every violated field.
func (s Settings) Validate() error {
	var bad []string
	if s.VoteThreshold < minVoteThreshold || s.VoteThreshold > maxVoteThreshold {
		bad = append(bad, "vote_threshold")
	}
	if s.ParticipationThreshold < minParticipationThreshold || s.ParticipationThreshold > maxParticipationThreshold {
		bad = append(bad, "participation_threshold")
	}
	if s.MaxVotesPerUser < minVotesPerUser {
		bad = append(bad, "max_votes_per_user")
	}
	if len(bad) > 0 {
		return &model.ValidationError{Fields: bad}
	}
	return nil
}

// AuditEntry records one settings mutation: who changed what, when.
type AuditEntry struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Before    Settings  `json:"before"`
	After     Settings  `json:"after"`
	ChangedAt time.Time `json:"changed_at"`
}

// Holder publishes the current settings and serializes mutations.
type Holder struct {
	current atomic.Pointer[Settings]

	mu    sync.Mutex // serializes Update; reads never take it
	audit []AuditEntry
}

// NewHolder creates a holder seeded with initial. The seed is validated by
// the caller (config load) before it gets here.
func NewHolder(initial Settings) *Holder {
	h := &Holder{}
	if initial.Version == 0 {
		initial.Version = 1
	}
	h.current.Store(&initial)
	return h
}

// Current returns the active settings snapshot.
func (h *Holder) Current() Settings {
	return *h.current.Load()
}

// Update validates next, gates on the actor's role, and swaps the whole
// record. Returns the published settings.
func (h *Holder) Update(ctx context.Context, next Settings, actor string, role model.Role) (Settings, error) {
	if !role.CanAdministrate() {
		return Settings{}, model.ErrForbidden
	}
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	prev := *h.current.Load()
	next.Version = prev.Version + 1
	h.current.Store(&next)
	h.audit = append(h.audit, AuditEntry{
		ID:        uuid.New().String(),
		Actor:     actor,
		Before:    prev,
		After:     next,
		ChangedAt: time.Now().UTC(),
	})
	return next, nil
}

// Audit returns a copy of the mutation history, oldest first.
func (h *Holder) Audit(ctx context.Context) []AuditEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]AuditEntry, len(h.audit))
	copy(out, h.audit)
	return out
}
