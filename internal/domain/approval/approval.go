// Package approval decides status transitions from scores and thresholds.
package approval

import (
	"errors"

	"github.com/vetterlabs/vetter/internal/domain/settings"
)

// ErrFastTrackBlocked means a fast-track request failed the score check or
// the feature is disabled.
var ErrFastTrackBlocked = errors.New("fast track blocked")

// Decision is the outcome of an auto-approval evaluation.
type Decision int

// Evaluation outcomes.
const (
	// DecisionNone means the project stays in vetting.
	DecisionNone Decision = iota
	// DecisionApprove means the project meets both thresholds.
	DecisionApprove
)

// Evaluate applies the admin-configured thresholds to a project's current
// score and voter participation. Settings are passed in explicitly so tests
// can inject arbitrary thresholds.
//
// A project with no score never auto-approves: absent data is not zero.
func Evaluate(totalScore float64, scored bool, participationRate float64, cfg settings.Settings) Decision {
	if !cfg.AutoApprovalEnabled {
		return DecisionNone
	}
	if !scored {
		return DecisionNone
	}
	if totalScore < cfg.VoteThreshold {
		return DecisionNone
	}
	if participationRate < float64(cfg.ParticipationThreshold) {
		return DecisionNone
	}
	return DecisionApprove
}

// CanFastTrack reports whether an admin may force the approval. Fast-track
// bypasses the participation check but never the score check, and requires
// the feature to be enabled.
func CanFastTrack(totalScore float64, scored bool, cfg settings.Settings) bool {
	if !cfg.FastTrackEnabled {
		return false
	}
	if !scored {
		return false
	}
	return totalScore >= cfg.VoteThreshold
}
