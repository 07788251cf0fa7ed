// Package scoring computes project scores from ballots and feed snapshots.
//
// All functions here are pure and deterministic given identical inputs:
// recomputing a score with no new data must yield an identical result, and
// auto-scores must be reproducible in tests.
package scoring

import (
	"math"

	"github.com/vetterlabs/vetter/internal/domain/model"
)

// Score bounds and default composition weights.
const (
	MaxScore = 5.0

	defaultMemberWeight = 0.6
	defaultAutoWeight   = 0.4
)

// Normalization caps for the auto-score composite. A project at or above a
// cap earns the full sub-score for that metric.
const (
	liquidityCap      = 1_000_000.0
	volumeCap         = 500_000.0
	holderGrowthCap   = 50.0 // percent
	socialMentionsCap = 500.0
	volatilityCap     = 100.0 // percent; high volatility scores low
)

// Sub-score weights inside the auto-score composite. They sum to 1.
const (
	liquidityWeight  = 0.30
	volumeWeight     = 0.25
	growthWeight     = 0.20
	socialWeight     = 0.15
	volatilityWeight = 0.10
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights sets the member/auto composition weights. Non-positive pairs
// are ignored; the pair is normalized so the weights sum to 1.
func WithWeights(member, auto float64) Option {
	return func(e *Engine) {
		if member <= 0 && auto <= 0 {
			return
		}
		if member < 0 {
			member = 0
		}
		if auto < 0 {
			auto = 0
		}
		total := member + auto
		e.memberWeight = member / total
		e.autoWeight = auto / total
	}
}

// Engine combines member ballots and feed-derived auto-scores into a
// project's public score.
type Engine struct {
	memberWeight float64
	autoWeight   float64
}

// NewEngine creates an engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		memberWeight: defaultMemberWeight,
		autoWeight:   defaultAutoWeight,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MemberScore returns the mean of all ballot averages and whether any
// ballots exist. No ballots means no member score, not a zero one.
func (e *Engine) MemberScore(ballots []model.Ballot) (float64, bool) {
	if len(ballots) == 0 {
		return 0, false
	}
	var sum float64
	for _, b := range ballots {
		sum += b.Average()
	}
	return sum / float64(len(ballots)), true
}

// AutoScore computes the feed-derived sub-score from the latest snapshot,
// bounded to [0, MaxScore]. Volatility contributes inversely: a perfectly
// calm market earns the full volatility sub-score.
func (e *Engine) AutoScore(snap model.FeedSnapshot) float64 {
	liq := clamp01(snap.Liquidity / liquidityCap)
	vol := clamp01(snap.Volume24h / volumeCap)
	growth := clamp01(snap.HolderGrowth / holderGrowthCap)
	social := clamp01(float64(snap.SocialMentions) / socialMentionsCap)
	calm := 1 - clamp01(math.Abs(snap.PriceVolatility)/volatilityCap)

	composite := liquidityWeight*liq +
		volumeWeight*vol +
		growthWeight*growth +
		socialWeight*social +
		volatilityWeight*calm

	return clampScore(composite * MaxScore)
}

// TotalScore composes the member and auto scores with the configured
// weights. A missing component cedes its weight to the other; with neither
// present the project has no score and ok is false.
func (e *Engine) TotalScore(memberScore float64, hasMember bool, autoScore float64, hasAuto bool) (float64, bool) {
	switch {
	case hasMember && hasAuto:
		return clampScore(e.memberWeight*memberScore + e.autoWeight*autoScore), true
	case hasMember:
		return clampScore(memberScore), true
	case hasAuto:
		return clampScore(autoScore), true
	default:
		return 0, false
	}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func clampScore(x float64) float64 {
	return math.Max(0, math.Min(MaxScore, x))
}
