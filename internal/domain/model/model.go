// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle phase of a project. The progression is one-way:
// VETTING -> APPROVED or VETTING -> PARTNERSHIP; approved and partnership
// projects never re-enter vetting.
type Status string

// Project lifecycle statuses.
const (
	StatusVetting     Status = "VETTING"
	StatusApproved    Status = "APPROVED"
	StatusPartnership Status = "PARTNERSHIP"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusVetting, StatusApproved, StatusPartnership:
		return true
	}
	return false
}

// CanTransition reports whether a project in status s may move to next.
func (s Status) CanTransition(next Status) bool {
	return s == StatusVetting && (next == StatusApproved || next == StatusPartnership)
}

// Role is the caller's capability level. Closed enumeration; free-form
// role strings coming off the wire must be parsed through ParseRole.
type Role int

// Caller roles, least to most privileged.
const (
	RoleGuest Role = iota
	RoleMember
	RoleAdmin
)

// ParseRole maps a wire value to a Role. Unknown values degrade to GUEST.
func ParseRole(s string) Role {
	switch s {
	case "ADMIN":
		return RoleAdmin
	case "MEMBER":
		return RoleMember
	default:
		return RoleGuest
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleMember:
		return "MEMBER"
	default:
		return "GUEST"
	}
}

// CanVote reports whether the role may cast ballots.
func (r Role) CanVote() bool { return r >= RoleMember }

// CanSubmitProject reports whether the role may create projects.
func (r Role) CanSubmitProject() bool { return r >= RoleMember }

// CanAdministrate reports whether the role may mutate settings or
// fast-track approvals.
func (r Role) CanAdministrate() bool { return r == RoleAdmin }

// Project is the registry record for a token project under review.
type Project struct {
	ID          string
	Seq         uint64 // creation order, used for stable pagination
	Name        string
	Symbol      string
	Logo        string
	Description string
	Website     string
	Twitter     string
	Telegram    string

	Status Status

	// Score is only meaningful while Scored is true: a project with no
	// ballots and no feed snapshots has no score, not a zero score.
	Score  float64
	Scored bool
	Votes  int

	// Market fields, refreshed by feed ingestion. Not user-writable.
	Liquidity   float64
	Volume24h   float64
	Price       float64
	PriceChange float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ratings holds the five 1-5 category ratings of a ballot.
type Ratings struct {
	Meme      int `json:"meme"`
	Roadmap   int `json:"roadmap"`
	Growth    int `json:"growth"`
	Narrative int `json:"narrative"`
	Utility   int `json:"utility"`
}

// categories iterates ratings in a fixed order so validation output is
// deterministic.
func (r Ratings) categories() [5]struct {
	name  string
	value int
} {
	return [5]struct {
		name  string
		value int
	}{
		{"meme", r.Meme},
		{"roadmap", r.Roadmap},
		{"growth", r.Growth},
		{"narrative", r.Narrative},
		{"utility", r.Utility},
	}
}

// Validate rejects any category outside [1,5]. A zero value means the
// category was missing from the submission.
func (r Ratings) Validate() error {
	var bad []string
	for _, c := range r.categories() {
		if c.value < 1 || c.value > 5 {
			bad = append(bad, c.name)
		}
	}
	if len(bad) > 0 {
		return &RatingError{Categories: bad}
	}
	return nil
}

// Average returns the arithmetic mean of the five categories.
func (r Ratings) Average() float64 {
	sum := r.Meme + r.Roadmap + r.Growth + r.Narrative + r.Utility
	return float64(sum) / 5.0
}

// Ballot is one member's vote on one project. At most one ballot exists
// per (user, project) pair; resubmission replaces the prior ballot.
type Ballot struct {
	ProjectID string
	UserID    string
	Ratings   Ratings
	CastAt    time.Time
}

// Average returns the ballot's category mean.
func (b Ballot) Average() float64 { return b.Ratings.Average() }

// Feed snapshot bounds. Holder growth and volatility are percentages; a
// value outside [-100, 1000] indicates a broken upstream feed.
const (
	SnapshotPctMin = -100.0
	SnapshotPctMax = 1000.0
)

// FeedSnapshot is one timestamped measurement of a project's on-chain and
// market metrics. Snapshots are append-only per project.
type FeedSnapshot struct {
	ProjectID       string    `json:"project_id"`
	Liquidity       float64   `json:"liquidity"`
	Volume24h       float64   `json:"volume_24h"`
	HolderGrowth    float64   `json:"holder_growth"`
	PriceVolatility float64   `json:"price_volatility"`
	SocialMentions  int       `json:"social_mentions"`
	Price           float64   `json:"price"`
	PriceChange     float64   `json:"price_change"`
	Timestamp       time.Time `json:"timestamp"`
}

// Validate rejects snapshots with negative liquidity/volume or percentage
// fields outside the sane bound.
func (s FeedSnapshot) Validate() error {
	var bad []string
	if s.Liquidity < 0 {
		bad = append(bad, "liquidity")
	}
	if s.Volume24h < 0 {
		bad = append(bad, "volume_24h")
	}
	if s.HolderGrowth < SnapshotPctMin || s.HolderGrowth > SnapshotPctMax {
		bad = append(bad, "holder_growth")
	}
	if s.PriceVolatility < SnapshotPctMin || s.PriceVolatility > SnapshotPctMax {
		bad = append(bad, "price_volatility")
	}
	if s.SocialMentions < 0 {
		bad = append(bad, "social_mentions")
	}
	if len(bad) > 0 {
		return &SnapshotError{Fields: bad}
	}
	return nil
}

// DedupeKey identifies a snapshot delivery for at-most-once ingestion.
// Feeds redeliver; a project never has two snapshots at the same instant.
func (s FeedSnapshot) DedupeKey() string {
	return fmt.Sprintf("%s@%d", s.ProjectID, s.Timestamp.UnixNano())
}

// FeedView is the read shape of a project's feed: recent snapshots plus
// the scores derived from them. Score pointers are nil when the underlying
// data does not exist yet.
type FeedView struct {
	ProjectID  string         `json:"project_id"`
	Snapshots  []FeedSnapshot `json:"snapshots"`
	AutoScore  *float64       `json:"auto_score"`
	TotalScore *float64       `json:"total_score"`
}

// ROIRecord measures price performance since approval. Created exactly once
// per project, at the approval instant.
type ROIRecord struct {
	ProjectID    string    `json:"project_id"`
	EntryPrice   float64   `json:"entry_price"`
	CurrentPrice float64   `json:"current_price"`
	PeakPrice    float64   `json:"peak_price"`
	ROI          float64   `json:"roi"`
	PeakROI      float64   `json:"peak_roi"`
	ApprovedAt   time.Time `json:"approved_at"`
}
