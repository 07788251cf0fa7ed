// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
	"time"
)

// Storage backend names.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Storage selects the backing store: memory or postgres.
	Storage string `koanf:"storage"`

	// PostgresDSN is the connection string when storage is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// SnapshotQueueSize bounds the in-memory snapshot queue.
	SnapshotQueueSize int `koanf:"snapshot_queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the snapshot delivery dedupe window.
	DedupeSize int `koanf:"dedupe_size"`

	// MemberWeight and AutoWeight compose the total score. They are
	// normalized, so only their ratio matters.
	MemberWeight float64 `koanf:"member_weight"`
	AutoWeight   float64 `koanf:"auto_weight"`

	// VoterPoolSize is the expected voter pool used for participation.
	VoterPoolSize int `koanf:"voter_pool_size"`

	// MaxPageLimit caps GET /projects?limit.
	MaxPageLimit int `koanf:"max_page_limit"`

	// FeedPollSeconds is the market-data polling interval; zero disables
	// the poller (snapshots then arrive only via the ingest endpoint).
	FeedPollSeconds int `koanf:"feed_poll_seconds"`

	// MarketDataBaseURL is the ticker API root for the feed collector.
	MarketDataBaseURL string `koanf:"market_data_base_url"`

	// SocialBaseURL is the social-mentions API root; empty disables the
	// social component of collected snapshots.
	SocialBaseURL string `koanf:"social_base_url"`

	// Initial vetting rules, applied when no persisted settings exist.
	VoteThreshold          float64 `koanf:"vote_threshold"`
	ParticipationThreshold int     `koanf:"participation_threshold"`
	AutoApprovalEnabled    bool    `koanf:"auto_approval_enabled"`
	FastTrackEnabled       bool    `koanf:"fast_track_enabled"`
	MaxVotesPerUser        int     `koanf:"max_votes_per_user"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		Storage:                StorageMemory,
		SnapshotQueueSize:      10_000,
		WorkerCount:            runtime.NumCPU() * 2,
		DedupeSize:             50_000,
		MemberWeight:           0.6,
		AutoWeight:             0.4,
		VoterPoolSize:          100,
		MaxPageLimit:           100,
		FeedPollSeconds:        60,
		MarketDataBaseURL:      "https://api.binance.com",
		SocialBaseURL:          "",
		VoteThreshold:          4.0,
		ParticipationThreshold: 51,
		AutoApprovalEnabled:    true,
		FastTrackEnabled:       true,
		MaxVotesPerUser:        10,
	}
}

// FeedPollInterval returns the poll interval as a duration.
func (c *Config) FeedPollInterval() time.Duration {
	return time.Duration(c.FeedPollSeconds) * time.Second
}
