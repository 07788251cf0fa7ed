package feedsim

import "time"

// Config holds configuration for the feed simulation.
type Config struct {
	BaseURL             string        // Base URL of the service
	NumProjects         int           // Number of projects to submit
	NumVoters           int           // Size of the simulated voter pool
	SnapshotsPerProject int           // Feed snapshots delivered per project
	Workers             int           // Number of concurrent workers
	Timeout             time.Duration // HTTP request timeout
	LogFile             string        // Log file for simulation output
	Verbose             bool          // Enable verbose logging
}

// ProjectSubmission is the wire shape for POST /projects.
type ProjectSubmission struct {
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	Liquidity float64 `json:"liquidity"`
	Volume24h float64 `json:"volume_24h"`
	Price     float64 `json:"price"`
}

// Project is the wire shape returned by project reads.
type Project struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Symbol string   `json:"symbol"`
	Status string   `json:"status"`
	Score  *float64 `json:"score"`
	Votes  int      `json:"votes"`
	Price  float64  `json:"price"`
}

// Ratings is one ballot's category ratings.
type Ratings struct {
	Meme      int `json:"meme"`
	Roadmap   int `json:"roadmap"`
	Growth    int `json:"growth"`
	Narrative int `json:"narrative"`
	Utility   int `json:"utility"`
}

// VoteRequest is the wire shape for POST /projects/{id}/votes.
type VoteRequest struct {
	Ratings Ratings `json:"ratings"`
}

// Snapshot is the wire shape for POST /projects/{id}/snapshots.
type Snapshot struct {
	Liquidity       float64 `json:"liquidity"`
	Volume24h       float64 `json:"volume_24h"`
	HolderGrowth    float64 `json:"holder_growth"`
	PriceVolatility float64 `json:"price_volatility"`
	SocialMentions  int     `json:"social_mentions"`
	Price           float64 `json:"price"`
	Timestamp       string  `json:"timestamp"`
}

// ROIRecord is the wire shape returned by GET /projects/{id}/roi.
type ROIRecord struct {
	ProjectID  string  `json:"project_id"`
	EntryPrice float64 `json:"entry_price"`
	ROI        float64 `json:"roi"`
	PeakROI    float64 `json:"peak_roi"`
}

// Stats holds simulation statistics.
type Stats struct {
	ProjectsCreated    int
	BallotsCast        int
	BallotsRejected    int
	SnapshotsAccepted  int
	SnapshotsDropped   int
	ProjectsApproved   int
	ProjectsVetting    int
	ROIRecordsVerified int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
