package marketdata

import (
	"context"
	"time"

	"github.com/vetterlabs/vetter/internal/domain/model"
	"github.com/vetterlabs/vetter/pkg/logger"
)

const defaultPollInterval = time.Minute

// Source produces a feed snapshot for a project's trading symbol.
type Source interface {
	CollectSnapshot(ctx context.Context, projectID, symbol string) (model.FeedSnapshot, error)
}

// ProjectLister returns the projects whose feeds should be refreshed.
type ProjectLister interface {
	TrackedProjects(ctx context.Context) ([]model.Project, error)
}

// Enqueuer hands a collected snapshot to the ingestion pipeline.
// Returns false when the snapshot was dropped.
type Enqueuer interface {
	EnqueueSnapshot(ctx context.Context, s model.FeedSnapshot) bool
}

// Poller periodically collects snapshots for all tracked projects and feeds
// them into the ingestion queue. Collection failures for one project never
// block the others.
type Poller struct {
	source   Source
	lister   ProjectLister
	enqueuer Enqueuer
	interval time.Duration
	logger   logger.Logger
}

// NewPoller creates a poller with configuration options.
func NewPoller(source Source, lister ProjectLister, enqueuer Enqueuer, opts ...PollerOption) *Poller {
	p := &Poller{
		source:   source,
		lister:   lister,
		enqueuer: enqueuer,
		interval: defaultPollInterval,
		logger:   logger.Get().Named("feed-poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithPollerLogger sets a custom logger for the poller.
func WithPollerLogger(l logger.Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// Run polls until ctx is canceled. The first sweep happens after one full
// interval.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *Poller) sweep(ctx context.Context) {
	projects, err := p.lister.TrackedProjects(ctx)
	if err != nil {
		p.logger.Error(ctx, "failed to list tracked projects", logger.Error(err))
		return
	}

	for _, project := range projects {
		if project.Symbol == "" {
			continue
		}

		snap, err := p.source.CollectSnapshot(ctx, project.ID, project.Symbol)
		if err != nil {
			p.logger.Warn(ctx, "snapshot collection failed",
				logger.String("projectID", project.ID),
				logger.String("symbol", project.Symbol),
				logger.Error(err),
			)
			continue
		}

		if !p.enqueuer.EnqueueSnapshot(ctx, snap) {
			p.logger.Warn(ctx, "snapshot dropped",
				logger.String("projectID", project.ID),
			)
		}
	}
}
