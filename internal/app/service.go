// Package service provides the core vetting service that implements the
// dependencies required by the HTTP API and the feed pipeline.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	snapqueue "github.com/vetterlabs/vetter/internal/adapters/mq/queue"
	workerpool "github.com/vetterlabs/vetter/internal/adapters/mq/worker"
	repository "github.com/vetterlabs/vetter/internal/adapters/repository"
	"github.com/vetterlabs/vetter/internal/domain/approval"
	"github.com/vetterlabs/vetter/internal/domain/dedupe"
	"github.com/vetterlabs/vetter/internal/domain/membership"
	"github.com/vetterlabs/vetter/internal/domain/model"
	"github.com/vetterlabs/vetter/internal/domain/roi"
	"github.com/vetterlabs/vetter/internal/domain/scoring"
	"github.com/vetterlabs/vetter/internal/domain/settings"
	"github.com/vetterlabs/vetter/pkg/logger"
	"github.com/vetterlabs/vetter/pkg/metrics"
)

const trackedPageSize = 500

// Service implements the vetting system: project registry, vote tally,
// feed ingestion and ROI tracking.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	deduper   dedupe.Deduper
	snapQueue snapqueue.Queue
	engine    *scoring.Engine
	pool      *workerpool.Pool
	settings  *settings.Holder
	registry  membership.Registry
	locks     *keyedLocks

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	memberWeight  float64
	autoWeight    float64
	voterPoolSize int
	maxPageLimit  int
	initial       settings.Settings

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Defaults to the in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of ingestion worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the snapshot queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the delivery deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithScoringWeights sets the member/auto score composition weights.
func WithScoringWeights(member, auto float64) Option {
	return func(s *Service) {
		s.memberWeight = member
		s.autoWeight = auto
	}
}

// WithVoterPoolSize sets the static voter pool used for participation.
func WithVoterPoolSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.voterPoolSize = size
		}
	}
}

// WithRegistry overrides the membership registry.
func WithRegistry(r membership.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithMaxPageLimit caps the page size of listings.
func WithMaxPageLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxPageLimit = limit
		}
	}
}

// WithInitialSettings seeds the admin settings the service boots with.
func WithInitialSettings(cfg settings.Settings) Option {
	return func(s *Service) {
		s.initial = cfg
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 2,
		queueSize:     10_000,
		dedupeSize:    50_000,
		memberWeight:  0.6,
		autoWeight:    0.4,
		voterPoolSize: 100,
		maxPageLimit:  100,
		initial:       settings.Default(),
		stopCh:        make(chan struct{}),
		locks:         newKeyedLocks(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("vetting")
	}

	s.logger.Info(ctx, "starting vetting service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.registry == nil {
		s.registry = membership.NewStaticRegistry(s.voterPoolSize)
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.snapQueue = snapqueue.NewInMemoryQueue(
		snapqueue.WithCapacity(s.queueSize),
	)
	s.engine = scoring.NewEngine(
		scoring.WithWeights(s.memberWeight, s.autoWeight),
	)
	s.settings = settings.NewHolder(s.initial)

	s.pool = workerpool.NewPool(s.workerCount, s.snapQueue, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "vetting service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("voterPool", s.registry.PoolSize(ctx)),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping vetting service...")

	if s.snapQueue != nil {
		_ = s.snapQueue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "vetting service stopped")
}

func (s *Service) ensureStarted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// CreateProject registers a new project in vetting status.
func (s *Service) CreateProject(ctx context.Context, p model.Project, role model.Role) (model.Project, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Project{}, err
	}
	if !role.CanSubmitProject() {
		return model.Project{}, model.ErrForbidden
	}
	if err := validateSubmission(p); err != nil {
		return model.Project{}, err
	}

	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.Status = model.StatusVetting
	p.Score = 0
	p.Scored = false
	p.Votes = 0
	p.CreatedAt = now
	p.UpdatedAt = now

	created, err := s.store.CreateProject(ctx, p)
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	metrics.RecordProjectCreated()
	s.refreshStatusGauges(ctx)
	s.logger.Info(ctx, "project created",
		logger.String("projectID", created.ID),
		logger.String("symbol", created.Symbol),
	)
	return created, nil
}

// validateSubmission lists every invalid field of a project submission.
func validateSubmission(p model.Project) error {
	var bad []string
	if p.Name == "" {
		bad = append(bad, "name")
	}
	if p.Symbol == "" {
		bad = append(bad, "symbol")
	}
	if p.Liquidity < 0 {
		bad = append(bad, "liquidity")
	}
	if p.Volume24h < 0 {
		bad = append(bad, "volume_24h")
	}
	if p.Price < 0 {
		bad = append(bad, "price")
	}
	if len(bad) > 0 {
		return &model.ValidationError{Fields: bad}
	}
	return nil
}

// GetProject returns one project by id.
func (s *Service) GetProject(ctx context.Context, id string) (model.Project, error) {
	return s.store.GetProject(ctx, id)
}

// ListProjects returns one page of projects plus the total matching count.
func (s *Service) ListProjects(ctx context.Context, f repository.ProjectFilter, page, limit int) ([]model.Project, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > s.maxPageLimit {
		limit = s.maxPageLimit
	}
	return s.store.ListProjects(ctx, f, page, limit)
}

// SubmitVote records a member's ballot on a project and recomputes its
// score. Resubmitting replaces the member's prior ballot on that project.
// Returns the refreshed project and whether a prior ballot was replaced.
func (s *Service) SubmitVote(ctx context.Context, projectID, userID string, ratings model.Ratings, role model.Role) (model.Project, bool, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Project{}, false, err
	}
	if !role.CanVote() {
		metrics.RecordVoteRejected("forbidden")
		return model.Project{}, false, model.ErrForbidden
	}

	unlock := s.locks.Lock(projectID)
	defer unlock()

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		metrics.RecordVoteRejected("not_found")
		return model.Project{}, false, err
	}
	if project.Status != model.StatusVetting {
		metrics.RecordVoteRejected("not_vetting")
		return model.Project{}, false, model.ErrProjectNotVetting
	}
	if err := ratings.Validate(); err != nil {
		metrics.RecordVoteRejected("invalid_rating")
		return model.Project{}, false, err
	}

	// The per-user limit counts distinct projects, so replacing an
	// existing ballot on this project never trips it.
	resubmission, err := s.hasBallot(ctx, projectID, userID)
	if err != nil {
		return model.Project{}, false, err
	}
	if !resubmission {
		open, err := s.store.CountOpenBallots(ctx, userID)
		if err != nil {
			return model.Project{}, false, err
		}
		if cfg := s.settings.Current(); open >= cfg.MaxVotesPerUser {
			metrics.RecordVoteRejected("vote_limit")
			return model.Project{}, false, model.ErrVoteLimitExceeded
		}
	}

	replaced, err := s.store.UpsertBallot(ctx, model.Ballot{
		ProjectID: projectID,
		UserID:    userID,
		Ratings:   ratings,
		CastAt:    time.Now().UTC(),
	})
	if err != nil {
		return model.Project{}, false, fmt.Errorf("failed to store ballot: %w", err)
	}

	metrics.RecordVoteAccepted()
	if replaced {
		metrics.RecordBallotReplaced()
	}

	project, err = s.recomputeLocked(ctx, project)
	if err != nil {
		return model.Project{}, false, err
	}
	return project, replaced, nil
}

func (s *Service) hasBallot(ctx context.Context, projectID, userID string) (bool, error) {
	ballots, err := s.store.ListBallots(ctx, projectID)
	if err != nil {
		return false, err
	}
	for _, b := range ballots {
		if b.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// EnqueueSnapshot submits a snapshot for asynchronous ingestion. Duplicate
// deliveries are absorbed and report success. Returns false only on
// backpressure; the delivery key is released so the sender can retry.
func (s *Service) EnqueueSnapshot(ctx context.Context, snap model.FeedSnapshot) bool {
	key := snap.DedupeKey()
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordSnapshotDuplicate()
		s.logger.Debug(ctx, "duplicate snapshot delivery",
			logger.String("key", key),
		)
		return true
	}
	if !s.snapQueue.Enqueue(ctx, snap) {
		s.deduper.Unrecord(ctx, key)
		return false
	}
	return true
}

// IngestSnapshot applies one feed snapshot: appends it to the project's
// series, refreshes market fields, recomputes the score and, when the
// project is already approved, updates its ROI record.
func (s *Service) IngestSnapshot(ctx context.Context, snap model.FeedSnapshot) error {
	if err := snap.Validate(); err != nil {
		metrics.RecordSnapshotRejected()
		return err
	}

	unlock := s.locks.Lock(snap.ProjectID)
	defer unlock()

	project, err := s.store.GetProject(ctx, snap.ProjectID)
	if err != nil {
		metrics.RecordSnapshotRejected()
		return fmt.Errorf("snapshot for unknown project %s: %w", snap.ProjectID, err)
	}

	if err := s.store.AppendSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	metrics.RecordSnapshotIngested()

	project.Liquidity = snap.Liquidity
	project.Volume24h = snap.Volume24h
	if snap.Price > 0 {
		project.Price = snap.Price
		project.PriceChange = snap.PriceChange
	}

	project, err = s.recomputeLocked(ctx, project)
	if err != nil {
		return err
	}

	return s.updateROILocked(ctx, project.ID, snap.Price)
}

// updateROILocked folds a price observation into the project's ROI record.
// Projects still in vetting have no record and the observation is a no-op.
func (s *Service) updateROILocked(ctx context.Context, projectID string, price float64) error {
	if price <= 0 {
		return nil
	}
	rec, err := s.store.GetROI(ctx, projectID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	rec = roi.Apply(rec, price)
	if err := s.store.SaveROI(ctx, rec); err != nil {
		return fmt.Errorf("failed to save roi record: %w", err)
	}
	metrics.RecordROIUpdate()
	return nil
}

// recomputeLocked recomputes the project score from all ballots and the
// latest snapshot, evaluates auto-approval, and persists the result. The
// caller holds the project lock.
func (s *Service) recomputeLocked(ctx context.Context, project model.Project) (model.Project, error) {
	ballots, err := s.store.ListBallots(ctx, project.ID)
	if err != nil {
		return model.Project{}, err
	}
	memberScore, hasMember := s.engine.MemberScore(ballots)

	snap, hasSnap, err := s.store.LatestSnapshot(ctx, project.ID)
	if err != nil {
		return model.Project{}, err
	}
	var autoScore float64
	if hasSnap {
		autoScore = s.engine.AutoScore(snap)
	}

	total, scored := s.engine.TotalScore(memberScore, hasMember, autoScore, hasSnap)
	project.Score = total
	project.Scored = scored
	project.Votes = len(ballots)
	project.UpdatedAt = time.Now().UTC()
	metrics.RecordScoreRecompute()

	if project.Status == model.StatusVetting {
		cfg := s.settings.Current()
		rate := membership.ParticipationRate(len(ballots), s.registry.PoolSize(ctx))
		if approval.Evaluate(total, scored, rate, cfg) == approval.DecisionApprove {
			project = s.approveLocked(ctx, project, "auto")
			metrics.RecordAutoApproval()
		}
	}

	if err := s.store.SaveProject(ctx, project); err != nil {
		return model.Project{}, fmt.Errorf("failed to save project: %w", err)
	}
	s.refreshStatusGauges(ctx)
	return project, nil
}

// approveLocked moves a vetting project to approved and captures its ROI
// entry record at the current market price. The caller holds the project
// lock and persists the returned project.
func (s *Service) approveLocked(ctx context.Context, project model.Project, cause string) model.Project {
	now := time.Now().UTC()
	project.Status = model.StatusApproved
	project.UpdatedAt = now

	rec := roi.NewRecord(project.ID, project.Price, now)
	if _, err := s.store.CreateROI(ctx, rec); err != nil {
		s.logger.Error(ctx, "failed to create roi record",
			logger.String("projectID", project.ID),
			logger.Error(err),
		)
	}

	s.logger.Info(ctx, "project approved",
		logger.String("projectID", project.ID),
		logger.String("cause", cause),
		logger.Float64("score", project.Score),
		logger.Float64("entryPrice", project.Price),
	)
	return project
}

// FastTrack lets an admin force an approval. The participation threshold is
// bypassed; the score threshold never is.
func (s *Service) FastTrack(ctx context.Context, projectID, actor string, role model.Role) (model.Project, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Project{}, err
	}
	if !role.CanAdministrate() {
		return model.Project{}, model.ErrForbidden
	}

	unlock := s.locks.Lock(projectID)
	defer unlock()

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return model.Project{}, err
	}
	if project.Status != model.StatusVetting {
		return model.Project{}, model.ErrProjectNotVetting
	}

	cfg := s.settings.Current()
	if !approval.CanFastTrack(project.Score, project.Scored, cfg) {
		return model.Project{}, fmt.Errorf("%w: score %.2f below threshold %.2f or feature disabled",
			approval.ErrFastTrackBlocked, project.Score, cfg.VoteThreshold)
	}

	project = s.approveLocked(ctx, project, "fast-track by "+actor)
	metrics.RecordFastTrack()

	if err := s.store.SaveProject(ctx, project); err != nil {
		return model.Project{}, fmt.Errorf("failed to save project: %w", err)
	}
	s.refreshStatusGauges(ctx)
	return project, nil
}

// MarkPartnership promotes a vetting project straight to partnership.
func (s *Service) MarkPartnership(ctx context.Context, projectID, actor string, role model.Role) (model.Project, error) {
	if err := s.ensureStarted(); err != nil {
		return model.Project{}, err
	}
	if !role.CanAdministrate() {
		return model.Project{}, model.ErrForbidden
	}

	unlock := s.locks.Lock(projectID)
	defer unlock()

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return model.Project{}, err
	}
	if !project.Status.CanTransition(model.StatusPartnership) {
		return model.Project{}, &model.TransitionError{From: project.Status, To: model.StatusPartnership}
	}

	now := time.Now().UTC()
	project.Status = model.StatusPartnership
	project.UpdatedAt = now

	rec := roi.NewRecord(project.ID, project.Price, now)
	if _, err := s.store.CreateROI(ctx, rec); err != nil {
		s.logger.Error(ctx, "failed to create roi record",
			logger.String("projectID", project.ID),
			logger.Error(err),
		)
	}

	if err := s.store.SaveProject(ctx, project); err != nil {
		return model.Project{}, fmt.Errorf("failed to save project: %w", err)
	}
	s.refreshStatusGauges(ctx)
	s.logger.Info(ctx, "project marked as partnership",
		logger.String("projectID", project.ID),
		logger.String("actor", actor),
	)
	return project, nil
}

// GetROI returns the ROI record for an approved project.
func (s *Service) GetROI(ctx context.Context, projectID string) (model.ROIRecord, error) {
	return s.store.GetROI(ctx, projectID)
}

// GetFeed returns up to limit snapshots for a project, newest first,
// together with the feed-derived auto-score and the project's total score.
func (s *Service) GetFeed(ctx context.Context, projectID string, limit int) (model.FeedView, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return model.FeedView{}, err
	}
	if limit < 1 || limit > s.maxPageLimit {
		limit = s.maxPageLimit
	}

	snapshots, err := s.store.ListSnapshots(ctx, projectID, limit)
	if err != nil {
		return model.FeedView{}, err
	}

	view := model.FeedView{ProjectID: projectID, Snapshots: snapshots}
	if len(snapshots) > 0 {
		auto := s.engine.AutoScore(snapshots[0])
		view.AutoScore = &auto
	}
	if project.Scored {
		total := project.Score
		view.TotalScore = &total
	}
	return view, nil
}

// CurrentSettings returns the active admin settings.
func (s *Service) CurrentSettings(_ context.Context) settings.Settings {
	return s.settings.Current()
}

// UpdateSettings validates and publishes new admin settings.
func (s *Service) UpdateSettings(ctx context.Context, next settings.Settings, actor string, role model.Role) (settings.Settings, error) {
	updated, err := s.settings.Update(ctx, next, actor, role)
	if err != nil {
		return settings.Settings{}, err
	}
	s.logger.Info(ctx, "settings updated",
		logger.String("actor", actor),
		logger.Int("version", updated.Version),
	)
	return updated, nil
}

// SettingsAudit returns the settings mutation history, oldest first.
func (s *Service) SettingsAudit(ctx context.Context, role model.Role) ([]settings.AuditEntry, error) {
	if !role.CanAdministrate() {
		return nil, model.ErrForbidden
	}
	return s.settings.Audit(ctx), nil
}

// TrackedProjects returns every project with a trading symbol, for the
// feed poller.
func (s *Service) TrackedProjects(ctx context.Context) ([]model.Project, error) {
	var out []model.Project
	for page := 1; ; page++ {
		batch, total, err := s.store.ListProjects(ctx, repository.ProjectFilter{}, page, trackedPageSize)
		if err != nil {
			return nil, err
		}
		for _, p := range batch {
			if p.Symbol != "" {
				out = append(out, p)
			}
		}
		if page*trackedPageSize >= total || len(batch) == 0 {
			break
		}
	}
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if !s.started {
		return stats
	}

	stats["queueLength"] = s.snapQueue.Len(ctx)
	stats["dedupeEntries"] = s.deduper.Size()
	stats["settingsVersion"] = s.settings.Current().Version

	counts, err := s.store.CountProjectsByStatus(ctx)
	if err == nil {
		byStatus := make(map[string]int, len(counts))
		total := 0
		for status, n := range counts {
			byStatus[string(status)] = n
			total += n
			metrics.UpdateProjectsTotal(string(status), n)
		}
		stats["projects"] = byStatus
		stats["totalProjects"] = total
	}

	totalVotes := 0
	scoreSum := 0.0
	scoredCount := 0
	for page := 1; ; page++ {
		batch, total, err := s.store.ListProjects(ctx, repository.ProjectFilter{}, page, trackedPageSize)
		if err != nil {
			break
		}
		for _, p := range batch {
			totalVotes += p.Votes
			if p.Scored {
				scoreSum += p.Score
				scoredCount++
			}
		}
		if page*trackedPageSize >= total || len(batch) == 0 {
			break
		}
	}
	stats["totalVotes"] = totalVotes
	if scoredCount > 0 {
		stats["averageScore"] = scoreSum / float64(scoredCount)
	}

	return stats
}

func (s *Service) refreshStatusGauges(ctx context.Context) {
	counts, err := s.store.CountProjectsByStatus(ctx)
	if err != nil {
		return
	}
	for _, status := range []model.Status{model.StatusVetting, model.StatusApproved, model.StatusPartnership} {
		metrics.UpdateProjectsTotal(string(status), counts[status])
	}
}
