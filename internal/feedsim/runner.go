package feedsim

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vetterlabs/vetter/pkg/logger"
)

// processingDelay gives the ingestion workers time to drain the snapshot
// queue before verification reads the results back.
const processingDelay = 5 * time.Second

// Run executes the complete vetting simulation: submit projects, cast
// ballots from the voter pool, deliver feed snapshots, then verify the
// resulting approvals and ROI records.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting vetting simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("projects", config.NumProjects),
		logger.Int("voters", config.NumVoters),
		logger.Int("snapshotsPerProject", config.SnapshotsPerProject),
		logger.Int("workers", config.Workers))

	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	client := newHTTPClient(config.Timeout)

	projects, err := createProjects(ctx, config, client, stats)
	if err != nil {
		return fmt.Errorf("project submission failed: %w", err)
	}

	if err := castBallots(ctx, config, client, projects, stats); err != nil {
		return fmt.Errorf("ballot casting failed: %w", err)
	}

	if err := deliverSnapshots(ctx, config, client, projects, stats); err != nil {
		return fmt.Errorf("snapshot delivery failed: %w", err)
	}

	logger.Get().Info(ctx, "waiting for snapshots to be ingested")
	time.Sleep(processingDelay)

	if err := verifyResults(ctx, config, client, projects, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	status, err := client.Get(ctx, config.BaseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// createProjects submits the generated projects sequentially. Creation is
// cheap; the worker pool is saved for ballots and snapshots.
func createProjects(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) ([]Project, error) {
	subs := generateSubmissions(config.NumProjects)
	projects := make([]Project, 0, len(subs))

	for _, sub := range subs {
		var created Project
		status, err := client.Post(ctx, config.BaseURL+"/projects", sub, "MEMBER", "sim-submitter", &created)
		if err != nil {
			return nil, fmt.Errorf("failed to submit project %s: %w", sub.Symbol, err)
		}
		if status != http.StatusCreated {
			return nil, fmt.Errorf("project %s rejected with status %d", sub.Symbol, status)
		}
		created.Price = sub.Price
		projects = append(projects, created)
	}

	stats.ProjectsCreated = len(projects)
	logger.Get().Info(ctx, "projects created", logger.Int("count", len(projects)))
	return projects, nil
}

// ballotJob is one (voter, project) pair to submit.
type ballotJob struct {
	projectID string
	voterID   string
}

// castBallots has every simulated voter rate every project, spread across
// the worker pool.
func castBallots(ctx context.Context, config *Config, client *HTTPClient, projects []Project, stats *Stats) error {
	logger.Get().Info(ctx, "casting ballots",
		logger.Int("voters", config.NumVoters),
		logger.Int("projects", len(projects)))

	var cast, rejected int64

	jobs := make(chan ballotJob, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				url := config.BaseURL + "/projects/" + job.projectID + "/votes"
				status, err := client.Post(ctx, url, VoteRequest{Ratings: generateRatings()}, "MEMBER", job.voterID, nil)
				if err != nil || status != http.StatusOK {
					// Conflicts are expected once a project approves
					// mid-simulation; anything else is still just a count.
					atomic.AddInt64(&rejected, 1)
					continue
				}
				atomic.AddInt64(&cast, 1)
			}
		}()
	}

	for v := 0; v < config.NumVoters; v++ {
		voterID := "sim-voter-" + strconv.Itoa(v)
		for _, p := range projects {
			select {
			case <-ctx.Done():
				close(jobs)
				wg.Wait()
				return ctx.Err()
			case jobs <- ballotJob{projectID: p.ID, voterID: voterID}:
			}
		}
	}
	close(jobs)
	wg.Wait()

	stats.BallotsCast = int(atomic.LoadInt64(&cast))
	stats.BallotsRejected = int(atomic.LoadInt64(&rejected))
	logger.Get().Info(ctx, "ballots cast",
		logger.Int("accepted", stats.BallotsCast),
		logger.Int("rejected", stats.BallotsRejected))
	return nil
}

// deliverSnapshots posts a price-walk series of snapshots for each project,
// spread across the worker pool.
func deliverSnapshots(ctx context.Context, config *Config, client *HTTPClient, projects []Project, stats *Stats) error {
	logger.Get().Info(ctx, "delivering feed snapshots",
		logger.Int("perProject", config.SnapshotsPerProject))

	var accepted, dropped int64

	jobs := make(chan func(), config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				job()
			}
		}()
	}

	for _, p := range projects {
		p := p
		for step := 0; step < config.SnapshotsPerProject; step++ {
			snap := generateSnapshot(p.Price, step)
			url := config.BaseURL + "/projects/" + p.ID + "/snapshots"
			select {
			case <-ctx.Done():
				close(jobs)
				wg.Wait()
				return ctx.Err()
			case jobs <- func() {
				status, err := client.Post(ctx, url, snap, "", "", nil)
				if err == nil && status == http.StatusAccepted {
					atomic.AddInt64(&accepted, 1)
					return
				}
				atomic.AddInt64(&dropped, 1)
			}:
			}
		}
	}
	close(jobs)
	wg.Wait()

	stats.SnapshotsAccepted = int(atomic.LoadInt64(&accepted))
	stats.SnapshotsDropped = int(atomic.LoadInt64(&dropped))
	logger.Get().Info(ctx, "snapshots delivered",
		logger.Int("accepted", stats.SnapshotsAccepted),
		logger.Int("dropped", stats.SnapshotsDropped))
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("projectsCreated", stats.ProjectsCreated),
		logger.Int("ballotsCast", stats.BallotsCast),
		logger.Int("ballotsRejected", stats.BallotsRejected),
		logger.Int("snapshotsAccepted", stats.SnapshotsAccepted),
		logger.Int("snapshotsDropped", stats.SnapshotsDropped),
		logger.Int("projectsApproved", stats.ProjectsApproved),
		logger.Int("projectsVetting", stats.ProjectsVetting),
		logger.Int("roiRecordsVerified", stats.ROIRecordsVerified),
		logger.String("duration", stats.Duration.String()))
}
