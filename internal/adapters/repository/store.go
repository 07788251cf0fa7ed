// Package repository defines the vetting data store interface and errors.
package repository

import (
	"context"

	"github.com/vetterlabs/vetter/internal/domain/model"
)

// ProjectFilter narrows a project listing. Fields combine with logical AND.
type ProjectFilter struct {
	// Status, when set, keeps only projects with an equal status.
	Status model.Status
	// Search, when non-empty, keeps projects whose name or symbol contains
	// the text (case-insensitive).
	Search string
}

// Store provides read/write access to projects, ballots, feed snapshots
// and ROI records.
//
// Store implementations guarantee their own internal consistency only;
// cross-call units such as "recompute then transition" are serialized per
// project by the caller.
type Store interface {
	// CreateProject persists a new project and assigns its creation
	// sequence number. The returned project carries the assigned Seq.
	CreateProject(ctx context.Context, p model.Project) (model.Project, error)

	// GetProject returns ErrNotFound if the id is unknown.
	GetProject(ctx context.Context, id string) (model.Project, error)

	// SaveProject replaces the stored record for an existing project.
	SaveProject(ctx context.Context, p model.Project) error

	// ListProjects returns one page in creation order plus the total count
	// of matching projects. Page numbering starts at 1.
	ListProjects(ctx context.Context, f ProjectFilter, page, limit int) ([]model.Project, int, error)

	// CountProjectsByStatus returns totals per lifecycle status.
	CountProjectsByStatus(ctx context.Context) (map[model.Status]int, error)

	// UpsertBallot stores the user's ballot for a project, replacing any
	// prior one. Returns true when a prior ballot was replaced.
	UpsertBallot(ctx context.Context, b model.Ballot) (bool, error)

	// ListBallots returns every ballot cast on a project.
	ListBallots(ctx context.Context, projectID string) ([]model.Ballot, error)

	// CountOpenBallots returns how many ballots the user holds on projects
	// still in vetting.
	CountOpenBallots(ctx context.Context, userID string) (int, error)

	// AppendSnapshot appends to the project's snapshot time series.
	AppendSnapshot(ctx context.Context, s model.FeedSnapshot) error

	// LatestSnapshot returns the most recent snapshot; ok is false when
	// the project has none.
	LatestSnapshot(ctx context.Context, projectID string) (model.FeedSnapshot, bool, error)

	// ListSnapshots returns up to limit snapshots, newest first.
	ListSnapshots(ctx context.Context, projectID string, limit int) ([]model.FeedSnapshot, error)

	// CreateROI stores the record unless one already exists for the
	// project. Returns true when the record was created.
	CreateROI(ctx context.Context, rec model.ROIRecord) (bool, error)

	// GetROI returns ErrNotFound when the project has no ROI record.
	GetROI(ctx context.Context, projectID string) (model.ROIRecord, error)

	// SaveROI replaces an existing ROI record.
	SaveROI(ctx context.Context, rec model.ROIRecord) error

	// Close releases any underlying resources.
	Close() error
}
