package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/vetterlabs/vetter/internal/domain/model"
)

// MemoryStore is the in-process Store implementation. Pagination is stable
// under concurrent inserts because projects are ordered by an assigned
// sequence number, never by map iteration.
type MemoryStore struct {
	mu sync.RWMutex

	projects map[string]model.Project
	order    []string // project ids in creation order
	nextSeq  uint64

	// ballots[projectID][userID]
	ballots map[string]map[string]model.Ballot

	// snapshots[projectID], append-only, oldest first
	snapshots map[string][]model.FeedSnapshot

	roi map[string]model.ROIRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(_ context.Context) *MemoryStore {
	return &MemoryStore{
		projects:  make(map[string]model.Project),
		ballots:   make(map[string]map[string]model.Ballot),
		snapshots: make(map[string][]model.FeedSnapshot),
		roi:       make(map[string]model.ROIRecord),
		nextSeq:   1,
	}
}

// CreateProject implements Store.
func (s *MemoryStore) CreateProject(_ context.Context, p model.Project) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[p.ID]; ok {
		return model.Project{}, ErrDuplicateID
	}
	p.Seq = s.nextSeq
	s.nextSeq++
	s.projects[p.ID] = p
	s.order = append(s.order, p.ID)
	return p, nil
}

// GetProject implements Store.
func (s *MemoryStore) GetProject(_ context.Context, id string) (model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return model.Project{}, ErrNotFound
	}
	return p, nil
}

// SaveProject implements Store.
func (s *MemoryStore) SaveProject(_ context.Context, p model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[p.ID]; !ok {
		return ErrNotFound
	}
	s.projects[p.ID] = p
	return nil
}

func matches(p model.Project, f ProjectFilter) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Symbol), needle) {
			return false
		}
	}
	return true
}

// ListProjects implements Store.
func (s *MemoryStore) ListProjects(_ context.Context, f ProjectFilter, page, limit int) ([]model.Project, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []model.Project
	for _, id := range s.order {
		p := s.projects[id]
		if matches(p, f) {
			filtered = append(filtered, p)
		}
	}

	total := len(filtered)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	out := make([]model.Project, end-start)
	copy(out, filtered[start:end])
	return out, total, nil
}

// CountProjectsByStatus implements Store.
func (s *MemoryStore) CountProjectsByStatus(_ context.Context) (map[model.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.Status]int)
	for _, p := range s.projects {
		counts[p.Status]++
	}
	return counts, nil
}

// UpsertBallot implements Store.
func (s *MemoryStore) UpsertBallot(_ context.Context, b model.Ballot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser, ok := s.ballots[b.ProjectID]
	if !ok {
		byUser = make(map[string]model.Ballot)
		s.ballots[b.ProjectID] = byUser
	}
	_, replaced := byUser[b.UserID]
	byUser[b.UserID] = b
	return replaced, nil
}

// ListBallots implements Store.
func (s *MemoryStore) ListBallots(_ context.Context, projectID string) ([]model.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byUser := s.ballots[projectID]
	out := make([]model.Ballot, 0, len(byUser))
	for _, b := range byUser {
		out = append(out, b)
	}
	// Deterministic order keeps mean aggregation reproducible across calls.
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// CountOpenBallots implements Store.
func (s *MemoryStore) CountOpenBallots(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for projectID, byUser := range s.ballots {
		if _, ok := byUser[userID]; !ok {
			continue
		}
		if p, ok := s.projects[projectID]; ok && p.Status == model.StatusVetting {
			count++
		}
	}
	return count, nil
}

// AppendSnapshot implements Store.
func (s *MemoryStore) AppendSnapshot(_ context.Context, snap model.FeedSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snap.ProjectID] = append(s.snapshots[snap.ProjectID], snap)
	return nil
}

// LatestSnapshot implements Store.
func (s *MemoryStore) LatestSnapshot(_ context.Context, projectID string) (model.FeedSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.snapshots[projectID]
	if len(series) == 0 {
		return model.FeedSnapshot{}, false, nil
	}
	return series[len(series)-1], true, nil
}

// ListSnapshots implements Store.
func (s *MemoryStore) ListSnapshots(_ context.Context, projectID string, limit int) ([]model.FeedSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.snapshots[projectID]
	if limit <= 0 || limit > len(series) {
		limit = len(series)
	}
	out := make([]model.FeedSnapshot, 0, limit)
	for i := len(series) - 1; i >= len(series)-limit; i-- {
		out = append(out, series[i])
	}
	return out, nil
}

// CreateROI implements Store.
func (s *MemoryStore) CreateROI(_ context.Context, rec model.ROIRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roi[rec.ProjectID]; ok {
		return false, nil
	}
	s.roi[rec.ProjectID] = rec
	return true, nil
}

// GetROI implements Store.
func (s *MemoryStore) GetROI(_ context.Context, projectID string) (model.ROIRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.roi[projectID]
	if !ok {
		return model.ROIRecord{}, ErrNotFound
	}
	return rec, nil
}

// SaveROI implements Store.
func (s *MemoryStore) SaveROI(_ context.Context, rec model.ROIRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roi[rec.ProjectID]; !ok {
		return ErrNotFound
	}
	s.roi[rec.ProjectID] = rec
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
