package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/vetterlabs/vetter/internal/domain/model"
)

const uniqueViolation = "23505"

// PostgresStore persists the vetting state in Postgres. Used when the
// service is configured with storage "postgres"; the schema is created on
// startup if missing.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects and ensures the schema exists.
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}
	return s, nil
}

// CreateProject implements Store.
func (s *PostgresStore) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	query := `
        INSERT INTO projects (
            id, name, symbol, logo, description, website, twitter, telegram,
            status, score, scored, votes,
            liquidity, volume_24h, price, price_change,
            created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8,
            $9, $10, $11, $12,
            $13, $14, $15, $16,
            $17, $18
        )
        RETURNING seq
    `

	err := s.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Symbol, p.Logo, p.Description, p.Website, p.Twitter, p.Telegram,
		string(p.Status), p.Score, p.Scored, p.Votes,
		p.Liquidity, p.Volume24h, p.Price, p.PriceChange,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.Seq)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return model.Project{}, ErrDuplicateID
		}
		return model.Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

const projectColumns = `
    id, seq, name, symbol, logo, description, website, twitter, telegram,
    status, score, scored, votes,
    liquidity, volume_24h, price, price_change,
    created_at, updated_at
`

func scanProject(row interface{ Scan(...any) error }) (model.Project, error) {
	var p model.Project
	var status string
	err := row.Scan(
		&p.ID, &p.Seq, &p.Name, &p.Symbol, &p.Logo, &p.Description, &p.Website, &p.Twitter, &p.Telegram,
		&status, &p.Score, &p.Scored, &p.Votes,
		&p.Liquidity, &p.Volume24h, &p.Price, &p.PriceChange,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return model.Project{}, err
	}
	p.Status = model.Status(status)
	return p, nil
}

// GetProject implements Store.
func (s *PostgresStore) GetProject(ctx context.Context, id string) (model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, ErrNotFound
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// SaveProject implements Store.
func (s *PostgresStore) SaveProject(ctx context.Context, p model.Project) error {
	query := `
        UPDATE projects SET
            name = $2, symbol = $3, logo = $4, description = $5,
            website = $6, twitter = $7, telegram = $8,
            status = $9, score = $10, scored = $11, votes = $12,
            liquidity = $13, volume_24h = $14, price = $15, price_change = $16,
            updated_at = $17
        WHERE id = $1
    `

	res, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Symbol, p.Logo, p.Description,
		p.Website, p.Twitter, p.Telegram,
		string(p.Status), p.Score, p.Scored, p.Votes,
		p.Liquidity, p.Volume24h, p.Price, p.PriceChange,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProjects implements Store.
func (s *PostgresStore) ListProjects(ctx context.Context, f ProjectFilter, page, limit int) ([]model.Project, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	where := `WHERE ($1 = '' OR status = $1)
        AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR symbol ILIKE '%' || $2 || '%')`

	var total int
	countQuery := `SELECT COUNT(*) FROM projects ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, string(f.Status), f.Search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	pageQuery := `SELECT ` + projectColumns + ` FROM projects ` + where + `
        ORDER BY seq ASC
        LIMIT $3 OFFSET $4`

	rows, err := s.db.QueryContext(ctx, pageQuery, string(f.Status), f.Search, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var result []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating project rows: %w", err)
	}
	return result, total, nil
}

// CountProjectsByStatus implements Store.
func (s *PostgresStore) CountProjectsByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM projects GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[model.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}
	return counts, nil
}

// UpsertBallot implements Store.
func (s *PostgresStore) UpsertBallot(ctx context.Context, b model.Ballot) (bool, error) {
	query := `
        INSERT INTO ballots (
            project_id, user_id, meme, roadmap, growth, narrative, utility, cast_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8
        )
        ON CONFLICT (project_id, user_id) DO UPDATE SET
            meme = EXCLUDED.meme,
            roadmap = EXCLUDED.roadmap,
            growth = EXCLUDED.growth,
            narrative = EXCLUDED.narrative,
            utility = EXCLUDED.utility,
            cast_at = EXCLUDED.cast_at
        RETURNING (xmax <> 0)
    `

	var replaced bool
	err := s.db.QueryRowContext(ctx, query,
		b.ProjectID, b.UserID,
		b.Ratings.Meme, b.Ratings.Roadmap, b.Ratings.Growth, b.Ratings.Narrative, b.Ratings.Utility,
		b.CastAt,
	).Scan(&replaced)
	if err != nil {
		return false, fmt.Errorf("failed to upsert ballot: %w", err)
	}
	return replaced, nil
}

// ListBallots implements Store.
func (s *PostgresStore) ListBallots(ctx context.Context, projectID string) ([]model.Ballot, error) {
	query := `
        SELECT project_id, user_id, meme, roadmap, growth, narrative, utility, cast_at
        FROM ballots
        WHERE project_id = $1
        ORDER BY user_id ASC
    `

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ballots: %w", err)
	}
	defer rows.Close()

	var result []model.Ballot
	for rows.Next() {
		var b model.Ballot
		err := rows.Scan(
			&b.ProjectID, &b.UserID,
			&b.Ratings.Meme, &b.Ratings.Roadmap, &b.Ratings.Growth, &b.Ratings.Narrative, &b.Ratings.Utility,
			&b.CastAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ballot rows: %w", err)
	}
	return result, nil
}

// CountOpenBallots implements Store.
func (s *PostgresStore) CountOpenBallots(ctx context.Context, userID string) (int, error) {
	query := `
        SELECT COUNT(*)
        FROM ballots b
        JOIN projects p ON p.id = b.project_id
        WHERE b.user_id = $1 AND p.status = $2
    `

	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, string(model.StatusVetting)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open ballots: %w", err)
	}
	return count, nil
}

// AppendSnapshot implements Store.
func (s *PostgresStore) AppendSnapshot(ctx context.Context, snap model.FeedSnapshot) error {
	query := `
        INSERT INTO feed_snapshots (
            project_id, liquidity, volume_24h, holder_growth,
            price_volatility, social_mentions, price, price_change, ts
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9
        )
    `

	_, err := s.db.ExecContext(ctx, query,
		snap.ProjectID, snap.Liquidity, snap.Volume24h, snap.HolderGrowth,
		snap.PriceVolatility, snap.SocialMentions, snap.Price, snap.PriceChange, snap.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	return nil
}

const snapshotColumns = `
    project_id, liquidity, volume_24h, holder_growth,
    price_volatility, social_mentions, price, price_change, ts
`

// LatestSnapshot implements Store.
func (s *PostgresStore) LatestSnapshot(ctx context.Context, projectID string) (model.FeedSnapshot, bool, error) {
	query := `SELECT ` + snapshotColumns + `
        FROM feed_snapshots WHERE project_id = $1
        ORDER BY ts DESC LIMIT 1`

	var snap model.FeedSnapshot
	err := s.db.QueryRowContext(ctx, query, projectID).Scan(
		&snap.ProjectID, &snap.Liquidity, &snap.Volume24h, &snap.HolderGrowth,
		&snap.PriceVolatility, &snap.SocialMentions, &snap.Price, &snap.PriceChange, &snap.Timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FeedSnapshot{}, false, nil
	}
	if err != nil {
		return model.FeedSnapshot{}, false, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return snap, true, nil
}

// ListSnapshots implements Store.
func (s *PostgresStore) ListSnapshots(ctx context.Context, projectID string, limit int) ([]model.FeedSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + snapshotColumns + `
        FROM feed_snapshots WHERE project_id = $1
        ORDER BY ts DESC LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var result []model.FeedSnapshot
	for rows.Next() {
		var snap model.FeedSnapshot
		err := rows.Scan(
			&snap.ProjectID, &snap.Liquidity, &snap.Volume24h, &snap.HolderGrowth,
			&snap.PriceVolatility, &snap.SocialMentions, &snap.Price, &snap.PriceChange, &snap.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return result, nil
}

// CreateROI implements Store.
func (s *PostgresStore) CreateROI(ctx context.Context, rec model.ROIRecord) (bool, error) {
	query := `
        INSERT INTO roi_records (
            project_id, entry_price, current_price, peak_price, roi, peak_roi, approved_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7
        )
        ON CONFLICT (project_id) DO NOTHING
    `

	res, err := s.db.ExecContext(ctx, query,
		rec.ProjectID, rec.EntryPrice, rec.CurrentPrice, rec.PeakPrice, rec.ROI, rec.PeakROI, rec.ApprovedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create roi record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to create roi record: %w", err)
	}
	return n > 0, nil
}

// GetROI implements Store.
func (s *PostgresStore) GetROI(ctx context.Context, projectID string) (model.ROIRecord, error) {
	query := `
        SELECT project_id, entry_price, current_price, peak_price, roi, peak_roi, approved_at
        FROM roi_records WHERE project_id = $1
    `

	var rec model.ROIRecord
	err := s.db.QueryRowContext(ctx, query, projectID).Scan(
		&rec.ProjectID, &rec.EntryPrice, &rec.CurrentPrice, &rec.PeakPrice, &rec.ROI, &rec.PeakROI, &rec.ApprovedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ROIRecord{}, ErrNotFound
	}
	if err != nil {
		return model.ROIRecord{}, fmt.Errorf("failed to get roi record: %w", err)
	}
	return rec, nil
}

// SaveROI implements Store.
func (s *PostgresStore) SaveROI(ctx context.Context, rec model.ROIRecord) error {
	query := `
        UPDATE roi_records SET
            current_price = $2, peak_price = $3, roi = $4, peak_roi = $5
        WHERE project_id = $1
    `

	res, err := s.db.ExecContext(ctx, query,
		rec.ProjectID, rec.CurrentPrice, rec.PeakPrice, rec.ROI, rec.PeakROI,
	)
	if err != nil {
		return fmt.Errorf("failed to save roi record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save roi record: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func (s *PostgresStore) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id VARCHAR(64) PRIMARY KEY,
			seq BIGSERIAL UNIQUE,
			name VARCHAR(200) NOT NULL,
			symbol VARCHAR(32) NOT NULL,
			logo TEXT,
			description TEXT,
			website TEXT,
			twitter TEXT,
			telegram TEXT,
			status VARCHAR(20) NOT NULL,
			score NUMERIC(6, 4) DEFAULT 0,
			scored BOOLEAN DEFAULT FALSE,
			votes INT DEFAULT 0,
			liquidity NUMERIC(18, 8),
			volume_24h NUMERIC(18, 8),
			price NUMERIC(18, 8),
			price_change NUMERIC(10, 4),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS ballots (
			project_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			meme SMALLINT NOT NULL,
			roadmap SMALLINT NOT NULL,
			growth SMALLINT NOT NULL,
			narrative SMALLINT NOT NULL,
			utility SMALLINT NOT NULL,
			cast_at TIMESTAMP NOT NULL,
			PRIMARY KEY (project_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS feed_snapshots (
			id BIGSERIAL PRIMARY KEY,
			project_id VARCHAR(64) NOT NULL,
			liquidity NUMERIC(18, 8),
			volume_24h NUMERIC(18, 8),
			holder_growth NUMERIC(10, 4),
			price_volatility NUMERIC(10, 4),
			social_mentions INT,
			price NUMERIC(18, 8),
			price_change NUMERIC(10, 4),
			ts TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_feed_snapshots_project_ts
			ON feed_snapshots (project_id, ts DESC)`,

		`CREATE TABLE IF NOT EXISTS roi_records (
			project_id VARCHAR(64) PRIMARY KEY,
			entry_price NUMERIC(18, 8) NOT NULL,
			current_price NUMERIC(18, 8),
			peak_price NUMERIC(18, 8),
			roi NUMERIC(10, 4),
			peak_roi NUMERIC(10, 4),
			approved_at TIMESTAMP NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
