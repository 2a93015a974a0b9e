package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fbinsights/pkg/analytics"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	page_id     TEXT    NOT NULL,
	period      TEXT    NOT NULL,
	post_count  INTEGER NOT NULL,
	unavailable INTEGER NOT NULL,
	page_summary TEXT   NOT NULL
);

CREATE TABLE IF NOT EXISTS run_posts (
	run_id        INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	post_id       TEXT    NOT NULL,
	impressions   TEXT    NOT NULL,
	reach         TEXT    NOT NULL,
	engaged_users TEXT    NOT NULL,
	clicks        TEXT    NOT NULL,
	total_likes   TEXT    NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Run is one recorded collection run
type Run struct {
	ID          int64
	StartedAt   time.Time
	Duration    time.Duration
	PageID      string
	Period      string
	PostCount   int
	Unavailable int
	PageSummary json.RawMessage
}

// PostRecord is the summary of one post within a run. Values are kept in
// their JSON number form.
type PostRecord struct {
	PostID       string
	Impressions  json.Number
	Reach        json.Number
	EngagedUsers json.Number
	Clicks       json.Number
	TotalLikes   json.Number
}

// Store records runs in a SQLite database
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
// The caller should call Close when done.
func Open(path string) (*Store, error) {
	// foreign_keys is per connection, so it goes in the DSN for every
	// connection the pool opens
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores the run and its per-post summaries in one transaction
// and returns the new run id.
func (s *Store) RecordRun(ctx context.Context, result *analytics.Result) (int64, error) {
	if result == nil {
		return 0, fmt.Errorf("no result to record")
	}

	pageSummary, err := json.Marshal(result.Clean.PageLevelSummary)
	if err != nil {
		return 0, fmt.Errorf("encode page summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (started_at, duration_ms, page_id, period, post_count, unavailable, page_summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.StartedAt.UnixMilli(),
		result.Duration.Milliseconds(),
		result.PageID,
		result.Period,
		len(result.Clean.ComprehensivePostAnalytics),
		result.UnavailableMetricCount(),
		string(pageSummary),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read run id: %w", err)
	}

	for i, pa := range result.Clean.ComprehensivePostAnalytics {
		var details struct {
			ID string `json:"id"`
		}
		if len(pa.PostDetails) > 0 {
			if err := json.Unmarshal(pa.PostDetails, &details); err != nil {
				return 0, fmt.Errorf("decode post details %d: %w", i, err)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_posts (run_id, position, post_id, impressions, reach, engaged_users, clicks, total_likes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, details.ID,
			pa.Summary.Impressions.String(),
			pa.Summary.Reach.String(),
			pa.Summary.EngagedUsers.String(),
			pa.Summary.Clicks.String(),
			pa.Summary.TotalLikes.String(),
		)
		if err != nil {
			return 0, fmt.Errorf("insert post %s: %w", details.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}

	return runID, nil
}

// RecentRuns returns up to limit runs, newest first
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, page_id, period, post_count, unavailable, page_summary
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs (limit=%d): %w", limit, err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			startedAt  int64
			durationMS int64
			summary    string
		)
		if err := rows.Scan(&r.ID, &startedAt, &durationMS, &r.PageID, &r.Period, &r.PostCount, &r.Unavailable, &summary); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(startedAt)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.PageSummary = json.RawMessage(summary)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// RunPosts returns the post summaries of a run in fetch order
func (s *Store) RunPosts(ctx context.Context, runID int64) ([]PostRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT post_id, impressions, reach, engaged_users, clicks, total_likes
		FROM run_posts
		WHERE run_id = ?
		ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query posts for run %d: %w", runID, err)
	}
	defer rows.Close()

	var posts []PostRecord
	for rows.Next() {
		var p PostRecord
		var impressions, reach, engaged, clicks, likes string
		if err := rows.Scan(&p.PostID, &impressions, &reach, &engaged, &clicks, &likes); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.Impressions = json.Number(impressions)
		p.Reach = json.Number(reach)
		p.EngagedUsers = json.Number(engaged)
		p.Clicks = json.Number(clicks)
		p.TotalLikes = json.Number(likes)
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// Prune deletes runs older than maxAge and returns how many were removed
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old runs: %w", err)
	}
	return res.RowsAffected()
}
