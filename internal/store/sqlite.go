package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/amishk599/jobsync/internal/model"
)

// maxInArgs keeps each IN (...) lookup well below SQLite's variable limit.
const maxInArgs = 500

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id             TEXT PRIMARY KEY,
	content_hash   TEXT NOT NULL UNIQUE,
	organization   TEXT NOT NULL DEFAULT '',
	post_name      TEXT NOT NULL DEFAULT '',
	vacancies      INTEGER NOT NULL DEFAULT 0,
	start_date     TEXT NOT NULL DEFAULT '',
	last_date      TEXT NOT NULL DEFAULT '',
	exam_date      TEXT NOT NULL DEFAULT '',
	fee            TEXT NOT NULL DEFAULT '',
	qualification  TEXT NOT NULL DEFAULT '',
	age_limit      TEXT NOT NULL DEFAULT '',
	official_link  TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL DEFAULT '',
	source         TEXT NOT NULL DEFAULT '',
	source_link    TEXT NOT NULL DEFAULT '',
	ai_confidence  INTEGER NOT NULL DEFAULT 0,
	status         TEXT NOT NULL DEFAULT 'active',
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs (created_at);
CREATE TABLE IF NOT EXISTS run_logs (
	id              TEXT PRIMARY KEY,
	type            TEXT NOT NULL,
	timestamp       TEXT NOT NULL,
	duration        REAL NOT NULL,
	items_collected INTEGER NOT NULL,
	items_processed INTEGER NOT NULL,
	items_approved  INTEGER NOT NULL
);`

// SQLiteStore persists verified jobs and run logs in a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// jobs and run_logs tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// ExistingFingerprints returns the subset of hashes already stored.
func (s *SQLiteStore) ExistingFingerprints(ctx context.Context, hashes []string) (map[string]bool, error) {
	found := make(map[string]bool, len(hashes))
	for start := 0; start < len(hashes); start += maxInArgs {
		end := min(start+maxInArgs, len(hashes))
		chunk := hashes[start:end]

		args := make([]any, len(chunk))
		for i, h := range chunk {
			args[i] = h
		}
		query := "SELECT content_hash FROM jobs WHERE content_hash IN (" +
			strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",") + ")"

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("querying content hashes: %w", err)
		}
		for rows.Next() {
			var h string
			if err := rows.Scan(&h); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning content hash: %w", err)
			}
			found[h] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterating content hashes: %w", err)
		}
	}
	return found, nil
}

// HasFingerprint returns true if a job with hash has already been recorded.
func (s *SQLiteStore) HasFingerprint(ctx context.Context, hash string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM jobs WHERE content_hash = ?", hash).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking content hash %s: %w", hash, err)
	}
	return true, nil
}

// InsertJob stores job with a fresh ID and timestamps. A job whose content
// hash is already stored yields model.ErrDuplicate.
func (s *SQLiteStore) InsertJob(ctx context.Context, job *model.VerifiedJob) error {
	now := s.now().UTC()
	job.ID = uuid.NewString()
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `INSERT INTO jobs (
		id, content_hash, organization, post_name, vacancies, start_date, last_date,
		exam_date, fee, qualification, age_limit, official_link, category, source,
		source_link, ai_confidence, status, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.ContentHash, job.Organization, job.PostName, job.Vacancies,
		job.StartDate, job.LastDate, job.ExamDate, job.Fee, job.Qualification,
		job.AgeLimit, job.OfficialLink, job.Category, job.Source, job.SourceLink,
		job.AIConfidence, job.Status, formatTime(job.CreatedAt), formatTime(job.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("inserting job %s: %w", job.ContentHash, model.ErrDuplicate)
		}
		return fmt.Errorf("inserting job %s: %w", job.ContentHash, err)
	}
	return nil
}

// AppendRunLog appends entry to the run_logs table.
func (s *SQLiteStore) AppendRunLog(ctx context.Context, entry *model.RunLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO run_logs (
		id, type, timestamp, duration, items_collected, items_processed, items_approved
	) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Type, formatTime(entry.Timestamp), entry.Duration,
		entry.ItemsCollected, entry.ItemsProcessed, entry.ItemsApproved,
	)
	if err != nil {
		return fmt.Errorf("appending run log: %w", err)
	}
	return nil
}

// RecentJobs returns up to limit jobs, newest first.
func (s *SQLiteStore) RecentJobs(ctx context.Context, limit int) ([]model.VerifiedJob, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, content_hash, organization, post_name, vacancies, start_date, last_date,
		exam_date, fee, qualification, age_limit, official_link, category, source,
		source_link, ai_confidence, status, created_at, updated_at
	FROM jobs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.VerifiedJob
	for rows.Next() {
		var j model.VerifiedJob
		var created, updated string
		if err := rows.Scan(
			&j.ID, &j.ContentHash, &j.Organization, &j.PostName, &j.Vacancies,
			&j.StartDate, &j.LastDate, &j.ExamDate, &j.Fee, &j.Qualification,
			&j.AgeLimit, &j.OfficialLink, &j.Category, &j.Source, &j.SourceLink,
			&j.AIConfidence, &j.Status, &created, &updated,
		); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		j.CreatedAt = parseTime(created)
		j.UpdatedAt = parseTime(updated)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

// RecentRuns returns up to limit run logs, newest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]model.RunLog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, type, timestamp, duration, items_collected, items_processed, items_approved
	FROM run_logs WHERE type = ? ORDER BY timestamp DESC, rowid DESC LIMIT ?`, model.RunLogType, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RunLog
	for rows.Next() {
		var r model.RunLog
		var ts string
		if err := rows.Scan(&r.ID, &r.Type, &ts, &r.Duration, &r.ItemsCollected, &r.ItemsProcessed, &r.ItemsApproved); err != nil {
			return nil, fmt.Errorf("scanning run log: %w", err)
		}
		r.Timestamp = parseTime(ts)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run logs: %w", err)
	}
	return runs, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// Without extended result codes only the primary code is reported.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
