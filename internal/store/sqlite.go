// Package store provides SQLite-backed persistence for job snapshots,
// tailored-artifact versions, and the append-only activity log, following
// the connection/migration pattern the teacher used for its browser-session
// store.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite" // pure Go SQLite driver, no cgo

	"github.com/patrykgolabek/jobapply/internal/models"
)

// Store is the SQLite-backed persistence layer for job snapshots, resume
// versions, and activity log entries. One Store instance is shared by the
// Dedup Oracle (as a JobReader), the Resume Resolver (as a VersionReader),
// the pipelines that record tailored artifacts, and the Apply Worker that
// records activity and applied status.
type Store struct {
	db       *sql.DB
	logger   *slog.Logger
	isMemory bool
}

// New opens (creating if necessary) a SQLite database at dbPath and runs
// migrations. dbPath may be ":memory:" for ephemeral/test use.
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	var connStr string
	isMemory := dbPath == ":memory:"

	if isMemory {
		connStr = "file::memory:?cache=shared&_timeout=5000&_busy_timeout=5000"
		logger.Info("using in-memory SQLite database")
	} else {
		dir := filepath.Dir(dbPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		connStr = dbPath + "?_journal=WAL&_timeout=5000&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, logger: logger, isMemory: isMemory}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("store initialized", "path", dbPath, "in_memory", isMemory)
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		job_key     TEXT PRIMARY KEY,
		platform    TEXT NOT NULL DEFAULT '',
		title       TEXT NOT NULL DEFAULT '',
		company     TEXT NOT NULL DEFAULT '',
		url         TEXT NOT NULL DEFAULT '',
		apply_url   TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		easy_apply  INTEGER NOT NULL DEFAULT 0,
		status      TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS resume_versions (
		id          TEXT PRIMARY KEY,
		job_key     TEXT NOT NULL,
		kind        TEXT NOT NULL,
		file_path   TEXT NOT NULL,
		source_path TEXT NOT NULL DEFAULT '',
		model       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_resume_versions_job_kind ON resume_versions(job_key, kind, created_at DESC);

	CREATE TABLE IF NOT EXISTS activity_log (
		id         TEXT PRIMARY KEY,
		job_key    TEXT NOT NULL,
		event_type TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT '',
		at         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activity_log_job_key ON activity_log(job_key, at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection, checkpointing the WAL
// first for file-backed databases.
func (s *Store) Close() error {
	if !s.isMemory {
		if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			s.logger.Warn("failed to checkpoint WAL before close", "error", err)
		}
	}
	return s.db.Close()
}

// GetJob implements dedup.JobReader and the JobReader ports of the
// orchestrator and the HTTP handlers.
func (s *Store) GetJob(ctx context.Context, jobKey string) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT job_key, platform, title, company, url, apply_url, description, easy_apply, status
		FROM jobs WHERE job_key = ?`, jobKey)

	var job models.Job
	var easyApply int
	err := row.Scan(&job.Key, &job.Platform, &job.Title, &job.Company, &job.URL, &job.ApplyURL, &job.Description, &easyApply, &job.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobKey, err)
	}
	job.EasyApply = easyApply != 0
	return &job, nil
}

// UpsertJob inserts or updates a job snapshot.
func (s *Store) UpsertJob(ctx context.Context, job *models.Job) error {
	easyApply := 0
	if job.EasyApply {
		easyApply = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (job_key, platform, title, company, url, apply_url, description, easy_apply, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_key) DO UPDATE SET
			platform = excluded.platform,
			title = excluded.title,
			company = excluded.company,
			url = excluded.url,
			apply_url = excluded.apply_url,
			description = excluded.description,
			easy_apply = excluded.easy_apply,
			status = excluded.status`,
		job.Key, job.Platform, job.Title, job.Company, job.URL, job.ApplyURL, job.Description, easyApply, job.Status)
	if err != nil {
		return fmt.Errorf("upsert job %s: %w", job.Key, err)
	}
	return nil
}

// SetJobStatus updates only a job's status column, used by the Apply Worker
// on a successful terminal submission. Failed submissions never call this -
// per spec, a failed apply attempt does not mutate job status.
func (s *Store) SetJobStatus(ctx context.Context, jobKey, status string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE job_key = ?`, status, jobKey)
	if err != nil {
		return fmt.Errorf("set job status %s: %w", jobKey, err)
	}
	return nil
}

// SaveVersion persists a tailored-artifact record and returns it with its
// generated ID and timestamp populated.
func (s *Store) SaveVersion(ctx context.Context, v *models.ResumeVersion) (*models.ResumeVersion, error) {
	v.ID = ulid.Make().String()
	v.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resume_versions (id, job_key, kind, file_path, source_path, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.JobKey, string(v.Kind), v.FilePath, v.SourcePath, v.Model, v.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("save resume version: %w", err)
	}
	return v, nil
}

// GetLatestForKind implements resume.VersionReader: the most recently
// created version of kind for jobKey, or nil if none exists.
func (s *Store) GetLatestForKind(ctx context.Context, jobKey string, kind models.VersionKind) (*models.ResumeVersion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, job_key, kind, file_path, source_path, model, created_at
		FROM resume_versions
		WHERE job_key = ? AND kind = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, jobKey, string(kind))

	var v models.ResumeVersion
	var kindStr, createdAtStr string
	err := row.Scan(&v.ID, &v.JobKey, &kindStr, &v.FilePath, &v.SourcePath, &v.Model, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest version for %s/%s: %w", jobKey, kind, err)
	}
	v.Kind = models.VersionKind(kindStr)
	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
	return &v, nil
}

// GetAllVersions returns every tailored-artifact record for jobKey, newest
// first, across both kinds.
func (s *Store) GetAllVersions(ctx context.Context, jobKey string) ([]*models.ResumeVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_key, kind, file_path, source_path, model, created_at
		FROM resume_versions
		WHERE job_key = ?
		ORDER BY created_at DESC, id DESC`, jobKey)
	if err != nil {
		return nil, fmt.Errorf("list versions for %s: %w", jobKey, err)
	}
	defer func() { _ = rows.Close() }()

	var versions []*models.ResumeVersion
	for rows.Next() {
		var v models.ResumeVersion
		var kindStr, createdAtStr string
		if err := rows.Scan(&v.ID, &v.JobKey, &kindStr, &v.FilePath, &v.SourcePath, &v.Model, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scan version row: %w", err)
		}
		v.Kind = models.VersionKind(kindStr)
		v.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
		versions = append(versions, &v)
	}
	return versions, nil
}

// RecordActivity appends one entry to the activity log.
func (s *Store) RecordActivity(ctx context.Context, jobKey, eventType, detail string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, job_key, event_type, detail, at)
		VALUES (?, ?, ?, ?, ?)`,
		ulid.Make().String(), jobKey, eventType, detail, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record activity for %s: %w", jobKey, err)
	}
	return nil
}

// GetActivity returns the activity log for jobKey, newest first.
func (s *Store) GetActivity(ctx context.Context, jobKey string) ([]*models.ActivityEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_key, event_type, detail, at
		FROM activity_log
		WHERE job_key = ?
		ORDER BY at DESC, id DESC`, jobKey)
	if err != nil {
		return nil, fmt.Errorf("list activity for %s: %w", jobKey, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		var atStr string
		if err := rows.Scan(&e.ID, &e.JobKey, &e.EventType, &e.Detail, &atStr); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		e.At, _ = time.Parse(time.RFC3339, atStr)
		entries = append(entries, &e)
	}
	return entries, nil
}
