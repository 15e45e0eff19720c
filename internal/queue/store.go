package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelforge/internal/config"
)

// timeFormat is a fixed-width RFC 3339 layout so stored timestamps sort
// correctly as strings.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages job persistence backed by SQLite. It is both the durable
// JobStore and the work queue: queued jobs are claimed for processing with a
// guarded status transition, which is what keeps a job single-writer.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.LogDir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// NewJobParams describes a job at ingestion time.
type NewJobParams struct {
	ID        string
	UserID    string
	InputPath string
	Media     MediaInfo
}

// CreateJob inserts a job and its full stage ledger. All stages start pending
// except ingestion, which is recorded completed: the upload itself is stage
// zero. Reusing an id fails with ErrAlreadyExists.
func (s *Store) CreateJob(ctx context.Context, params NewJobParams) (*Job, error) {
	id := strings.TrimSpace(params.ID)
	if id == "" {
		return nil, errors.New("job id is required")
	}
	if strings.TrimSpace(params.UserID) == "" {
		return nil, errors.New("user id is required")
	}

	now := time.Now().UTC()
	timestamp := now.Format(timeFormat)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create job: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO jobs (
            id, user_id, input_path, status,
            duration_seconds, width, height, format, checksum,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		params.UserID,
		params.InputPath,
		JobQueued,
		params.Media.DurationSeconds,
		params.Media.Width,
		params.Media.Height,
		nullableString(params.Media.Format),
		nullableString(params.Media.Checksum),
		timestamp,
		timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create job %s: %w", id, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("insert job: %w", err)
	}

	for position, name := range stageOrder {
		status := StagePending
		var startedAt, endedAt any
		if name == StageUploaded {
			status = StageCompleted
			startedAt = timestamp
			endedAt = timestamp
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO job_stages (job_id, name, position, status, started_at, ended_at, output_path)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, name, position, status, startedAt, endedAt,
			stageZeroOutput(name, params.InputPath),
		); err != nil {
			return nil, fmt.Errorf("insert stage %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create job: %w", err)
	}
	return s.GetJob(ctx, id)
}

func stageZeroOutput(name StageName, inputPath string) any {
	if name == StageUploaded {
		return nullableString(inputPath)
	}
	return nil
}

// GetJob fetches a job and its stage records. Returns (nil, nil) when absent.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if err := s.loadStages(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Store) loadStages(ctx context.Context, job *Job) error {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT name, status, started_at, ended_at, output_path, error_message
         FROM job_stages WHERE job_id = ? ORDER BY position`,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("load stages: %w", err)
	}
	defer rows.Close()

	job.Stages = job.Stages[:0]
	for rows.Next() {
		var (
			name       string
			status     string
			startedRaw sql.NullString
			endedRaw   sql.NullString
			outputPath sql.NullString
			errMessage sql.NullString
		)
		if err := rows.Scan(&name, &status, &startedRaw, &endedRaw, &outputPath, &errMessage); err != nil {
			return fmt.Errorf("scan stage: %w", err)
		}
		rec := StageRecord{
			Name:       StageName(name),
			Status:     StageStatus(status),
			OutputPath: outputPath.String,
			Error:      errMessage.String,
		}
		if startedRaw.Valid {
			if t, err := parseTimeString(startedRaw.String); err == nil {
				rec.StartedAt = &t
			}
		}
		if endedRaw.Valid {
			if t, err := parseTimeString(endedRaw.String); err == nil {
				rec.EndedAt = &t
			}
		}
		job.Stages = append(job.Stages, rec)
	}
	return rows.Err()
}

// SetJobError records the stage at which a job failed.
func (s *Store) SetJobError(ctx context.Context, id string, stage StageName, message, stack string) error {
	now := time.Now().UTC().Format(timeFormat)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET error_stage = ?, error_message = ?, error_stack = ?, error_at = ?, updated_at = ?
         WHERE id = ?`,
		string(stage),
		message,
		nullableString(stack),
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("set job error: %w", err)
	}
	return requireRow(res, id)
}

// UpdateJobStatus moves a job to a new lifecycle status.
func (s *Store) UpdateJobStatus(ctx context.Context, id string, status JobStatus) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC().Format(timeFormat),
		id,
	)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return requireRow(res, id)
}

// SetResultRef records the final published reference for a job.
func (s *Store) SetResultRef(ctx context.Context, id, ref string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET result_ref = ?, updated_at = ? WHERE id = ?`,
		nullableString(ref),
		time.Now().UTC().Format(timeFormat),
		id,
	)
	if err != nil {
		return fmt.Errorf("set result ref: %w", err)
	}
	return requireRow(res, id)
}

// List returns jobs filtered by status (or all jobs when none is provided),
// ordered by creation time. Stage records are not loaded.
func (s *Store) List(ctx context.Context, statuses ...JobStatus) ([]*Job, error) {
	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[JobStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[JobStatus]int)
	for rows.Next() {
		var status JobStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates job state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case JobQueued:
			health.Queued += count
		case JobProcessing:
			health.Processing += count
		case JobCompleted:
			health.Completed += count
		case JobFailed:
			health.Failed += count
		}
	}
	return health, nil
}

const jobColumns = "id, user_id, input_path, status, duration_seconds, width, height, format, checksum, error_stage, error_message, error_stack, error_at, result_ref, last_heartbeat, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           string
		userID       string
		inputPath    string
		statusStr    string
		duration     float64
		width        int
		height       int
		format       sql.NullString
		checksum     sql.NullString
		errorStage   sql.NullString
		errorMessage sql.NullString
		errorStack   sql.NullString
		errorAtRaw   sql.NullString
		resultRef    sql.NullString
		heartbeatRaw sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&userID,
		&inputPath,
		&statusStr,
		&duration,
		&width,
		&height,
		&format,
		&checksum,
		&errorStage,
		&errorMessage,
		&errorStack,
		&errorAtRaw,
		&resultRef,
		&heartbeatRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:        id,
		UserID:    userID,
		InputPath: inputPath,
		Status:    JobStatus(statusStr),
		Media: MediaInfo{
			DurationSeconds: duration,
			Width:           width,
			Height:          height,
			Format:          format.String,
			Checksum:        checksum.String,
		},
		ResultRef: resultRef.String,
	}
	if errorStage.Valid || errorMessage.Valid {
		jobErr := &JobError{
			Stage:   StageName(errorStage.String),
			Message: errorMessage.String,
			Stack:   errorStack.String,
		}
		if errorAtRaw.Valid {
			if t, err := parseTimeString(errorAtRaw.String); err == nil {
				jobErr.At = t
			}
		}
		job.Error = jobErr
	}
	if heartbeatRaw.Valid {
		if t, err := parseTimeString(heartbeatRaw.String); err == nil {
			job.LastHeartbeat = &t
		}
	}
	if t, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = t
	}
	if t, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = t
	}
	return job, nil
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "primary key constraint")
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
