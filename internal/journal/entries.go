package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status values stored in the journal.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// AbandonedReason is the error message stamped on rows a previous process left open.
const AbandonedReason = "daemon stopped before the job finished"

// Entry is one journaled job.
type Entry struct {
	ID             string
	Platform       string
	ConversationID string
	Command        string
	MediaKind      string
	StickerName    string
	StickerAuthor  string
	Status         string
	ErrorKind      string
	ErrorMessage   string
	OutputBytes    int64
	EnqueuedAt     time.Time
	StartedAt      *time.Time
	FinishedAt     *time.Time
}

// Duration returns the processing time, or zero while unfinished.
func (e Entry) Duration() time.Duration {
	if e.StartedAt == nil || e.FinishedAt == nil {
		return 0
	}
	return e.FinishedAt.Sub(*e.StartedAt)
}

// Insert records a newly queued job.
func (s *Store) Insert(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return errors.New("journal entry requires an id")
	}
	if e.Status == "" {
		e.Status = StatusQueued
	}
	if e.EnqueuedAt.IsZero() {
		e.EnqueuedAt = time.Now()
	}
	_, err := s.exec(ctx, `INSERT INTO jobs (
		id, platform, conversation_id, command, media_kind, sticker_name, sticker_author, status, enqueued_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Platform, e.ConversationID, e.Command, e.MediaKind, e.StickerName, e.StickerAuthor,
		e.Status, formatTime(e.EnqueuedAt),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// MarkStarted moves a job to running.
func (s *Store) MarkStarted(ctx context.Context, id string, at time.Time) error {
	_, err := s.exec(ctx, `UPDATE jobs SET status = ?, started_at = ? WHERE id = ?`,
		StatusRunning, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark journal entry running: %w", err)
	}
	return nil
}

// MarkFinished records the terminal state of a job.
func (s *Store) MarkFinished(ctx context.Context, id, status, errorKind, errorMessage string, outputBytes int64, at time.Time) error {
	_, err := s.exec(ctx, `UPDATE jobs
		SET status = ?, error_kind = ?, error_message = ?, output_bytes = ?, finished_at = ?
		WHERE id = ?`,
		status, nullableString(errorKind), nullableString(errorMessage), outputBytes, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark journal entry %s: %w", status, err)
	}
	return nil
}

// AbandonOpen marks every queued or running row as abandoned and returns how
// many were touched.
func (s *Store) AbandonOpen(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `UPDATE jobs
		SET status = ?, error_message = ?, finished_at = ?
		WHERE status IN (?, ?)`,
		StatusAbandoned, AbandonedReason, formatTime(time.Now()), StatusQueued, StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("abandon open journal entries: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes rows enqueued before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM jobs WHERE enqueued_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return res.RowsAffected()
}

// Get returns the entry with id, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), selectColumns+` WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), selectColumns+` ORDER BY enqueued_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Stats returns a count of entries grouped by status.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const selectColumns = `SELECT id, platform, conversation_id, command, media_kind, sticker_name,
	sticker_author, status, error_kind, error_message, output_bytes, enqueued_at, started_at, finished_at
	FROM jobs`

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		e                     Entry
		errorKind, errorMsg   sql.NullString
		enqueued              string
		startedAt, finishedAt sql.NullString
	)
	if err := scanner.Scan(&e.ID, &e.Platform, &e.ConversationID, &e.Command, &e.MediaKind,
		&e.StickerName, &e.StickerAuthor, &e.Status, &errorKind, &errorMsg, &e.OutputBytes,
		&enqueued, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	e.ErrorKind = errorKind.String
	e.ErrorMessage = errorMsg.String
	if t, err := parseTimeString(enqueued); err == nil {
		e.EnqueuedAt = t
	}
	e.StartedAt = parseNullableTime(startedAt)
	e.FinishedAt = parseNullableTime(finishedAt)
	return &e, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &t
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
