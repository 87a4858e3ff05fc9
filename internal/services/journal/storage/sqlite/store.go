// Package sqlite provides a SQLite-backed journal storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/dayline/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/dayline/internal/services/journal/storage"
	"github.com/louisbranch/dayline/internal/services/journal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists journal state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite journal store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// InsertEntry creates one entry row. The unique (owner_user_id, day) index
// arbitrates concurrent writers; the loser observes ErrAlreadyExists.
func (s *Store) InsertEntry(ctx context.Context, entry storage.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	entryID := strings.TrimSpace(entry.ID)
	ownerUserID := strings.TrimSpace(entry.OwnerUserID)
	if entryID == "" {
		return fmt.Errorf("entry id is required")
	}
	if ownerUserID == "" {
		return fmt.Errorf("owner user id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO entries (id, owner_user_id, day, score, high, low, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entryID,
		ownerUserID,
		toMillis(entry.Day),
		entry.Score,
		entry.High,
		entry.Low,
		toMillis(entry.CreatedAt),
		toMillis(entry.UpdatedAt),
	)
	if err != nil {
		if isEntryDayUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// GetEntry returns one entry row by id.
func (s *Store) GetEntry(ctx context.Context, entryID string) (storage.Entry, error) {
	if err := ctx.Err(); err != nil {
		return storage.Entry{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Entry{}, fmt.Errorf("storage is not configured")
	}
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return storage.Entry{}, fmt.Errorf("entry id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, owner_user_id, day, score, high, low, created_at, updated_at
		 FROM entries
		 WHERE id = ?`,
		entryID,
	)
	return scanEntry(row.Scan)
}

// ListEntries returns one page of an owner's entries, newest day first,
// plus the total row count for the same filter ignoring pagination.
func (s *Store) ListEntries(ctx context.Context, ownerUserID string, filter storage.ListFilter) (storage.EntryPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.EntryPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EntryPage{}, fmt.Errorf("storage is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return storage.EntryPage{}, fmt.Errorf("owner user id is required")
	}
	if filter.Limit <= 0 {
		return storage.EntryPage{}, fmt.Errorf("limit must be greater than zero")
	}
	if filter.Offset < 0 {
		return storage.EntryPage{}, fmt.Errorf("offset must not be negative")
	}

	where := "owner_user_id = ?"
	args := []any{ownerUserID}
	if filter.Start != nil {
		where += " AND day >= ?"
		args = append(args, toMillis(*filter.Start))
	}
	if filter.End != nil {
		where += " AND day <= ?"
		args = append(args, toMillis(*filter.End))
	}

	page := storage.EntryPage{}
	row := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries WHERE "+where, args...)
	if err := row.Scan(&page.Total); err != nil {
		return storage.EntryPage{}, fmt.Errorf("count entries: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, owner_user_id, day, score, high, low, created_at, updated_at
		 FROM entries
		 WHERE `+where+`
		 ORDER BY day DESC
		 LIMIT ? OFFSET ?`,
		append(args, filter.Limit, filter.Offset)...,
	)
	if err != nil {
		return storage.EntryPage{}, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return storage.EntryPage{}, fmt.Errorf("list entries: %w", err)
		}
		page.Entries = append(page.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return storage.EntryPage{}, fmt.Errorf("list entries: %w", err)
	}
	return page, nil
}

// UpdateEntry mutates the provided fields of one entry row.
// Absent update fields keep their stored values.
func (s *Store) UpdateEntry(ctx context.Context, entryID string, update storage.EntryUpdate, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return fmt.Errorf("entry id is required")
	}

	assignments := []string{"updated_at = ?"}
	args := []any{toMillis(updatedAt)}
	if update.Score != nil {
		assignments = append(assignments, "score = ?")
		args = append(args, *update.Score)
	}
	if update.High != nil {
		assignments = append(assignments, "high = ?")
		args = append(args, *update.High)
	}
	if update.Low != nil {
		assignments = append(assignments, "low = ?")
		args = append(args, *update.Low)
	}
	args = append(args, entryID)

	result, err := s.sqlDB.ExecContext(
		ctx,
		"UPDATE entries SET "+strings.Join(assignments, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteEntry removes one entry row.
func (s *Store) DeleteEntry(ctx context.Context, entryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return fmt.Errorf("entry id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, entryID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListDays returns an owner's entry days, newest first.
func (s *Store) ListDays(ctx context.Context, ownerUserID string) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, fmt.Errorf("owner user id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT day FROM entries WHERE owner_user_id = ? ORDER BY day DESC`,
		ownerUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day int64
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("list days: %w", err)
		}
		days = append(days, fromMillis(day))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	return days, nil
}

// ListScoresSince returns scores for entries with day on or after cutoff.
func (s *Store) ListScoresSince(ctx context.Context, ownerUserID string, cutoff time.Time) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, fmt.Errorf("owner user id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT score FROM entries WHERE owner_user_id = ? AND day >= ?`,
		ownerUserID,
		toMillis(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var scores []int
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("list scores: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return scores, nil
}

// CountEntries returns the total number of entries for an owner.
func (s *Store) CountEntries(ctx context.Context, ownerUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return 0, fmt.Errorf("owner user id is required")
	}

	var total int
	row := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE owner_user_id = ?`, ownerUserID)
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return total, nil
}

func scanEntry(scan func(dest ...any) error) (storage.Entry, error) {
	var entry storage.Entry
	var day int64
	var createdAt int64
	var updatedAt int64
	err := scan(
		&entry.ID,
		&entry.OwnerUserID,
		&day,
		&entry.Score,
		&entry.High,
		&entry.Low,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Entry{}, storage.ErrNotFound
		}
		return storage.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	entry.Day = fromMillis(day)
	entry.CreatedAt = fromMillis(createdAt)
	entry.UpdatedAt = fromMillis(updatedAt)
	return entry, nil
}

func isEntryDayUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "entries.")
}

var _ storage.EntryStore = (*Store)(nil)
