// Package sqlite provides a SQLite-backed social storage implementation.
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
	"github.com/louisbranch/dayline/internal/services/social/storage"
	"github.com/louisbranch/dayline/internal/services/social/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists social graph state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite social store and applies embedded migrations.
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

// InsertUserProfile creates one directory profile row. The unique
// username index arbitrates concurrent registrations.
func (s *Store) InsertUserProfile(ctx context.Context, profile storage.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID := strings.TrimSpace(profile.UserID)
	username := strings.TrimSpace(profile.Username)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO user_profiles (user_id, username, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		userID,
		username,
		profile.Name,
		toMillis(profile.CreatedAt),
		toMillis(profile.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "user_profiles") {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert user profile: %w", err)
	}
	return nil
}

// GetUserProfileByUserID returns one directory profile row by user id.
func (s *Store) GetUserProfileByUserID(ctx context.Context, userID string) (storage.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return storage.UserProfile{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.UserProfile{}, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return storage.UserProfile{}, fmt.Errorf("user id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT user_id, username, name, created_at, updated_at
		 FROM user_profiles
		 WHERE user_id = ?`,
		userID,
	)
	return scanUserProfile(row.Scan)
}

// GetUserProfileByUsername returns one directory profile row by username.
func (s *Store) GetUserProfileByUsername(ctx context.Context, username string) (storage.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return storage.UserProfile{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.UserProfile{}, fmt.Errorf("storage is not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return storage.UserProfile{}, fmt.Errorf("username is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT user_id, username, name, created_at, updated_at
		 FROM user_profiles
		 WHERE username = ?`,
		username,
	)
	return scanUserProfile(row.Scan)
}

// SearchUserProfiles returns profiles whose username or name contains
// the query as a case-insensitive substring, excluding one user id.
func (s *Store) SearchUserProfiles(ctx context.Context, query string, excludeUserID string, limit int) ([]storage.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT user_id, username, name, created_at, updated_at
		 FROM user_profiles
		 WHERE user_id != ?
		   AND (username LIKE ? ESCAPE '\' OR lower(name) LIKE ? ESCAPE '\')
		 ORDER BY username ASC
		 LIMIT ?`,
		strings.TrimSpace(excludeUserID),
		pattern,
		pattern,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search user profiles: %w", err)
	}
	defer rows.Close()

	var profiles []storage.UserProfile
	for rows.Next() {
		profile, err := scanUserProfile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("search user profiles: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search user profiles: %w", err)
	}
	return profiles, nil
}

// InsertFriendRequest creates one pending request row. The composite
// primary key rejects a duplicate pending request.
func (s *Store) InsertFriendRequest(ctx context.Context, request storage.FriendRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	ownerUserID := strings.TrimSpace(request.OwnerUserID)
	fromUserID := strings.TrimSpace(request.FromUserID)
	if ownerUserID == "" {
		return fmt.Errorf("owner user id is required")
	}
	if fromUserID == "" {
		return fmt.Errorf("from user id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO friend_requests (owner_user_id, from_user_id, created_at)
		 VALUES (?, ?, ?)`,
		ownerUserID,
		fromUserID,
		toMillis(request.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "friend_requests") {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("insert friend request: %w", err)
	}
	return nil
}

// GetFriendRequest returns one pending request row.
func (s *Store) GetFriendRequest(ctx context.Context, ownerUserID string, fromUserID string) (storage.FriendRequest, error) {
	if err := ctx.Err(); err != nil {
		return storage.FriendRequest{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.FriendRequest{}, fmt.Errorf("storage is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	fromUserID = strings.TrimSpace(fromUserID)
	if ownerUserID == "" {
		return storage.FriendRequest{}, fmt.Errorf("owner user id is required")
	}
	if fromUserID == "" {
		return storage.FriendRequest{}, fmt.Errorf("from user id is required")
	}

	var request storage.FriendRequest
	var createdAt int64
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT owner_user_id, from_user_id, created_at
		 FROM friend_requests
		 WHERE owner_user_id = ? AND from_user_id = ?`,
		ownerUserID,
		fromUserID,
	)
	err := row.Scan(&request.OwnerUserID, &request.FromUserID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.FriendRequest{}, storage.ErrNotFound
		}
		return storage.FriendRequest{}, fmt.Errorf("get friend request: %w", err)
	}
	request.CreatedAt = fromMillis(createdAt)
	return request, nil
}

// DeleteFriendRequest removes one pending request row.
func (s *Store) DeleteFriendRequest(ctx context.Context, ownerUserID string, fromUserID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	fromUserID = strings.TrimSpace(fromUserID)
	if ownerUserID == "" {
		return fmt.Errorf("owner user id is required")
	}
	if fromUserID == "" {
		return fmt.Errorf("from user id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM friend_requests WHERE owner_user_id = ? AND from_user_id = ?`,
		ownerUserID,
		fromUserID,
	)
	if err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListFriendRequests returns an owner's pending requests, newest first.
func (s *Store) ListFriendRequests(ctx context.Context, ownerUserID string) ([]storage.FriendRequest, error) {
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
		`SELECT owner_user_id, from_user_id, created_at
		 FROM friend_requests
		 WHERE owner_user_id = ?
		 ORDER BY created_at DESC, from_user_id ASC`,
		ownerUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	defer rows.Close()

	var requests []storage.FriendRequest
	for rows.Next() {
		var request storage.FriendRequest
		var createdAt int64
		if err := rows.Scan(&request.OwnerUserID, &request.FromUserID, &createdAt); err != nil {
			return nil, fmt.Errorf("list friend requests: %w", err)
		}
		request.CreatedAt = fromMillis(createdAt)
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	return requests, nil
}

// AcceptFriendRequest deletes the pending request and inserts both
// mirrored friendship edges in one transaction.
func (s *Store) AcceptFriendRequest(ctx context.Context, ownerUserID string, fromUserID string, acceptedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	fromUserID = strings.TrimSpace(fromUserID)
	if ownerUserID == "" {
		return fmt.Errorf("owner user id is required")
	}
	if fromUserID == "" {
		return fmt.Errorf("from user id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("accept friend request: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(
		ctx,
		`DELETE FROM friend_requests WHERE owner_user_id = ? AND from_user_id = ?`,
		ownerUserID,
		fromUserID,
	)
	if err != nil {
		return fmt.Errorf("accept friend request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("accept friend request: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	// INSERT OR IGNORE repairs a half-written edge left by earlier drift.
	createdAt := toMillis(acceptedAt)
	for _, pair := range [][2]string{{ownerUserID, fromUserID}, {fromUserID, ownerUserID}} {
		_, err := tx.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO friends (owner_user_id, friend_user_id, created_at)
			 VALUES (?, ?, ?)`,
			pair[0],
			pair[1],
			createdAt,
		)
		if err != nil {
			return fmt.Errorf("accept friend request: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("accept friend request: %w", err)
	}
	return nil
}

// HasFriendEdge reports whether the owner's side of an edge exists.
func (s *Store) HasFriendEdge(ctx context.Context, ownerUserID string, friendUserID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	friendUserID = strings.TrimSpace(friendUserID)
	if ownerUserID == "" {
		return false, fmt.Errorf("owner user id is required")
	}
	if friendUserID == "" {
		return false, fmt.Errorf("friend user id is required")
	}

	var count int
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM friends WHERE owner_user_id = ? AND friend_user_id = ?`,
		ownerUserID,
		friendUserID,
	)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check friend edge: %w", err)
	}
	return count > 0, nil
}

// ListFriendEdges returns an owner's friendship edges, newest first.
func (s *Store) ListFriendEdges(ctx context.Context, ownerUserID string) ([]storage.Friend, error) {
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
		`SELECT owner_user_id, friend_user_id, created_at
		 FROM friends
		 WHERE owner_user_id = ?
		 ORDER BY created_at DESC, friend_user_id ASC`,
		ownerUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("list friend edges: %w", err)
	}
	defer rows.Close()

	var friends []storage.Friend
	for rows.Next() {
		var friend storage.Friend
		var createdAt int64
		if err := rows.Scan(&friend.OwnerUserID, &friend.FriendUserID, &createdAt); err != nil {
			return nil, fmt.Errorf("list friend edges: %w", err)
		}
		friend.CreatedAt = fromMillis(createdAt)
		friends = append(friends, friend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friend edges: %w", err)
	}
	return friends, nil
}

// DeleteFriendEdges removes both directions of an edge in one
// transaction. A missing far side is tolerated drift.
func (s *Store) DeleteFriendEdges(ctx context.Context, ownerUserID string, friendUserID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	friendUserID = strings.TrimSpace(friendUserID)
	if ownerUserID == "" {
		return fmt.Errorf("owner user id is required")
	}
	if friendUserID == "" {
		return fmt.Errorf("friend user id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete friend edges: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(
		ctx,
		`DELETE FROM friends WHERE owner_user_id = ? AND friend_user_id = ?`,
		ownerUserID,
		friendUserID,
	)
	if err != nil {
		return fmt.Errorf("delete friend edges: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete friend edges: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	_, err = tx.ExecContext(
		ctx,
		`DELETE FROM friends WHERE owner_user_id = ? AND friend_user_id = ?`,
		friendUserID,
		ownerUserID,
	)
	if err != nil {
		return fmt.Errorf("delete friend edges: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete friend edges: %w", err)
	}
	return nil
}

func scanUserProfile(scan func(dest ...any) error) (storage.UserProfile, error) {
	var profile storage.UserProfile
	var createdAt int64
	var updatedAt int64
	err := scan(
		&profile.UserID,
		&profile.Username,
		&profile.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.UserProfile{}, storage.ErrNotFound
		}
		return storage.UserProfile{}, fmt.Errorf("scan user profile: %w", err)
	}
	profile.CreatedAt = fromMillis(createdAt)
	profile.UpdatedAt = fromMillis(updatedAt)
	return profile, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func isUniqueViolation(err error, table string) bool {
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
		strings.Contains(message, table+".")
}

var _ storage.UserProfileStore = (*Store)(nil)
var _ storage.FriendGraphStore = (*Store)(nil)
