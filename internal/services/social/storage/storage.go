// Package storage defines persistence contracts for social graph state.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested social record is missing.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
var ErrAlreadyExists = errors.New("record already exists")

// UserProfile stores one directory profile for a user.
type UserProfile struct {
	UserID    string
	Username  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FriendRequest stores one pending request, owned by the recipient.
type FriendRequest struct {
	OwnerUserID string
	FromUserID  string
	CreatedAt   time.Time
}

// Friend stores one directed friendship edge. Edges are written in
// mirrored pairs; a lone edge is drift that mutations repair.
type Friend struct {
	OwnerUserID  string
	FriendUserID string
	CreatedAt    time.Time
}

// UserProfileStore persists directory profile records.
type UserProfileStore interface {
	InsertUserProfile(ctx context.Context, profile UserProfile) error
	GetUserProfileByUserID(ctx context.Context, userID string) (UserProfile, error)
	GetUserProfileByUsername(ctx context.Context, username string) (UserProfile, error)
	SearchUserProfiles(ctx context.Context, query string, excludeUserID string, limit int) ([]UserProfile, error)
}

// FriendGraphStore persists friend requests and mirrored friendship
// edges. Operations that touch both directions of an edge run in a
// single transaction.
type FriendGraphStore interface {
	InsertFriendRequest(ctx context.Context, request FriendRequest) error
	GetFriendRequest(ctx context.Context, ownerUserID string, fromUserID string) (FriendRequest, error)
	DeleteFriendRequest(ctx context.Context, ownerUserID string, fromUserID string) error
	ListFriendRequests(ctx context.Context, ownerUserID string) ([]FriendRequest, error)

	// AcceptFriendRequest deletes the request and inserts both mirrored
	// friendship edges atomically. Returns ErrNotFound when no such
	// request is pending.
	AcceptFriendRequest(ctx context.Context, ownerUserID string, fromUserID string, acceptedAt time.Time) error

	HasFriendEdge(ctx context.Context, ownerUserID string, friendUserID string) (bool, error)
	ListFriendEdges(ctx context.Context, ownerUserID string) ([]Friend, error)

	// DeleteFriendEdges removes both directions of an edge atomically.
	// Returns ErrNotFound when the owner's side is absent; a missing far
	// side alone is tolerated drift, not an error.
	DeleteFriendEdges(ctx context.Context, ownerUserID string, friendUserID string) error
}
