// Package social exposes the user directory and friend graph operations.
package social

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/louisbranch/dayline/internal/errors"
	"github.com/louisbranch/dayline/internal/id"
	"github.com/louisbranch/dayline/internal/services/social/storage"
	usernameutil "github.com/louisbranch/dayline/internal/services/social/username"
)

const (
	maxNameLength    = 64
	maxSearchResults = 20
)

// RequestAction is a response to a pending friend request.
type RequestAction string

const (
	// ActionAccept converts the request into a mutual friendship.
	ActionAccept RequestAction = "accept"
	// ActionReject discards the request without creating an edge.
	ActionReject RequestAction = "reject"
)

// FriendRequest is a pending request joined with the sender's profile.
type FriendRequest struct {
	From      storage.UserProfile
	CreatedAt time.Time
}

// Friend is a friendship edge joined with the friend's profile.
type Friend struct {
	Profile storage.UserProfile
	Since   time.Time
}

type directoryAndGraphStore interface {
	storage.UserProfileStore
	storage.FriendGraphStore
}

// Service implements the user directory and the friend graph state
// machine on top of social storage.
type Service struct {
	store directoryAndGraphStore
	clock func() time.Time
	newID func() string
}

// NewService creates a social service backed by social storage.
func NewService(store directoryAndGraphStore) *Service {
	return &Service{
		store: store,
		clock: time.Now,
		newID: id.New,
	}
}

// RegisterUser creates a directory profile under a canonical username.
// An empty userID gets a generated one.
func (s *Service) RegisterUser(ctx context.Context, userID string, username string, name string) (storage.UserProfile, error) {
	if s == nil || s.store == nil {
		return storage.UserProfile{}, errors.New(errors.CodeStorageFailure, "social store is not configured")
	}

	canonical, err := usernameutil.Canonicalize(username)
	if err != nil {
		return storage.UserProfile{}, errors.Wrap(errors.CodeUsernameInvalid, "register user", err)
	}
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxNameLength {
		return storage.UserProfile{}, errors.New(
			errors.CodeUsernameInvalid,
			fmt.Sprintf("name exceeds %d characters", maxNameLength),
		)
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = s.newID()
	}

	now := s.now()
	profile := storage.UserProfile{
		UserID:    userID,
		Username:  canonical,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertUserProfile(ctx, profile); err != nil {
		if stderrors.Is(err, storage.ErrAlreadyExists) {
			return storage.UserProfile{}, errors.WithMetadata(
				errors.CodeUsernameTaken,
				fmt.Sprintf("username %s is taken", canonical),
				map[string]string{"Username": canonical},
			)
		}
		return storage.UserProfile{}, errors.Wrap(errors.CodeStorageFailure, "register user", err)
	}
	return profile, nil
}

// ResolveUsername returns the directory profile behind a username.
func (s *Service) ResolveUsername(ctx context.Context, username string) (storage.UserProfile, error) {
	if s == nil || s.store == nil {
		return storage.UserProfile{}, errors.New(errors.CodeStorageFailure, "social store is not configured")
	}

	canonical, err := usernameutil.Canonicalize(username)
	if err != nil {
		return storage.UserProfile{}, errors.Wrap(errors.CodeUsernameInvalid, "resolve username", err)
	}

	profile, err := s.store.GetUserProfileByUsername(ctx, canonical)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return storage.UserProfile{}, errors.New(errors.CodeUserNotFound, "user not found")
		}
		return storage.UserProfile{}, errors.Wrap(errors.CodeStorageFailure, "resolve username", err)
	}
	return profile, nil
}

// SendFriendRequest files a request from one user to a target username.
// The request lands on the recipient's side of the graph; at most one
// may be outstanding per sender and recipient pair.
func (s *Service) SendFriendRequest(ctx context.Context, fromUserID string, toUsername string) error {
	if s == nil || s.store == nil {
		return errors.New(errors.CodeStorageFailure, "social store is not configured")
	}
	fromUserID = strings.TrimSpace(fromUserID)
	if fromUserID == "" {
		return errors.New(errors.CodeUserNotFound, "from user id is required")
	}

	target, err := s.ResolveUsername(ctx, toUsername)
	if err != nil {
		return err
	}
	if target.UserID == fromUserID {
		return errors.New(errors.CodeFriendRequestSelf, "cannot send a friend request to yourself")
	}

	alreadyFriends, err := s.store.HasFriendEdge(ctx, target.UserID, fromUserID)
	if err != nil {
		return errors.Wrap(errors.CodeStorageFailure, "send friend request", err)
	}
	if alreadyFriends {
		return errors.New(errors.CodeFriendAlreadyFriends, "users are already friends")
	}

	request := storage.FriendRequest{
		OwnerUserID: target.UserID,
		FromUserID:  fromUserID,
		CreatedAt:   s.now(),
	}
	if err := s.store.InsertFriendRequest(ctx, request); err != nil {
		if stderrors.Is(err, storage.ErrAlreadyExists) {
			return errors.New(errors.CodeFriendRequestDuplicate, "friend request already pending")
		}
		return errors.Wrap(errors.CodeStorageFailure, "send friend request", err)
	}
	return nil
}

// RespondToFriendRequest accepts or rejects a pending request owned by
// the recipient. Accepting writes both mirrored edges and consumes the
// request atomically; rejecting only consumes the request.
func (s *Service) RespondToFriendRequest(ctx context.Context, ownerUserID string, fromUserID string, action RequestAction) error {
	if s == nil || s.store == nil {
		return errors.New(errors.CodeStorageFailure, "social store is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	fromUserID = strings.TrimSpace(fromUserID)
	if ownerUserID == "" {
		return errors.New(errors.CodeUserNotFound, "owner user id is required")
	}
	if fromUserID == "" {
		return errors.New(errors.CodeFriendRequestNotFound, "from user id is required")
	}

	switch action {
	case ActionAccept:
		err := s.store.AcceptFriendRequest(ctx, ownerUserID, fromUserID, s.now())
		if err != nil {
			if stderrors.Is(err, storage.ErrNotFound) {
				return errors.New(errors.CodeFriendRequestNotFound, "friend request not found")
			}
			return errors.Wrap(errors.CodeStorageFailure, "accept friend request", err)
		}
		return nil
	case ActionReject:
		err := s.store.DeleteFriendRequest(ctx, ownerUserID, fromUserID)
		if err != nil {
			if stderrors.Is(err, storage.ErrNotFound) {
				return errors.New(errors.CodeFriendRequestNotFound, "friend request not found")
			}
			return errors.Wrap(errors.CodeStorageFailure, "reject friend request", err)
		}
		return nil
	default:
		return errors.WithMetadata(
			errors.CodeFriendRequestInvalidAction,
			fmt.Sprintf("action %q is not supported", action),
			map[string]string{"Action": string(action)},
		)
	}
}

// ListFriendRequests returns the owner's pending requests joined with
// sender profiles. Requests from unknown senders are skipped.
func (s *Service) ListFriendRequests(ctx context.Context, ownerUserID string) ([]FriendRequest, error) {
	if s == nil || s.store == nil {
		return nil, errors.New(errors.CodeStorageFailure, "social store is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, errors.New(errors.CodeUserNotFound, "owner user id is required")
	}

	stored, err := s.store.ListFriendRequests(ctx, ownerUserID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list friend requests", err)
	}

	requests := make([]FriendRequest, 0, len(stored))
	for _, request := range stored {
		sender, err := s.store.GetUserProfileByUserID(ctx, request.FromUserID)
		if err != nil {
			if stderrors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, errors.Wrap(errors.CodeStorageFailure, "list friend requests", err)
		}
		requests = append(requests, FriendRequest{
			From:      sender,
			CreatedAt: request.CreatedAt,
		})
	}
	return requests, nil
}

// ListFriends returns the owner's friends joined with directory
// profiles. Edges pointing at unknown users are skipped.
func (s *Service) ListFriends(ctx context.Context, ownerUserID string) ([]Friend, error) {
	if s == nil || s.store == nil {
		return nil, errors.New(errors.CodeStorageFailure, "social store is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, errors.New(errors.CodeUserNotFound, "owner user id is required")
	}

	edges, err := s.store.ListFriendEdges(ctx, ownerUserID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "list friends", err)
	}

	friends := make([]Friend, 0, len(edges))
	for _, edge := range edges {
		profile, err := s.store.GetUserProfileByUserID(ctx, edge.FriendUserID)
		if err != nil {
			if stderrors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, errors.Wrap(errors.CodeStorageFailure, "list friends", err)
		}
		friends = append(friends, Friend{
			Profile: profile,
			Since:   edge.CreatedAt,
		})
	}
	return friends, nil
}

// RemoveFriend deletes both directions of a friendship. The owner's
// side must exist; a missing far side is repaired silently.
func (s *Service) RemoveFriend(ctx context.Context, ownerUserID string, friendUserID string) error {
	if s == nil || s.store == nil {
		return errors.New(errors.CodeStorageFailure, "social store is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	friendUserID = strings.TrimSpace(friendUserID)
	if ownerUserID == "" {
		return errors.New(errors.CodeUserNotFound, "owner user id is required")
	}
	if friendUserID == "" {
		return errors.New(errors.CodeFriendNotFound, "friend user id is required")
	}

	if err := s.store.DeleteFriendEdges(ctx, ownerUserID, friendUserID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.New(errors.CodeFriendNotFound, "friendship not found")
		}
		return errors.Wrap(errors.CodeStorageFailure, "remove friend", err)
	}
	return nil
}

// SearchUsers finds directory profiles whose username or name contains
// the query, excluding the caller.
func (s *Service) SearchUsers(ctx context.Context, callerUserID string, query string) ([]storage.UserProfile, error) {
	if s == nil || s.store == nil {
		return nil, errors.New(errors.CodeStorageFailure, "social store is not configured")
	}
	callerUserID = strings.TrimSpace(callerUserID)
	if callerUserID == "" {
		return nil, errors.New(errors.CodeUserNotFound, "caller user id is required")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New(errors.CodeUserSearchQueryEmpty, "search query is required")
	}

	profiles, err := s.store.SearchUserProfiles(ctx, query, callerUserID, maxSearchResults)
	if err != nil {
		return nil, errors.Wrap(errors.CodeStorageFailure, "search users", err)
	}
	return profiles, nil
}

func (s *Service) now() time.Time {
	if s.clock != nil {
		return s.clock().UTC()
	}
	return time.Now().UTC()
}
