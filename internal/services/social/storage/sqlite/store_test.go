package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/dayline/internal/services/social/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "social.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func seedProfile(t *testing.T, store *Store, userID, username, name string) {
	t.Helper()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	err := store.InsertUserProfile(context.Background(), storage.UserProfile{
		UserID:    userID,
		Username:  username,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seed profile %s: %v", username, err)
	}
}

func TestInsertUserProfileRejectsDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	seedProfile(t, store, "user-1", "riverrunner", "River")

	err := store.InsertUserProfile(context.Background(), storage.UserProfile{
		UserID:   "user-2",
		Username: "riverrunner",
	})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("err = %v, want %v", err, storage.ErrAlreadyExists)
	}
}

func TestGetUserProfileByUsernameAndUserID(t *testing.T) {
	store := newTestStore(t)
	seedProfile(t, store, "user-1", "riverrunner", "River")

	byName, err := store.GetUserProfileByUsername(context.Background(), "riverrunner")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.UserID != "user-1" || byName.Name != "River" {
		t.Fatalf("profile = %+v", byName)
	}

	byID, err := store.GetUserProfileByUserID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get by user id: %v", err)
	}
	if byID.Username != "riverrunner" {
		t.Fatalf("username = %q, want %q", byID.Username, "riverrunner")
	}

	if _, err := store.GetUserProfileByUsername(context.Background(), "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestSearchUserProfilesMatchesUsernameAndName(t *testing.T) {
	store := newTestStore(t)
	seedProfile(t, store, "user-1", "riverrunner", "River")
	seedProfile(t, store, "user-2", "trailblazer", "Morgan River")
	seedProfile(t, store, "user-3", "stargazer", "Sky")

	got, err := store.SearchUserProfiles(context.Background(), "River", "user-1", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// user-1 matches but is the excluded caller.
	if len(got) != 1 {
		t.Fatalf("results len = %d, want 1", len(got))
	}
	if got[0].UserID != "user-2" {
		t.Fatalf("result = %+v, want user-2", got[0])
	}
}

func TestSearchUserProfilesEscapesLikeWildcards(t *testing.T) {
	store := newTestStore(t)
	seedProfile(t, store, "user-1", "percent.fan", "100% Committed")
	seedProfile(t, store, "user-2", "plainuser", "Plain")

	got, err := store.SearchUserProfiles(context.Background(), "%", "caller", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].UserID != "user-1" {
		t.Fatalf("results = %+v, want only the literal-percent profile", got)
	}
}

func TestFriendRequestLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)

	request := storage.FriendRequest{OwnerUserID: "user-2", FromUserID: "user-1", CreatedAt: now}
	if err := store.InsertFriendRequest(ctx, request); err != nil {
		t.Fatalf("insert request: %v", err)
	}
	if err := store.InsertFriendRequest(ctx, request); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("err = %v, want %v", err, storage.ErrAlreadyExists)
	}

	got, err := store.GetFriendRequest(ctx, "user-2", "user-1")
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("created at = %v, want %v", got.CreatedAt, now)
	}

	requests, err := store.ListFriendRequests(ctx, "user-2")
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("requests len = %d, want 1", len(requests))
	}

	if err := store.DeleteFriendRequest(ctx, "user-2", "user-1"); err != nil {
		t.Fatalf("delete request: %v", err)
	}
	if err := store.DeleteFriendRequest(ctx, "user-2", "user-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestAcceptFriendRequestWritesMirroredEdges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)

	request := storage.FriendRequest{OwnerUserID: "user-2", FromUserID: "user-1", CreatedAt: now}
	if err := store.InsertFriendRequest(ctx, request); err != nil {
		t.Fatalf("insert request: %v", err)
	}
	if err := store.AcceptFriendRequest(ctx, "user-2", "user-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	for _, pair := range [][2]string{{"user-2", "user-1"}, {"user-1", "user-2"}} {
		has, err := store.HasFriendEdge(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("has friend edge: %v", err)
		}
		if !has {
			t.Fatalf("missing edge %s -> %s", pair[0], pair[1])
		}
	}
	if _, err := store.GetFriendRequest(ctx, "user-2", "user-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want request consumed", err)
	}
}

func TestAcceptFriendRequestMissingIsNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.AcceptFriendRequest(context.Background(), "user-2", "user-1", time.Now())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestDeleteFriendEdgesRemovesBothDirections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)

	request := storage.FriendRequest{OwnerUserID: "user-2", FromUserID: "user-1", CreatedAt: now}
	if err := store.InsertFriendRequest(ctx, request); err != nil {
		t.Fatalf("insert request: %v", err)
	}
	if err := store.AcceptFriendRequest(ctx, "user-2", "user-1", now); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	if err := store.DeleteFriendEdges(ctx, "user-1", "user-2"); err != nil {
		t.Fatalf("delete edges: %v", err)
	}
	for _, pair := range [][2]string{{"user-1", "user-2"}, {"user-2", "user-1"}} {
		has, err := store.HasFriendEdge(ctx, pair[0], pair[1])
		if err != nil {
			t.Fatalf("has friend edge: %v", err)
		}
		if has {
			t.Fatalf("edge %s -> %s survived removal", pair[0], pair[1])
		}
	}
}

func TestDeleteFriendEdgesToleratesMissingFarSide(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)

	request := storage.FriendRequest{OwnerUserID: "user-2", FromUserID: "user-1", CreatedAt: now}
	if err := store.InsertFriendRequest(ctx, request); err != nil {
		t.Fatalf("insert request: %v", err)
	}
	if err := store.AcceptFriendRequest(ctx, "user-2", "user-1", now); err != nil {
		t.Fatalf("accept request: %v", err)
	}
	// Simulate drift: drop the far side only, then remove from the
	// owner's perspective.
	if _, err := store.sqlDB.ExecContext(ctx, `DELETE FROM friends WHERE owner_user_id = 'user-2'`); err != nil {
		t.Fatalf("simulate drift: %v", err)
	}

	if err := store.DeleteFriendEdges(ctx, "user-1", "user-2"); err != nil {
		t.Fatalf("delete edges with drift: %v", err)
	}
}

func TestDeleteFriendEdgesMissingOwnerSideIsNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.DeleteFriendEdges(context.Background(), "user-1", "user-2")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestListFriendEdges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)

	for i, from := range []string{"user-1", "user-3"} {
		request := storage.FriendRequest{
			OwnerUserID: "user-2",
			FromUserID:  from,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.InsertFriendRequest(ctx, request); err != nil {
			t.Fatalf("insert request: %v", err)
		}
		if err := store.AcceptFriendRequest(ctx, "user-2", from, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("accept request: %v", err)
		}
	}

	friends, err := store.ListFriendEdges(ctx, "user-2")
	if err != nil {
		t.Fatalf("list edges: %v", err)
	}
	if len(friends) != 2 {
		t.Fatalf("friends len = %d, want 2", len(friends))
	}
	if friends[0].FriendUserID != "user-3" {
		t.Fatalf("first friend = %q, want newest edge first", friends[0].FriendUserID)
	}
}
