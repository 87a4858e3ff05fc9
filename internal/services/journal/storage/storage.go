// Package storage defines persistence contracts for journal service state.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested entry record is missing.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
var ErrAlreadyExists = errors.New("record already exists")

// Entry stores one journal record for a single calendar day.
// Day is always a UTC midnight timestamp; (OwnerUserID, Day) is unique.
type Entry struct {
	ID          string
	OwnerUserID string
	Day         time.Time
	Score       int
	High        string
	Low         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EntryUpdate carries the mutable entry fields; nil fields are left unchanged.
type EntryUpdate struct {
	Score *int
	High  *string
	Low   *string
}

// ListFilter bounds and pages an owner's entry history.
// Start and End are inclusive day bounds; nil means unbounded.
type ListFilter struct {
	Start  *time.Time
	End    *time.Time
	Limit  int
	Offset int
}

// EntryPage stores one page of entries plus the unpaged total.
type EntryPage struct {
	Entries []Entry
	Total   int
}

// EntryStore persists per-user, per-day journal entries.
//
// InsertEntry is atomic insert-if-absent: a second insert for the same
// (owner, day) pair fails with ErrAlreadyExists and leaves the existing
// row untouched.
type EntryStore interface {
	InsertEntry(ctx context.Context, entry Entry) error
	GetEntry(ctx context.Context, entryID string) (Entry, error)
	ListEntries(ctx context.Context, ownerUserID string, filter ListFilter) (EntryPage, error)
	UpdateEntry(ctx context.Context, entryID string, update EntryUpdate, updatedAt time.Time) error
	DeleteEntry(ctx context.Context, entryID string) error
	ListDays(ctx context.Context, ownerUserID string) ([]time.Time, error)
	ListScoresSince(ctx context.Context, ownerUserID string, cutoff time.Time) ([]int, error)
	CountEntries(ctx context.Context, ownerUserID string) (int, error)
}
