// Package journal exposes the daily entry operations and derived stats.
package journal

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/louisbranch/dayline/internal/errors"
	"github.com/louisbranch/dayline/internal/id"
	"github.com/louisbranch/dayline/internal/platform/pagination"
	"github.com/louisbranch/dayline/internal/services/journal/stats"
	"github.com/louisbranch/dayline/internal/services/journal/storage"
)

const (
	minScore      = 1
	maxScore      = 10
	maxTextLength = 500

	defaultListEntriesPageSize = 30
	maxListEntriesPageSize     = 100

	weeklyWindow = 7 * 24 * time.Hour
)

// ListEntriesRequest bounds and pages an entry listing.
// Start and End are inclusive date bounds; Page is 1-based.
type ListEntriesRequest struct {
	Start    *time.Time
	End      *time.Time
	Page     int
	PageSize int
}

// EntryList is one page of entries plus pagination totals.
type EntryList struct {
	Entries []storage.Entry
	Total   int
	Page    int
	Pages   int
}

// EntryUpdate carries a partial entry mutation; nil fields are unchanged.
type EntryUpdate struct {
	Score *int
	High  *string
	Low   *string
}

// WeeklyAverage reports the trailing 7-day score average and the number
// of entries behind it. A zero average with zero entries means no data.
type WeeklyAverage struct {
	Average      float64
	EntriesCount int
}

// Service implements entry CRUD and the derived streak/average stats.
type Service struct {
	store storage.EntryStore
	clock func() time.Time
	newID func() string
}

// NewService creates a journal service backed by entry storage.
func NewService(store storage.EntryStore) *Service {
	return &Service{
		store: store,
		clock: time.Now,
		newID: id.New,
	}
}

// CreateEntry records one journal entry for the given calendar day.
// The day is truncated to UTC midnight before the atomic insert, so two
// writes differing only in time-of-day collide on the same day key.
func (s *Service) CreateEntry(ctx context.Context, ownerUserID string, day time.Time, score int, high string, low string) (storage.Entry, error) {
	if s == nil || s.store == nil {
		return storage.Entry{}, errors.New(errors.CodeStorageFailure, "entry store is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return storage.Entry{}, errors.New(errors.CodeUserNotFound, "owner user id is required")
	}

	now := s.now()
	if day.IsZero() {
		day = now
	}
	normalizedDay := stats.TruncateDay(day)

	high, err := validateText("High", high, errors.CodeEntryEmptyHigh)
	if err != nil {
		return storage.Entry{}, err
	}
	low, err = validateText("Low", low, errors.CodeEntryEmptyLow)
	if err != nil {
		return storage.Entry{}, err
	}
	if err := validateScore(score); err != nil {
		return storage.Entry{}, err
	}

	entry := storage.Entry{
		ID:          s.newID(),
		OwnerUserID: ownerUserID,
		Day:         normalizedDay,
		Score:       score,
		High:        high,
		Low:         low,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertEntry(ctx, entry); err != nil {
		if stderrors.Is(err, storage.ErrAlreadyExists) {
			return storage.Entry{}, errors.New(
				errors.CodeEntryDuplicateDay,
				fmt.Sprintf("entry already exists for %s on %s", ownerUserID, normalizedDay.Format("2006-01-02")),
			)
		}
		return storage.Entry{}, errors.Wrap(errors.CodeStorageFailure, "create entry", err)
	}
	return entry, nil
}

// GetEntry returns one entry after enforcing ownership.
func (s *Service) GetEntry(ctx context.Context, ownerUserID string, entryID string) (storage.Entry, error) {
	if s == nil || s.store == nil {
		return storage.Entry{}, errors.New(errors.CodeStorageFailure, "entry store is not configured")
	}
	return s.ownedEntry(ctx, ownerUserID, entryID)
}

// ListEntries returns an owner's entries, newest day first, within the
// optional inclusive date bounds, with offset pagination and the
// unpaged total.
func (s *Service) ListEntries(ctx context.Context, ownerUserID string, req ListEntriesRequest) (EntryList, error) {
	if s == nil || s.store == nil {
		return EntryList{}, errors.New(errors.CodeStorageFailure, "entry store is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return EntryList{}, errors.New(errors.CodeUserNotFound, "owner user id is required")
	}

	filter := storage.ListFilter{}
	if req.Start != nil {
		start := stats.TruncateDay(*req.Start)
		filter.Start = &start
	}
	if req.End != nil {
		end := stats.TruncateDay(*req.End)
		filter.End = &end
	}
	if filter.Start != nil && filter.End != nil && filter.Start.After(*filter.End) {
		return EntryList{}, errors.New(errors.CodeEntryInvalidRange, "start date is after end date")
	}

	pageSize := pagination.ClampPageSize(req.PageSize, pagination.PageSizeConfig{
		Default: defaultListEntriesPageSize,
		Max:     maxListEntriesPageSize,
	})
	page := pagination.ClampPage(req.Page)
	filter.Limit = pageSize
	filter.Offset = pagination.Offset(page, pageSize)

	stored, err := s.store.ListEntries(ctx, ownerUserID, filter)
	if err != nil {
		return EntryList{}, errors.Wrap(errors.CodeStorageFailure, "list entries", err)
	}

	pages := stored.Total / pageSize
	if stored.Total%pageSize != 0 {
		pages++
	}
	return EntryList{
		Entries: stored.Entries,
		Total:   stored.Total,
		Page:    page,
		Pages:   pages,
	}, nil
}

// UpdateEntry mutates score/high/low on an owned entry. Fields left nil
// in the update keep their stored values.
func (s *Service) UpdateEntry(ctx context.Context, ownerUserID string, entryID string, update EntryUpdate) (storage.Entry, error) {
	if s == nil || s.store == nil {
		return storage.Entry{}, errors.New(errors.CodeStorageFailure, "entry store is not configured")
	}
	entry, err := s.ownedEntry(ctx, ownerUserID, entryID)
	if err != nil {
		return storage.Entry{}, err
	}

	if update.Score != nil {
		if err := validateScore(*update.Score); err != nil {
			return storage.Entry{}, err
		}
	}
	if update.High != nil {
		value, err := validateText("High", *update.High, errors.CodeEntryEmptyHigh)
		if err != nil {
			return storage.Entry{}, err
		}
		update.High = &value
	}
	if update.Low != nil {
		value, err := validateText("Low", *update.Low, errors.CodeEntryEmptyLow)
		if err != nil {
			return storage.Entry{}, err
		}
		update.Low = &value
	}

	stored := storage.EntryUpdate{Score: update.Score, High: update.High, Low: update.Low}
	if err := s.store.UpdateEntry(ctx, entry.ID, stored, s.now()); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return storage.Entry{}, errors.New(errors.CodeEntryNotFound, "entry not found")
		}
		return storage.Entry{}, errors.Wrap(errors.CodeStorageFailure, "update entry", err)
	}

	updated, err := s.store.GetEntry(ctx, entry.ID)
	if err != nil {
		return storage.Entry{}, errors.Wrap(errors.CodeStorageFailure, "update entry", err)
	}
	return updated, nil
}

// DeleteEntry removes an owned entry.
func (s *Service) DeleteEntry(ctx context.Context, ownerUserID string, entryID string) error {
	if s == nil || s.store == nil {
		return errors.New(errors.CodeStorageFailure, "entry store is not configured")
	}
	entry, err := s.ownedEntry(ctx, ownerUserID, entryID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEntry(ctx, entry.ID); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return errors.New(errors.CodeEntryNotFound, "entry not found")
		}
		return errors.Wrap(errors.CodeStorageFailure, "delete entry", err)
	}
	return nil
}

// CurrentStreak derives the consecutive-day streak ending at the most
// recent entry.
func (s *Service) CurrentStreak(ctx context.Context, ownerUserID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, errors.New(errors.CodeStorageFailure, "entry store is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return 0, errors.New(errors.CodeUserNotFound, "owner user id is required")
	}

	days, err := s.store.ListDays(ctx, ownerUserID)
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorageFailure, "current streak", err)
	}
	streak, err := stats.CurrentStreak(days)
	if err != nil {
		return 0, errors.Wrap(errors.CodeEntryDayCollision, "current streak", err)
	}
	return streak, nil
}

// WeeklyAverage computes the mean score over the trailing 7-day window.
// An empty window yields a defined zero with EntriesCount 0.
func (s *Service) WeeklyAverage(ctx context.Context, ownerUserID string) (WeeklyAverage, error) {
	if s == nil || s.store == nil {
		return WeeklyAverage{}, errors.New(errors.CodeStorageFailure, "entry store is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return WeeklyAverage{}, errors.New(errors.CodeUserNotFound, "owner user id is required")
	}

	cutoff := s.now().Add(-weeklyWindow)
	scores, err := s.store.ListScoresSince(ctx, ownerUserID, cutoff)
	if err != nil {
		return WeeklyAverage{}, errors.Wrap(errors.CodeStorageFailure, "weekly average", err)
	}
	summary := stats.WeeklyAverage(scores)
	return WeeklyAverage{Average: summary.Average, EntriesCount: summary.EntriesCount}, nil
}

// TotalEntries returns the owner's all-time entry count.
func (s *Service) TotalEntries(ctx context.Context, ownerUserID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, errors.New(errors.CodeStorageFailure, "entry store is not configured")
	}
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return 0, errors.New(errors.CodeUserNotFound, "owner user id is required")
	}

	total, err := s.store.CountEntries(ctx, ownerUserID)
	if err != nil {
		return 0, errors.Wrap(errors.CodeStorageFailure, "total entries", err)
	}
	return total, nil
}

// RecentEntries returns up to limit entries, newest day first.
func (s *Service) RecentEntries(ctx context.Context, ownerUserID string, limit int) ([]storage.Entry, error) {
	list, err := s.ListEntries(ctx, ownerUserID, ListEntriesRequest{Page: 1, PageSize: limit})
	if err != nil {
		return nil, err
	}
	return list.Entries, nil
}

func (s *Service) ownedEntry(ctx context.Context, ownerUserID string, entryID string) (storage.Entry, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	entryID = strings.TrimSpace(entryID)
	if ownerUserID == "" {
		return storage.Entry{}, errors.New(errors.CodeUserNotFound, "owner user id is required")
	}
	if entryID == "" {
		return storage.Entry{}, errors.New(errors.CodeEntryNotFound, "entry id is required")
	}

	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return storage.Entry{}, errors.New(errors.CodeEntryNotFound, "entry not found")
		}
		return storage.Entry{}, errors.Wrap(errors.CodeStorageFailure, "get entry", err)
	}
	if entry.OwnerUserID != ownerUserID {
		return storage.Entry{}, errors.New(errors.CodeEntryOwnerMismatch, "entry belongs to another user")
	}
	return entry, nil
}

func (s *Service) now() time.Time {
	if s.clock != nil {
		return s.clock().UTC()
	}
	return time.Now().UTC()
}

func validateScore(score int) error {
	if score < minScore || score > maxScore {
		return errors.WithMetadata(
			errors.CodeEntryInvalidScore,
			fmt.Sprintf("score %d is out of range", score),
			map[string]string{
				"Min": strconv.Itoa(minScore),
				"Max": strconv.Itoa(maxScore),
			},
		)
	}
	return nil
}

func validateText(field string, value string, emptyCode errors.Code) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New(emptyCode, strings.ToLower(field)+" is required")
	}
	if utf8.RuneCountInString(value) > maxTextLength {
		return "", errors.WithMetadata(
			errors.CodeEntryTextTooLong,
			fmt.Sprintf("%s exceeds %d characters", strings.ToLower(field), maxTextLength),
			map[string]string{
				"Field": field,
				"Max":   strconv.Itoa(maxTextLength),
			},
		)
	}
	return value, nil
}
