package journal

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/louisbranch/dayline/internal/errors"
	"github.com/louisbranch/dayline/internal/services/journal/storage"
)

type fakeEntryStore struct {
	entries map[string]storage.Entry
}

func newFakeEntryStore() *fakeEntryStore {
	return &fakeEntryStore{entries: make(map[string]storage.Entry)}
}

func (f *fakeEntryStore) InsertEntry(ctx context.Context, entry storage.Entry) error {
	for _, existing := range f.entries {
		if existing.OwnerUserID == entry.OwnerUserID && existing.Day.Equal(entry.Day) {
			return storage.ErrAlreadyExists
		}
	}
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeEntryStore) GetEntry(ctx context.Context, entryID string) (storage.Entry, error) {
	entry, ok := f.entries[entryID]
	if !ok {
		return storage.Entry{}, storage.ErrNotFound
	}
	return entry, nil
}

func (f *fakeEntryStore) owned(ownerUserID string) []storage.Entry {
	var entries []storage.Entry
	for _, entry := range f.entries {
		if entry.OwnerUserID == ownerUserID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Day.After(entries[j].Day)
	})
	return entries
}

func (f *fakeEntryStore) ListEntries(ctx context.Context, ownerUserID string, filter storage.ListFilter) (storage.EntryPage, error) {
	var matched []storage.Entry
	for _, entry := range f.owned(ownerUserID) {
		if filter.Start != nil && entry.Day.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && entry.Day.After(*filter.End) {
			continue
		}
		matched = append(matched, entry)
	}
	page := storage.EntryPage{Total: len(matched)}
	for i := filter.Offset; i < len(matched) && len(page.Entries) < filter.Limit; i++ {
		page.Entries = append(page.Entries, matched[i])
	}
	return page, nil
}

func (f *fakeEntryStore) UpdateEntry(ctx context.Context, entryID string, update storage.EntryUpdate, updatedAt time.Time) error {
	entry, ok := f.entries[entryID]
	if !ok {
		return storage.ErrNotFound
	}
	if update.Score != nil {
		entry.Score = *update.Score
	}
	if update.High != nil {
		entry.High = *update.High
	}
	if update.Low != nil {
		entry.Low = *update.Low
	}
	entry.UpdatedAt = updatedAt
	f.entries[entryID] = entry
	return nil
}

func (f *fakeEntryStore) DeleteEntry(ctx context.Context, entryID string) error {
	if _, ok := f.entries[entryID]; !ok {
		return storage.ErrNotFound
	}
	delete(f.entries, entryID)
	return nil
}

func (f *fakeEntryStore) ListDays(ctx context.Context, ownerUserID string) ([]time.Time, error) {
	var days []time.Time
	for _, entry := range f.owned(ownerUserID) {
		days = append(days, entry.Day)
	}
	return days, nil
}

func (f *fakeEntryStore) ListScoresSince(ctx context.Context, ownerUserID string, cutoff time.Time) ([]int, error) {
	var scores []int
	for _, entry := range f.owned(ownerUserID) {
		if entry.Day.Before(cutoff) {
			continue
		}
		scores = append(scores, entry.Score)
	}
	return scores, nil
}

func (f *fakeEntryStore) CountEntries(ctx context.Context, ownerUserID string) (int, error) {
	return len(f.owned(ownerUserID)), nil
}

var _ storage.EntryStore = (*fakeEntryStore)(nil)

func newTestService(store storage.EntryStore, now time.Time) *Service {
	svc := NewService(store)
	svc.clock = func() time.Time { return now }
	return svc
}

func TestCreateEntryNormalizesDayToMidnight(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 15, 30, 0, 0, time.UTC)
	svc := newTestService(store, now)

	entry, err := svc.CreateEntry(context.Background(), "user-1", now, 8, "shipped the release", "slow afternoon")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	want := time.Date(2026, time.February, 22, 0, 0, 0, 0, time.UTC)
	if !entry.Day.Equal(want) {
		t.Fatalf("day = %v, want %v", entry.Day, want)
	}
	if entry.ID == "" {
		t.Fatal("expected generated entry id")
	}
}

func TestCreateEntryDuplicateDayDiffersOnlyInTimeOfDay(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 8, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	if _, err := svc.CreateEntry(context.Background(), "user-1", now, 8, "morning run", "rain"); err != nil {
		t.Fatalf("create first entry: %v", err)
	}
	_, err := svc.CreateEntry(context.Background(), "user-1", now.Add(10*time.Hour), 5, "evening walk", "tired")
	if !errors.IsCode(err, errors.CodeEntryDuplicateDay) {
		t.Fatalf("err = %v, want code %v", err, errors.CodeEntryDuplicateDay)
	}
	if len(store.entries) != 1 {
		t.Fatalf("stored entries = %d, want 1 after duplicate rejection", len(store.entries))
	}
}

func TestCreateEntryDefaultsDayToNow(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 23, 59, 0, 0, time.UTC)
	svc := newTestService(store, now)

	entry, err := svc.CreateEntry(context.Background(), "user-1", time.Time{}, 7, "good food", "late start")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	want := time.Date(2026, time.February, 22, 0, 0, 0, 0, time.UTC)
	if !entry.Day.Equal(want) {
		t.Fatalf("day = %v, want %v", entry.Day, want)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)
	longText := make([]byte, 501)
	for i := range longText {
		longText[i] = 'a'
	}

	cases := []struct {
		name  string
		score int
		high  string
		low   string
		want  errors.Code
	}{
		{"score too low", 0, "high", "low", errors.CodeEntryInvalidScore},
		{"score too high", 11, "high", "low", errors.CodeEntryInvalidScore},
		{"empty high", 5, "  ", "low", errors.CodeEntryEmptyHigh},
		{"empty low", 5, "high", "", errors.CodeEntryEmptyLow},
		{"high too long", 5, string(longText), "low", errors.CodeEntryTextTooLong},
		{"low too long", 5, "high", string(longText), errors.CodeEntryTextTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateEntry(context.Background(), "user-1", now, tc.score, tc.high, tc.low)
			if !errors.IsCode(err, tc.want) {
				t.Fatalf("err = %v, want code %v", err, tc.want)
			}
		})
	}
}

func TestGetEntryEnforcesOwnership(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	entry, err := svc.CreateEntry(context.Background(), "user-1", now, 8, "high", "low")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	if _, err := svc.GetEntry(context.Background(), "user-2", entry.ID); !errors.IsCode(err, errors.CodeEntryOwnerMismatch) {
		t.Fatalf("err = %v, want code %v", err, errors.CodeEntryOwnerMismatch)
	}
	if _, err := svc.GetEntry(context.Background(), "user-1", "missing"); !errors.IsCode(err, errors.CodeEntryNotFound) {
		t.Fatalf("err = %v, want code %v", err, errors.CodeEntryNotFound)
	}
	got, err := svc.GetEntry(context.Background(), "user-1", entry.ID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if got.ID != entry.ID {
		t.Fatalf("entry id = %q, want %q", got.ID, entry.ID)
	}
}

func seedDays(t *testing.T, svc *Service, owner string, days ...time.Time) {
	t.Helper()
	for _, day := range days {
		if _, err := svc.CreateEntry(context.Background(), owner, day, 7, "high", "low"); err != nil {
			t.Fatalf("seed entry %v: %v", day, err)
		}
	}
}

func TestListEntriesPaginationAndOrder(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)
	seedDays(t, svc, "user-1",
		now,
		now.AddDate(0, 0, -1),
		now.AddDate(0, 0, -2),
		now.AddDate(0, 0, -3),
		now.AddDate(0, 0, -4),
	)

	list, err := svc.ListEntries(context.Background(), "user-1", ListEntriesRequest{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if list.Total != 5 {
		t.Fatalf("total = %d, want 5", list.Total)
	}
	if list.Pages != 3 {
		t.Fatalf("pages = %d, want 3", list.Pages)
	}
	if len(list.Entries) != 2 {
		t.Fatalf("entries len = %d, want 2", len(list.Entries))
	}
	wantFirst := time.Date(2026, time.February, 20, 0, 0, 0, 0, time.UTC)
	if !list.Entries[0].Day.Equal(wantFirst) {
		t.Fatalf("first entry day = %v, want %v", list.Entries[0].Day, wantFirst)
	}
	if !list.Entries[0].Day.After(list.Entries[1].Day) {
		t.Fatal("entries must be ordered newest day first")
	}
}

func TestListEntriesDateRangeInclusive(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)
	seedDays(t, svc, "user-1", now, now.AddDate(0, 0, -1), now.AddDate(0, 0, -2))

	start := time.Date(2026, time.February, 20, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.February, 21, 18, 0, 0, 0, time.UTC)
	list, err := svc.ListEntries(context.Background(), "user-1", ListEntriesRequest{Start: &start, End: &end})
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("total = %d, want 2 entries inside inclusive range", list.Total)
	}
}

func TestListEntriesRejectsInvertedRange(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	start := now
	end := now.AddDate(0, 0, -3)
	_, err := svc.ListEntries(context.Background(), "user-1", ListEntriesRequest{Start: &start, End: &end})
	if !errors.IsCode(err, errors.CodeEntryInvalidRange) {
		t.Fatalf("err = %v, want code %v", err, errors.CodeEntryInvalidRange)
	}
}

func TestUpdateEntryPartialFields(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	entry, err := svc.CreateEntry(context.Background(), "user-1", now, 8, "original high", "original low")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	score := 3
	updated, err := svc.UpdateEntry(context.Background(), "user-1", entry.ID, EntryUpdate{Score: &score})
	if err != nil {
		t.Fatalf("update entry: %v", err)
	}
	if updated.Score != 3 {
		t.Fatalf("score = %d, want 3", updated.Score)
	}
	if updated.High != "original high" || updated.Low != "original low" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestUpdateEntryOwnershipAndValidation(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	entry, err := svc.CreateEntry(context.Background(), "user-1", now, 8, "high", "low")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	score := 5
	if _, err := svc.UpdateEntry(context.Background(), "user-2", entry.ID, EntryUpdate{Score: &score}); !errors.IsCode(err, errors.CodeEntryOwnerMismatch) {
		t.Fatalf("err = %v, want code %v", err, errors.CodeEntryOwnerMismatch)
	}
	bad := 42
	if _, err := svc.UpdateEntry(context.Background(), "user-1", entry.ID, EntryUpdate{Score: &bad}); !errors.IsCode(err, errors.CodeEntryInvalidScore) {
		t.Fatalf("err = %v, want code %v", err, errors.CodeEntryInvalidScore)
	}
}

func TestDeleteEntry(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	entry, err := svc.CreateEntry(context.Background(), "user-1", now, 8, "high", "low")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}

	if err := svc.DeleteEntry(context.Background(), "user-2", entry.ID); !errors.IsCode(err, errors.CodeEntryOwnerMismatch) {
		t.Fatalf("err = %v, want code %v", err, errors.CodeEntryOwnerMismatch)
	}
	if err := svc.DeleteEntry(context.Background(), "user-1", entry.ID); err != nil {
		t.Fatalf("delete entry: %v", err)
	}
	if err := svc.DeleteEntry(context.Background(), "user-1", entry.ID); !errors.IsCode(err, errors.CodeEntryNotFound) {
		t.Fatalf("err = %v, want code %v", err, errors.CodeEntryNotFound)
	}
}

func TestCurrentStreak(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	streak, err := svc.CurrentStreak(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("current streak: %v", err)
	}
	if streak != 0 {
		t.Fatalf("streak = %d, want 0 for empty history", streak)
	}

	seedDays(t, svc, "user-1", now, now.AddDate(0, 0, -1), now.AddDate(0, 0, -2), now.AddDate(0, 0, -4))
	streak, err = svc.CurrentStreak(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("current streak: %v", err)
	}
	if streak != 3 {
		t.Fatalf("streak = %d, want 3 up to the first gap", streak)
	}
}

func TestWeeklyAverageWindow(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	scores := []int{8, 6, 10}
	for i, score := range scores {
		day := now.AddDate(0, 0, -i)
		if _, err := svc.CreateEntry(context.Background(), "user-1", day, score, "high", "low"); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}
	// Outside the trailing window; must not contribute.
	if _, err := svc.CreateEntry(context.Background(), "user-1", now.AddDate(0, 0, -10), 1, "high", "low"); err != nil {
		t.Fatalf("seed old entry: %v", err)
	}

	average, err := svc.WeeklyAverage(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("weekly average: %v", err)
	}
	if average.Average != 8.0 {
		t.Fatalf("average = %v, want 8.0", average.Average)
	}
	if average.EntriesCount != 3 {
		t.Fatalf("entries count = %d, want 3", average.EntriesCount)
	}
}

func TestWeeklyAverageEmptyWindowIsZeroWithZeroCount(t *testing.T) {
	store := newFakeEntryStore()
	now := time.Date(2026, time.February, 22, 12, 0, 0, 0, time.UTC)
	svc := newTestService(store, now)

	average, err := svc.WeeklyAverage(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("weekly average: %v", err)
	}
	if average.Average != 0 || average.EntriesCount != 0 {
		t.Fatalf("average = %+v, want zero average and zero count", average)
	}
}
