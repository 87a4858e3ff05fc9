// Package profile assembles read-only public profiles from the user
// directory and journal stats.
package profile

import (
	"context"

	"github.com/louisbranch/dayline/internal/errors"
	"github.com/louisbranch/dayline/internal/services/journal"
	journalstorage "github.com/louisbranch/dayline/internal/services/journal/storage"
	socialstorage "github.com/louisbranch/dayline/internal/services/social/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const recentEntriesLimit = 5

// UsernameResolver resolves usernames against the user directory.
type UsernameResolver interface {
	ResolveUsername(ctx context.Context, username string) (socialstorage.UserProfile, error)
}

// JournalReader exposes the journal projections a public profile needs.
type JournalReader interface {
	RecentEntries(ctx context.Context, ownerUserID string, limit int) ([]journalstorage.Entry, error)
	CurrentStreak(ctx context.Context, ownerUserID string) (int, error)
	WeeklyAverage(ctx context.Context, ownerUserID string) (journal.WeeklyAverage, error)
	TotalEntries(ctx context.Context, ownerUserID string) (int, error)
}

// PublicProfile is the read-only view of one user's journal activity.
type PublicProfile struct {
	User          socialstorage.UserProfile
	RecentEntries []journalstorage.Entry
	CurrentStreak int
	WeeklyAverage journal.WeeklyAverage
	TotalEntries  int
}

// Service reads public profiles. It never mutates state.
type Service struct {
	directory UsernameResolver
	journal   JournalReader
	tracer    trace.Tracer
}

// NewService creates a profile service over the directory and journal.
func NewService(directory UsernameResolver, journalReader JournalReader) *Service {
	return &Service{
		directory: directory,
		journal:   journalReader,
		tracer:    otel.Tracer("dayline.profile"),
	}
}

// GetPublicProfile resolves a username and gathers the user's recent
// entries, current streak, weekly average, and all-time entry count.
func (s *Service) GetPublicProfile(ctx context.Context, username string) (PublicProfile, error) {
	if s == nil || s.directory == nil || s.journal == nil {
		return PublicProfile{}, errors.New(errors.CodeStorageFailure, "profile service is not configured")
	}

	ctx, span := s.tracer.Start(ctx, "profile.GetPublicProfile",
		trace.WithAttributes(attribute.String("profile.username", username)))
	defer span.End()

	user, err := s.directory.ResolveUsername(ctx, username)
	if err != nil {
		return PublicProfile{}, spanError(span, err)
	}

	recent, err := s.journal.RecentEntries(ctx, user.UserID, recentEntriesLimit)
	if err != nil {
		return PublicProfile{}, spanError(span, err)
	}
	streak, err := s.journal.CurrentStreak(ctx, user.UserID)
	if err != nil {
		return PublicProfile{}, spanError(span, err)
	}
	average, err := s.journal.WeeklyAverage(ctx, user.UserID)
	if err != nil {
		return PublicProfile{}, spanError(span, err)
	}
	total, err := s.journal.TotalEntries(ctx, user.UserID)
	if err != nil {
		return PublicProfile{}, spanError(span, err)
	}

	return PublicProfile{
		User:          user,
		RecentEntries: recent,
		CurrentStreak: streak,
		WeeklyAverage: average,
		TotalEntries:  total,
	}, nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
