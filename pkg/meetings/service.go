// Package meetings drives the meeting lifecycle: creation with
// double-submit absorption, the scheduled to active to completed
// transitions, and post-meeting summarization.
package meetings

import (
	"context"
	"fmt"
	"strings"
	"time"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/llm"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/storage"
)

// CreateDedupWindow absorbs a repeated create of the same (owner, profile,
// title) into the existing meeting.
const CreateDedupWindow = 5 * time.Minute

// MeetingStore is the slice of meeting persistence the service needs.
type MeetingStore interface {
	Create(ctx context.Context, p storage.NewMeetingParams) (*storage.Meeting, error)
	GetByUUID(ctx context.Context, meetingUUID string) (*storage.Meeting, error)
	ListByOwner(ctx context.Context, userID int64) ([]*storage.Meeting, error)
	FindRecentByTitle(ctx context.Context, userID, profileID int64, title string, window time.Duration) (*storage.Meeting, error)
	Start(ctx context.Context, meetingID int64) (*storage.Meeting, error)
	Complete(ctx context.Context, meetingID int64, p storage.CompleteParams) (*storage.Meeting, error)
}

// ProfileStore resolves the coach profile a meeting is created against.
type ProfileStore interface {
	GetByID(ctx context.Context, profileID int64) (*storage.CoachProfile, error)
}

// Summarizer produces the post-meeting summary fields. It never errors;
// degraded output is its concern.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) llm.Summary
}

// Service provides meeting lifecycle operations.
type Service struct {
	meetings   MeetingStore
	profiles   ProfileStore
	summarizer Summarizer
	logger     logging.Logger
}

// NewService creates a meeting service. summarizer may be nil, in which
// case completed meetings keep blank summary fields.
func NewService(meetings MeetingStore, profiles ProfileStore, summarizer Summarizer, logger logging.Logger) *Service {
	return &Service{
		meetings:   meetings,
		profiles:   profiles,
		summarizer: summarizer,
		logger:     logger.With(logging.F("component", "meeting_service")),
	}
}

// CreateParams are the caller-supplied meeting fields.
type CreateParams struct {
	Title       string
	ProfileID   int64
	ScheduledAt *time.Time
}

// Create schedules a new meeting against one of the user's coach profiles.
// An identical create (same owner, profile, title) within the dedup window
// returns the existing meeting instead of a second row.
func (s *Service) Create(ctx context.Context, userID int64, p CreateParams) (*storage.Meeting, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, fmt.Errorf("meeting title is required: %w", herrors.ErrValidation)
	}

	profile, err := s.profiles.GetByID(ctx, p.ProfileID)
	if err != nil {
		return nil, err
	}
	if profile.CreatedBy != userID {
		return nil, fmt.Errorf("profile %d: %w", p.ProfileID, herrors.ErrForbidden)
	}

	existing, err := s.meetings.FindRecentByTitle(ctx, userID, p.ProfileID, title, CreateDedupWindow)
	if err == nil {
		s.logger.Info("Duplicate meeting creation absorbed",
			logging.F("meeting_id", existing.ID),
			logging.F("title", title))
		return existing, nil
	}
	if !herrors.IsNotFound(err) {
		return nil, err
	}

	return s.meetings.Create(ctx, storage.NewMeetingParams{
		Title:       title,
		CreatedBy:   userID,
		ProfileID:   p.ProfileID,
		ScheduledAt: p.ScheduledAt,
	})
}

// Get returns a meeting the user owns, looked up by public UUID.
func (s *Service) Get(ctx context.Context, userID int64, meetingUUID string) (*storage.Meeting, error) {
	m, err := s.meetings.GetByUUID(ctx, meetingUUID)
	if err != nil {
		return nil, err
	}
	if m.CreatedBy != userID {
		return nil, fmt.Errorf("meeting %s: %w", meetingUUID, herrors.ErrForbidden)
	}
	return m, nil
}

// List returns the user's meetings, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]*storage.Meeting, error) {
	return s.meetings.ListByOwner(ctx, userID)
}

// Start moves a meeting to active. Starting an already-active meeting is a
// no-op success; starting a completed or cancelled one is an invalid state.
func (s *Service) Start(ctx context.Context, userID int64, meetingUUID string) (*storage.Meeting, error) {
	m, err := s.Get(ctx, userID, meetingUUID)
	if err != nil {
		return nil, err
	}

	switch m.Status {
	case storage.MeetingStatusScheduled, storage.MeetingStatusActive:
	default:
		return nil, fmt.Errorf("cannot start meeting in status %s: %w", m.Status, herrors.ErrInvalidState)
	}

	started, err := s.meetings.Start(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Meeting started",
		logging.F("meeting_id", started.ID),
		logging.F("uuid", started.UUID))
	return started, nil
}

// End completes an active meeting, storing the transcript and derived
// summary fields. A non-empty transcript triggers summarization; a failed
// or degraded summary never blocks completion. Ending an already-completed
// meeting is a no-op success that ignores the supplied transcript.
func (s *Service) End(ctx context.Context, userID int64, meetingUUID, transcript string) (*storage.Meeting, error) {
	m, err := s.Get(ctx, userID, meetingUUID)
	if err != nil {
		return nil, err
	}

	switch m.Status {
	case storage.MeetingStatusCompleted:
		return m, nil
	case storage.MeetingStatusActive:
	default:
		return nil, fmt.Errorf("cannot end meeting in status %s: %w", m.Status, herrors.ErrInvalidState)
	}

	params := storage.CompleteParams{Transcript: transcript}
	if strings.TrimSpace(transcript) != "" && s.summarizer != nil {
		summary := s.summarizer.Summarize(ctx, transcript)
		params.Summary = summary.Summary
		params.KeyPoints = summary.KeyPoints
		params.ActionItems = summary.ActionItems
	}

	completed, err := s.meetings.Complete(ctx, m.ID, params)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Meeting completed",
		logging.F("meeting_id", completed.ID),
		logging.F("uuid", completed.UUID),
		logging.F("transcript_chars", len(transcript)))
	return completed, nil
}
