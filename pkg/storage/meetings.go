package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
)

// meetingColumns is the canonical select list for meeting rows.
const meetingColumns = `
	id, uuid, title, created_by, profile_id, status,
	scheduled_at, started_at, ended_at,
	COALESCE(transcript, ''), COALESCE(summary, ''),
	COALESCE(key_points, ''), COALESCE(action_items, ''),
	created_at, updated_at
`

// MeetingRepository provides database operations for meetings.
type MeetingRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewMeetingRepository creates a new meeting repository.
func NewMeetingRepository(pool *pgxpool.Pool, logger logging.Logger) *MeetingRepository {
	return &MeetingRepository{
		pool:   pool,
		logger: logger.With(logging.F("component", "meeting_repository")),
	}
}

func scanMeeting(row pgx.Row) (*Meeting, error) {
	m := &Meeting{}
	err := row.Scan(
		&m.ID, &m.UUID, &m.Title, &m.CreatedBy, &m.ProfileID, &m.Status,
		&m.ScheduledAt, &m.StartedAt, &m.EndedAt,
		&m.Transcript, &m.Summary, &m.KeyPoints, &m.ActionItems,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, herrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan meeting: %w", err)
	}
	return m, nil
}

// NewMeetingParams holds the fields needed to create a meeting.
type NewMeetingParams struct {
	Title       string
	CreatedBy   int64
	ProfileID   int64
	ScheduledAt *time.Time
}

// Create inserts a new meeting in the scheduled state with a fresh UUID.
func (r *MeetingRepository) Create(ctx context.Context, p NewMeetingParams) (*Meeting, error) {
	query := `
		INSERT INTO meetings (uuid, title, created_by, profile_id, status, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING ` + meetingColumns

	row := r.pool.QueryRow(ctx, query,
		uuid.NewString(), p.Title, p.CreatedBy, p.ProfileID, MeetingStatusScheduled, p.ScheduledAt)

	m, err := scanMeeting(row)
	if err != nil {
		r.logger.Error("Failed to create meeting",
			logging.Err(err),
			logging.F("created_by", p.CreatedBy))
		return nil, err
	}

	r.logger.Debug("Meeting created",
		logging.F("meeting_id", m.ID),
		logging.F("uuid", m.UUID))
	return m, nil
}

// GetByUUID retrieves a meeting by its public UUID.
func (r *MeetingRepository) GetByUUID(ctx context.Context, meetingUUID string) (*Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE uuid = $1`
	return scanMeeting(r.pool.QueryRow(ctx, query, meetingUUID))
}

// ListByOwner returns the owner's meetings, newest first.
func (r *MeetingRepository) ListByOwner(ctx context.Context, userID int64) ([]*Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE created_by = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

// FindRecentByTitle returns a meeting with the same owner, profile, and title
// created within the given window, or ErrNotFound. Used to absorb
// double-submitted meeting creations.
func (r *MeetingRepository) FindRecentByTitle(ctx context.Context, userID, profileID int64, title string, window time.Duration) (*Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE created_by = $1 AND profile_id = $2 AND title = $3 AND created_at >= $4
		ORDER BY created_at DESC
		LIMIT 1
	`
	cutoff := time.Now().Add(-window)
	return scanMeeting(r.pool.QueryRow(ctx, query, userID, profileID, title, cutoff))
}

// Start transitions a scheduled meeting to active and stamps started_at.
// The status guard keeps the transition monotonic under concurrency: when the
// guard matches no row the current state is returned instead, so re-invoking
// start on an already-active meeting is a no-op success.
func (r *MeetingRepository) Start(ctx context.Context, meetingID int64) (*Meeting, error) {
	query := `
		UPDATE meetings
		SET status = $2, started_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING ` + meetingColumns

	m, err := scanMeeting(r.pool.QueryRow(ctx, query, meetingID, MeetingStatusActive, MeetingStatusScheduled))
	if err == nil {
		return m, nil
	}
	if !herrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to start meeting %d: %w", meetingID, err)
	}
	return r.getByID(ctx, meetingID)
}

// CompleteParams carries the terminal fields stored when a meeting ends.
type CompleteParams struct {
	Transcript  string
	Summary     string
	KeyPoints   string
	ActionItems string
}

// Complete transitions an active meeting to completed, stamping ended_at and
// storing the transcript and summary fields. Like Start, the status guard
// makes the call idempotent: an already-completed meeting is returned
// unchanged, the supplied transcript ignored.
func (r *MeetingRepository) Complete(ctx context.Context, meetingID int64, p CompleteParams) (*Meeting, error) {
	query := `
		UPDATE meetings
		SET status = $2, ended_at = NOW(), transcript = $3,
		    summary = $4, key_points = $5, action_items = $6, updated_at = NOW()
		WHERE id = $1 AND status = $7
		RETURNING ` + meetingColumns

	m, err := scanMeeting(r.pool.QueryRow(ctx, query,
		meetingID, MeetingStatusCompleted,
		p.Transcript, p.Summary, p.KeyPoints, p.ActionItems,
		MeetingStatusActive))
	if err == nil {
		return m, nil
	}
	if !herrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to complete meeting %d: %w", meetingID, err)
	}
	return r.getByID(ctx, meetingID)
}

func (r *MeetingRepository) getByID(ctx context.Context, meetingID int64) (*Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1`
	return scanMeeting(r.pool.QueryRow(ctx, query, meetingID))
}
