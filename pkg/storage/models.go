// Package storage provides PostgreSQL persistence for users, coach profiles,
// meetings, and chat turns.
package storage

import (
	"time"

	"github.com/KarthikeyanM3011/Hudle.ai/pkg/voice"
)

// MeetingStatus represents the lifecycle state of a meeting.
type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusActive    MeetingStatus = "active"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// User is a registered account. Authentication mechanics live outside this
// service; the backend only needs identity and ownership.
type User struct {
	ID          int64
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// CoachProfile describes an AI coach persona owned by a user.
type CoachProfile struct {
	ID               int64
	CreatedBy        int64
	CoachName        string
	CoachRole        string
	CoachDescription string
	DomainExpertise  string
	Gender           voice.Category
	UserNotes        string
	KBContent        string
	KBFilename       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Meeting is a coaching session between a user and a coach profile.
// The UUID is the externally exposed identifier; the sequential ID stays
// internal.
type Meeting struct {
	ID          int64
	UUID        string
	Title       string
	CreatedBy   int64
	ProfileID   int64
	Status      MeetingStatus
	ScheduledAt *time.Time
	StartedAt   *time.Time
	EndedAt     *time.Time
	Transcript  string
	Summary     string
	KeyPoints   string
	ActionItems string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ChatTurn is one chat message within a meeting, authored either by the user
// or by the AI coach. Turns are immutable once created.
type ChatTurn struct {
	ID        int64
	MeetingID int64
	Message   string
	IsUser    bool
	CreatedAt time.Time
}
