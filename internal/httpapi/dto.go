package httpapi

import (
	"time"

	"github.com/KarthikeyanM3011/Hudle.ai/pkg/storage"
)

type userResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserResponse(u *storage.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

type profileResponse struct {
	ID               int64     `json:"id"`
	CoachName        string    `json:"coach_name"`
	CoachRole        string    `json:"coach_role"`
	CoachDescription string    `json:"coach_description"`
	DomainExpertise  string    `json:"domain_expertise"`
	Gender           string    `json:"gender"`
	UserNotes        string    `json:"user_notes,omitempty"`
	KBFilename       string    `json:"kb_filename,omitempty"`
	HasKnowledgeBase bool      `json:"has_knowledge_base"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toProfileResponse(p *storage.CoachProfile) profileResponse {
	return profileResponse{
		ID:               p.ID,
		CoachName:        p.CoachName,
		CoachRole:        p.CoachRole,
		CoachDescription: p.CoachDescription,
		DomainExpertise:  p.DomainExpertise,
		Gender:           string(p.Gender),
		UserNotes:        p.UserNotes,
		KBFilename:       p.KBFilename,
		HasKnowledgeBase: p.KBContent != "",
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

type meetingResponse struct {
	UUID        string     `json:"uuid"`
	Title       string     `json:"title"`
	ProfileID   int64      `json:"profile_id"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Transcript  string     `json:"transcript,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	KeyPoints   string     `json:"key_points,omitempty"`
	ActionItems string     `json:"action_items,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toMeetingResponse(m *storage.Meeting) meetingResponse {
	return meetingResponse{
		UUID:        m.UUID,
		Title:       m.Title,
		ProfileID:   m.ProfileID,
		Status:      string(m.Status),
		ScheduledAt: m.ScheduledAt,
		StartedAt:   m.StartedAt,
		EndedAt:     m.EndedAt,
		Transcript:  m.Transcript,
		Summary:     m.Summary,
		KeyPoints:   m.KeyPoints,
		ActionItems: m.ActionItems,
		CreatedAt:   m.CreatedAt,
	}
}

type turnResponse struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	IsUser    bool      `json:"is_user"`
	CreatedAt time.Time `json:"created_at"`
}

func toTurnResponse(t *storage.ChatTurn) turnResponse {
	return turnResponse{
		ID:        t.ID,
		Message:   t.Message,
		IsUser:    t.IsUser,
		CreatedAt: t.CreatedAt,
	}
}
