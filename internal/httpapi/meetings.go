package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/meetings"
)

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Title       string     `json:"title"`
		ProfileID   int64      `json:"profile_id"`
		ScheduledAt *time.Time `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("invalid request body: %w", herrors.ErrValidation))
		return
	}

	meeting, err := s.meetings.Create(r.Context(), userID, meetings.CreateParams{
		Title:       body.Title,
		ProfileID:   body.ProfileID,
		ScheduledAt: body.ScheduledAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMeetingResponse(meeting))
}

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.meetings.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]meetingResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMeetingResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	meeting, err := s.meetings.Get(r.Context(), userID, r.PathValue("uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingResponse(meeting))
}

func (s *Server) handleStartMeeting(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	meeting, err := s.meetings.Start(r.Context(), userID, r.PathValue("uuid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingResponse(meeting))
}

func (s *Server) handleEndMeeting(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Transcript string `json:"transcript"`
	}
	// An empty body is a valid end request with no transcript.
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, fmt.Errorf("invalid request body: %w", herrors.ErrValidation))
		return
	}

	meeting, err := s.meetings.End(r.Context(), userID, r.PathValue("uuid"), body.Transcript)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingResponse(meeting))
}
