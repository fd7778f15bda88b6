package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/turns"
)

// maxAudioBytes bounds an uploaded audio turn.
const maxAudioBytes = 25 << 20

type turnPairResponse struct {
	UserTurn  turnResponse `json:"user_turn"`
	AITurn    turnResponse `json:"ai_turn"`
	Duplicate bool         `json:"duplicate"`
}

// handleTextTurn processes a typed chat message and returns both persisted
// turns as JSON.
func (s *Server) handleTextTurn(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("invalid request body: %w", herrors.ErrValidation))
		return
	}

	result, err := s.orchestrator.ProcessTurn(r.Context(), r.PathValue("uuid"), userID, turns.Input{Text: body.Message})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnPairResponse{
		UserTurn:  toTurnResponse(result.UserTurn),
		AITurn:    toTurnResponse(result.AITurn),
		Duplicate: result.Duplicate,
	})
}

// handleAudioTurn processes a spoken message. The response body is the
// synthesized reply audio; the transcript and the persisted turn ids travel
// in headers so the audio stream stays unframed.
func (s *Server) handleAudioTurn(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes))
	if err != nil {
		writeError(w, fmt.Errorf("failed to read audio body: %w", herrors.ErrValidation))
		return
	}

	result, err := s.orchestrator.ProcessTurn(r.Context(), r.PathValue("uuid"), userID, turns.Input{Audio: audio})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("X-Transcript", sanitizeHeader(result.UserTurn.Message))
	w.Header().Set("X-User-Message-ID", strconv.FormatInt(result.UserTurn.ID, 10))
	w.Header().Set("X-AI-Message-ID", strconv.FormatInt(result.AITurn.ID, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Audio)
}

func (s *Server) handleListTurns(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.orchestrator.ListTurns(r.Context(), r.PathValue("uuid"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]turnResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTurnResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTranscribe converts audio to text without persisting a turn.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes))
	if err != nil {
		writeError(w, fmt.Errorf("failed to read audio body: %w", herrors.ErrValidation))
		return
	}

	text, err := s.orchestrator.Transcribe(r.Context(), r.PathValue("uuid"), userID, audio)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcript": text})
}

// handleSynthesize renders text in the meeting's coach voice without
// persisting a turn.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("invalid request body: %w", herrors.ErrValidation))
		return
	}

	audio, err := s.orchestrator.Synthesize(r.Context(), r.PathValue("uuid"), userID, body.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}
