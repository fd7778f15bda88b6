package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/profiles"
)

// maxUploadBytes bounds multipart profile uploads.
const maxUploadBytes = 12 << 20

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %w", name, herrors.ErrValidation)
	}
	return id, nil
}

// handleCreateProfile accepts either a JSON body or multipart form data;
// the multipart form may carry a "document" PDF that becomes the profile's
// knowledge base.
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var params profiles.CreateParams
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, fmt.Errorf("invalid multipart form: %w", herrors.ErrValidation))
			return
		}
		params = profiles.CreateParams{
			CoachName:        r.FormValue("coach_name"),
			CoachRole:        r.FormValue("coach_role"),
			CoachDescription: r.FormValue("coach_description"),
			DomainExpertise:  r.FormValue("domain_expertise"),
			Gender:           r.FormValue("gender"),
			UserNotes:        r.FormValue("user_notes"),
		}
		if file, header, err := r.FormFile("document"); err == nil {
			defer func() { _ = file.Close() }()
			doc, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
			if err != nil {
				writeError(w, fmt.Errorf("failed to read document: %w", herrors.ErrValidation))
				return
			}
			params.Document = doc
			params.DocumentFilename = header.Filename
		}
	} else {
		var body struct {
			CoachName        string `json:"coach_name"`
			CoachRole        string `json:"coach_role"`
			CoachDescription string `json:"coach_description"`
			DomainExpertise  string `json:"domain_expertise"`
			Gender           string `json:"gender"`
			UserNotes        string `json:"user_notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, fmt.Errorf("invalid request body: %w", herrors.ErrValidation))
			return
		}
		params = profiles.CreateParams{
			CoachName:        body.CoachName,
			CoachRole:        body.CoachRole,
			CoachDescription: body.CoachDescription,
			DomainExpertise:  body.DomainExpertise,
			Gender:           body.Gender,
			UserNotes:        body.UserNotes,
		}
	}

	profile, err := s.profiles.Create(r.Context(), userID, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileResponse(profile))
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.profiles.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]profileResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProfileResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	profileID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	profile, err := s.profiles.Get(r.Context(), userID, profileID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	profileID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		CoachName        *string `json:"coach_name"`
		CoachRole        *string `json:"coach_role"`
		CoachDescription *string `json:"coach_description"`
		DomainExpertise  *string `json:"domain_expertise"`
		Gender           *string `json:"gender"`
		UserNotes        *string `json:"user_notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("invalid request body: %w", herrors.ErrValidation))
		return
	}

	profile, err := s.profiles.Update(r.Context(), userID, profileID, profiles.UpdateParams{
		CoachName:        body.CoachName,
		CoachRole:        body.CoachRole,
		CoachDescription: body.CoachDescription,
		DomainExpertise:  body.DomainExpertise,
		Gender:           body.Gender,
		UserNotes:        body.UserNotes,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) handleAttachKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	profileID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, fmt.Errorf("invalid multipart form: %w", herrors.ErrValidation))
		return
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, fmt.Errorf("document file is required: %w", herrors.ErrValidation))
		return
	}
	defer func() { _ = file.Close() }()

	doc, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, fmt.Errorf("failed to read document: %w", herrors.ErrValidation))
		return
	}

	profile, err := s.profiles.AttachKnowledgeBase(r.Context(), userID, profileID, doc, header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}
