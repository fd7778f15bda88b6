package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/storage"
)

// UserStore provides the account operations the API exposes.
type UserStore interface {
	Create(ctx context.Context, email, displayName string) (*storage.User, error)
	GetByID(ctx context.Context, userID int64) (*storage.User, error)
	GetByEmail(ctx context.Context, email string) (*storage.User, error)
}

type registerUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("invalid request body: %w", herrors.ErrValidation))
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, fmt.Errorf("a valid email is required: %w", herrors.ErrValidation))
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		writeError(w, fmt.Errorf("display_name is required: %w", herrors.ErrValidation))
		return
	}

	// The unique constraint still decides under concurrency; the lookup
	// gives the common duplicate registration a clean answer.
	if _, err := s.users.GetByEmail(r.Context(), req.Email); err == nil {
		writeError(w, fmt.Errorf("email already registered: %w", herrors.ErrConflict))
		return
	} else if !herrors.IsNotFound(err) {
		writeError(w, err)
		return
	}

	user, err := s.users.Create(r.Context(), req.Email, strings.TrimSpace(req.DisplayName))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
