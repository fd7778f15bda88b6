// Package profiles implements coach profile management: creation with an
// optional PDF knowledge base, reads gated by ownership, and updates that
// keep the voice category canonical.
package profiles

import (
	"context"
	"fmt"
	"strings"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/pdfextract"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/storage"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/voice"
)

// Store is the slice of profile persistence the service needs.
type Store interface {
	Create(ctx context.Context, p storage.NewProfileParams) (*storage.CoachProfile, error)
	GetByID(ctx context.Context, profileID int64) (*storage.CoachProfile, error)
	ListByOwner(ctx context.Context, userID int64) ([]*storage.CoachProfile, error)
	Update(ctx context.Context, profileID int64, p storage.UpdateProfileParams) (*storage.CoachProfile, error)
	AttachKnowledgeBase(ctx context.Context, profileID int64, content, filename string) (*storage.CoachProfile, error)
}

// Service provides coach profile operations.
type Service struct {
	store  Store
	logger logging.Logger
}

// NewService creates a profile service.
func NewService(store Store, logger logging.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With(logging.F("component", "profile_service")),
	}
}

// CreateParams are the caller-supplied profile fields. Gender arrives as
// free text and is normalized before it is stored.
type CreateParams struct {
	CoachName        string
	CoachRole        string
	CoachDescription string
	DomainExpertise  string
	Gender           string
	UserNotes        string

	// Document is an optional PDF whose text becomes the knowledge base.
	Document         []byte
	DocumentFilename string
}

// Create stores a new coach profile for the user. A failed knowledge-base
// extraction does not fail the create; the profile is stored without one.
func (s *Service) Create(ctx context.Context, userID int64, p CreateParams) (*storage.CoachProfile, error) {
	if strings.TrimSpace(p.CoachName) == "" {
		return nil, fmt.Errorf("coach name is required: %w", herrors.ErrValidation)
	}
	if strings.TrimSpace(p.CoachRole) == "" {
		return nil, fmt.Errorf("coach role is required: %w", herrors.ErrValidation)
	}

	profile, err := s.store.Create(ctx, storage.NewProfileParams{
		CreatedBy:        userID,
		CoachName:        strings.TrimSpace(p.CoachName),
		CoachRole:        strings.TrimSpace(p.CoachRole),
		CoachDescription: p.CoachDescription,
		DomainExpertise:  p.DomainExpertise,
		Gender:           voice.Normalize(p.Gender),
		UserNotes:        p.UserNotes,
	})
	if err != nil {
		return nil, err
	}

	if len(p.Document) > 0 {
		text, err := pdfextract.Text(p.Document)
		if err != nil {
			s.logger.Warn("Knowledge base extraction failed, profile saved without it",
				logging.Err(err),
				logging.F("profile_id", profile.ID),
				logging.F("filename", p.DocumentFilename))
			return profile, nil
		}
		updated, err := s.store.AttachKnowledgeBase(ctx, profile.ID, text, p.DocumentFilename)
		if err != nil {
			s.logger.Warn("Failed to store knowledge base",
				logging.Err(err),
				logging.F("profile_id", profile.ID))
			return profile, nil
		}
		profile = updated
	}
	return profile, nil
}

// Get returns a profile the user owns.
func (s *Service) Get(ctx context.Context, userID, profileID int64) (*storage.CoachProfile, error) {
	profile, err := s.store.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.CreatedBy != userID {
		return nil, fmt.Errorf("profile %d: %w", profileID, herrors.ErrForbidden)
	}
	return profile, nil
}

// List returns the user's profiles, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]*storage.CoachProfile, error) {
	return s.store.ListByOwner(ctx, userID)
}

// UpdateParams are the mutable profile fields; nil leaves a field unchanged.
// A non-nil Gender is normalized before storage.
type UpdateParams struct {
	CoachName        *string
	CoachRole        *string
	CoachDescription *string
	DomainExpertise  *string
	Gender           *string
	UserNotes        *string
}

// Update applies the supplied fields to a profile the user owns.
func (s *Service) Update(ctx context.Context, userID, profileID int64, p UpdateParams) (*storage.CoachProfile, error) {
	if _, err := s.Get(ctx, userID, profileID); err != nil {
		return nil, err
	}

	params := storage.UpdateProfileParams{
		CoachName:        p.CoachName,
		CoachRole:        p.CoachRole,
		CoachDescription: p.CoachDescription,
		DomainExpertise:  p.DomainExpertise,
		UserNotes:        p.UserNotes,
	}
	if p.Gender != nil {
		g := voice.Normalize(*p.Gender)
		params.Gender = &g
	}
	return s.store.Update(ctx, profileID, params)
}

// AttachKnowledgeBase extracts text from a PDF and stores it on a profile
// the user owns. Unlike Create, an explicit attach fails loudly when the
// document yields no text.
func (s *Service) AttachKnowledgeBase(ctx context.Context, userID, profileID int64, doc []byte, filename string) (*storage.CoachProfile, error) {
	if _, err := s.Get(ctx, userID, profileID); err != nil {
		return nil, err
	}
	text, err := pdfextract.Text(doc)
	if err != nil {
		return nil, err
	}
	return s.store.AttachKnowledgeBase(ctx, profileID, text, filename)
}
