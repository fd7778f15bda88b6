package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/voice"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// ProfileRepository provides database operations for coach profiles.
type ProfileRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewProfileRepository creates a new coach profile repository.
func NewProfileRepository(pool *pgxpool.Pool, logger logging.Logger) *ProfileRepository {
	return &ProfileRepository{
		pool:   pool,
		logger: logger.With(logging.F("component", "profile_repository")),
	}
}

const profileColumns = `
	id, created_by, coach_name, coach_role, coach_description, domain_expertise,
	gender, COALESCE(user_notes, ''), COALESCE(kb_content, ''), COALESCE(kb_filename, ''),
	created_at, updated_at
`

func scanProfile(row pgx.Row) (*CoachProfile, error) {
	p := &CoachProfile{}
	var gender string
	err := row.Scan(
		&p.ID, &p.CreatedBy, &p.CoachName, &p.CoachRole, &p.CoachDescription, &p.DomainExpertise,
		&gender, &p.UserNotes, &p.KBContent, &p.KBFilename,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, herrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	// Legacy rows may predate the canonical gender constraint; never trust
	// a stored value without re-normalizing.
	p.Gender = voice.Normalize(gender)
	return p, nil
}

// NewProfileParams holds the fields needed to create a coach profile.
type NewProfileParams struct {
	CreatedBy        int64
	CoachName        string
	CoachRole        string
	CoachDescription string
	DomainExpertise  string
	Gender           voice.Category
	UserNotes        string
}

// Create inserts a new coach profile. A (owner, name) collision returns
// ErrConflict.
func (r *ProfileRepository) Create(ctx context.Context, p NewProfileParams) (*CoachProfile, error) {
	query := `
		INSERT INTO coach_profiles (
			created_by, coach_name, coach_role, coach_description,
			domain_expertise, gender, user_notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + profileColumns

	row := r.pool.QueryRow(ctx, query,
		p.CreatedBy, p.CoachName, p.CoachRole, p.CoachDescription,
		p.DomainExpertise, string(p.Gender), nullIfEmpty(p.UserNotes))

	profile, err := scanProfile(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("profile %q already exists: %w", p.CoachName, herrors.ErrConflict)
		}
		r.logger.Error("Failed to create profile",
			logging.Err(err),
			logging.F("created_by", p.CreatedBy))
		return nil, err
	}

	r.logger.Debug("Profile created",
		logging.F("profile_id", profile.ID),
		logging.F("created_by", p.CreatedBy))
	return profile, nil
}

// GetByID retrieves a coach profile by its internal id.
func (r *ProfileRepository) GetByID(ctx context.Context, profileID int64) (*CoachProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM coach_profiles WHERE id = $1`
	return scanProfile(r.pool.QueryRow(ctx, query, profileID))
}

// ListByOwner returns the owner's coach profiles, newest first.
func (r *ProfileRepository) ListByOwner(ctx context.Context, userID int64) ([]*CoachProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM coach_profiles WHERE created_by = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*CoachProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdateProfileParams holds the mutable coach profile fields. Nil pointers
// leave the stored value unchanged.
type UpdateProfileParams struct {
	CoachName        *string
	CoachRole        *string
	CoachDescription *string
	DomainExpertise  *string
	Gender           *voice.Category
	UserNotes        *string
}

// Update applies the non-nil fields to an existing profile.
func (r *ProfileRepository) Update(ctx context.Context, profileID int64, p UpdateProfileParams) (*CoachProfile, error) {
	query := `
		UPDATE coach_profiles
		SET coach_name = COALESCE($2, coach_name),
		    coach_role = COALESCE($3, coach_role),
		    coach_description = COALESCE($4, coach_description),
		    domain_expertise = COALESCE($5, domain_expertise),
		    gender = COALESCE($6, gender),
		    user_notes = COALESCE($7, user_notes),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns

	var gender *string
	if p.Gender != nil {
		g := string(*p.Gender)
		gender = &g
	}

	profile, err := scanProfile(r.pool.QueryRow(ctx, query,
		profileID, p.CoachName, p.CoachRole, p.CoachDescription,
		p.DomainExpertise, gender, p.UserNotes))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("profile name taken: %w", herrors.ErrConflict)
		}
		return nil, err
	}
	return profile, nil
}

// AttachKnowledgeBase stores extracted knowledge-base text and its source
// filename on a profile.
func (r *ProfileRepository) AttachKnowledgeBase(ctx context.Context, profileID int64, content, filename string) (*CoachProfile, error) {
	query := `
		UPDATE coach_profiles
		SET kb_content = $2, kb_filename = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns

	return scanProfile(r.pool.QueryRow(ctx, query, profileID, content, filename))
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
