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
)

// UserRepository provides database operations for user accounts.
type UserRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewUserRepository creates a new user repository.
func NewUserRepository(pool *pgxpool.Pool, logger logging.Logger) *UserRepository {
	return &UserRepository{
		pool:   pool,
		logger: logger.With(logging.F("component", "user_repository")),
	}
}

const userColumns = `id, email, display_name, created_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, herrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

// Create inserts a new user. A duplicate email returns ErrConflict.
func (r *UserRepository) Create(ctx context.Context, email, displayName string) (*User, error) {
	query := `
		INSERT INTO users (email, display_name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, email, displayName))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("email already registered: %w", herrors.ErrConflict)
		}
		return nil, err
	}
	return u, nil
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, userID))
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}
