package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
)

// TurnRepository provides database operations for chat turns.
type TurnRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewTurnRepository creates a new chat turn repository.
func NewTurnRepository(pool *pgxpool.Pool, logger logging.Logger) *TurnRepository {
	return &TurnRepository{
		pool:   pool,
		logger: logger.With(logging.F("component", "turn_repository")),
	}
}

const turnColumns = `id, meeting_id, message, is_user, created_at`

func scanTurn(row pgx.Row) (*ChatTurn, error) {
	t := &ChatTurn{}
	err := row.Scan(&t.ID, &t.MeetingID, &t.Message, &t.IsUser, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// InsertDeduped persists a chat turn unless an identical turn (same meeting,
// author flag, and message) already exists within the dedup window, in which
// case the existing turn is returned. The existence check and the insert run
// in one transaction so two near-simultaneous identical submissions cannot
// both create rows.
//
// The returned bool is true when a new row was created.
func (r *TurnRepository) InsertDeduped(ctx context.Context, meetingID int64, message string, isUser bool, window time.Duration) (*ChatTurn, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin turn transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cutoff := time.Now().Add(-window)

	existing, err := scanTurn(tx.QueryRow(ctx, `
		SELECT `+turnColumns+`
		FROM chat_turns
		WHERE meeting_id = $1 AND message = $2 AND is_user = $3 AND created_at >= $4
		ORDER BY created_at DESC
		LIMIT 1
	`, meetingID, message, isUser, cutoff))
	if err == nil {
		if commitErr := tx.Commit(ctx); commitErr != nil {
			return nil, false, fmt.Errorf("failed to commit turn transaction: %w", commitErr)
		}
		r.logger.Debug("Duplicate turn absorbed",
			logging.F("meeting_id", meetingID),
			logging.F("turn_id", existing.ID),
			logging.F("is_user", isUser))
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to check duplicate turn: %w", err)
	}

	created, err := scanTurn(tx.QueryRow(ctx, `
		INSERT INTO chat_turns (meeting_id, message, is_user, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING `+turnColumns, meetingID, message, isUser))
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert turn: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit turn transaction: %w", err)
	}

	r.logger.Debug("Turn persisted",
		logging.F("meeting_id", meetingID),
		logging.F("turn_id", created.ID),
		logging.F("is_user", isUser))
	return created, true, nil
}

// FindDuplicate returns the newest identical turn inside the dedup window,
// or ErrNotFound when none exists. The orchestrator polls it when another
// in-flight submission holds the idempotency reservation.
func (r *TurnRepository) FindDuplicate(ctx context.Context, meetingID int64, message string, isUser bool, window time.Duration) (*ChatTurn, error) {
	turn, err := scanTurn(r.pool.QueryRow(ctx, `
		SELECT `+turnColumns+`
		FROM chat_turns
		WHERE meeting_id = $1 AND message = $2 AND is_user = $3 AND created_at >= $4
		ORDER BY created_at DESC
		LIMIT 1
	`, meetingID, message, isUser, time.Now().Add(-window)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, herrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up duplicate turn: %w", err)
	}
	return turn, nil
}

// ListByMeeting returns every turn of a meeting in chronological order.
func (r *TurnRepository) ListByMeeting(ctx context.Context, meetingID int64) ([]*ChatTurn, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+turnColumns+`
		FROM chat_turns
		WHERE meeting_id = $1
		ORDER BY created_at ASC, id ASC
	`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var turns []*ChatTurn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ListRecent returns up to limit turns before the excluded turn, in
// chronological order. The orchestrator uses it to build the generation
// context without the just-inserted user turn.
func (r *TurnRepository) ListRecent(ctx context.Context, meetingID int64, limit int, excludeID int64) ([]*ChatTurn, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+turnColumns+`
		FROM chat_turns
		WHERE meeting_id = $1 AND id <> $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, meetingID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent turns: %w", err)
	}
	defer rows.Close()

	var turns []*ChatTurn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest-first from the query; callers want chronological.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}
