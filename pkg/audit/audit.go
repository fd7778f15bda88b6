// Package audit records a per-turn audit trail: which pipeline stages a
// submission reached and how it ended. Audit writes are best-effort and run
// on their own database/sql connection so a slow audit insert never sits
// inside the turn transaction.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/KarthikeyanM3011/Hudle.ai/pkg/db"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
)

// Outcomes of a turn submission.
const (
	OutcomeDelivered           = "delivered"
	OutcomeDuplicate           = "duplicate"
	OutcomeTranscriptionFailed = "transcription_failed"
	OutcomeSynthesisFailed     = "synthesis_failed"
	OutcomeRejected            = "rejected"
	OutcomeStorageFailed       = "storage_failed"
)

// Record is one audit row.
type Record struct {
	MeetingID  int64
	UserTurnID *int64
	AITurnID   *int64
	InputKind  string
	Stages     []string
	Outcome    string
	Duration   time.Duration
}

// Recorder writes turn audit rows.
type Recorder struct {
	sqlDB  *sql.DB
	logger logging.Logger
}

// Open connects a Recorder using the shared database settings. The
// connection is lazy; a down database surfaces on the first write, which is
// logged and dropped.
func Open(cfg *db.Config, logger logging.Logger) (*Recorder, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open audit connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return &Recorder{
		sqlDB:  sqlDB,
		logger: logger.With(logging.F("component", "turn_audit")),
	}, nil
}

// Close releases the audit connection pool.
func (r *Recorder) Close() error {
	if r == nil || r.sqlDB == nil {
		return nil
	}
	return r.sqlDB.Close()
}

// Write persists an audit record. Failures are logged, never returned: the
// audit trail must not affect turn delivery. A nil Recorder discards.
func (r *Recorder) Write(ctx context.Context, rec Record) {
	if r == nil || r.sqlDB == nil {
		return
	}

	_, err := r.sqlDB.ExecContext(ctx, `
		INSERT INTO turn_audit (id, meeting_id, user_turn_id, ai_turn_id, input_kind, stages, outcome, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`, uuid.NewString(), rec.MeetingID, rec.UserTurnID, rec.AITurnID,
		rec.InputKind, pq.Array(rec.Stages), rec.Outcome, rec.Duration.Milliseconds())
	if err != nil {
		r.logger.Warn("Failed to write turn audit record",
			logging.Err(err),
			logging.F("meeting_id", rec.MeetingID),
			logging.F("outcome", rec.Outcome))
	}
}
