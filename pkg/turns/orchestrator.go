// Package turns ties the conversation pipeline together: input (audio or
// text), transcription, user-turn persistence with deduplication, response
// generation, AI-turn persistence, and optional speech synthesis.
package turns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/KarthikeyanM3011/Hudle.ai/pkg/audit"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/dedup"
	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/observability"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/storage"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/voice"
)

// historyLimit caps how many prior turns are loaded for generation context.
const historyLimit = 10

// Transcriber converts audio bytes to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Responder produces the coach's reply. It never returns an empty reply.
type Responder interface {
	Respond(ctx context.Context, profile *storage.CoachProfile, history []*storage.ChatTurn, message string) (reply string, degraded bool)
}

// Synthesizer renders a reply as audio for a voice category.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, category voice.Category) ([]byte, error)
}

// MeetingStore resolves meetings by their public UUID.
type MeetingStore interface {
	GetByUUID(ctx context.Context, meetingUUID string) (*storage.Meeting, error)
}

// ProfileStore resolves the coach profile attached to a meeting.
type ProfileStore interface {
	GetByID(ctx context.Context, profileID int64) (*storage.CoachProfile, error)
}

// TurnStore persists and reads chat turns.
type TurnStore interface {
	InsertDeduped(ctx context.Context, meetingID int64, message string, isUser bool, window time.Duration) (*storage.ChatTurn, bool, error)
	FindDuplicate(ctx context.Context, meetingID int64, message string, isUser bool, window time.Duration) (*storage.ChatTurn, error)
	ListByMeeting(ctx context.Context, meetingID int64) ([]*storage.ChatTurn, error)
	ListRecent(ctx context.Context, meetingID int64, limit int, excludeID int64) ([]*storage.ChatTurn, error)
}

// Reserver is the optional reservation layer in front of the turn insert.
type Reserver interface {
	Reserve(ctx context.Context, key dedup.Key) bool
	Release(ctx context.Context, key dedup.Key)
}

// Input is one turn submission: exactly one of Audio or Text.
type Input struct {
	Audio []byte
	Text  string
}

// kind reports the input kind for metrics and audit.
func (in Input) kind() string {
	if len(in.Audio) > 0 {
		return "audio"
	}
	return "text"
}

// Result is a processed turn. Audio is set only on the audio path, where
// the reply is also synthesized.
type Result struct {
	UserTurn *storage.ChatTurn
	AITurn   *storage.ChatTurn
	Audio    []byte

	// Duplicate marks that the user turn resolved to an existing row.
	Duplicate bool
}

// Orchestrator runs the turn pipeline.
type Orchestrator struct {
	meetings    MeetingStore
	profiles    ProfileStore
	turns       TurnStore
	transcriber Transcriber
	responder   Responder
	synthesizer Synthesizer
	guard       Reserver
	recorder    *audit.Recorder
	metrics     *observability.Metrics
	logger      logging.Logger
}

// Params collects the orchestrator's dependencies. Guard, Recorder, and
// Metrics are optional.
type Params struct {
	Meetings    MeetingStore
	Profiles    ProfileStore
	Turns       TurnStore
	Transcriber Transcriber
	Responder   Responder
	Synthesizer Synthesizer
	Guard       Reserver
	Recorder    *audit.Recorder
	Metrics     *observability.Metrics
	Logger      logging.Logger
}

// NewOrchestrator wires a turn pipeline.
func NewOrchestrator(p Params) *Orchestrator {
	return &Orchestrator{
		meetings:    p.Meetings,
		profiles:    p.Profiles,
		turns:       p.Turns,
		transcriber: p.Transcriber,
		responder:   p.Responder,
		synthesizer: p.Synthesizer,
		guard:       p.Guard,
		recorder:    p.Recorder,
		metrics:     p.Metrics,
		logger:      p.Logger.With(logging.F("component", "turn_orchestrator")),
	}
}

// resolve runs the shared preconditions: the meeting exists, the caller owns
// it, and its coach profile exists.
func (o *Orchestrator) resolve(ctx context.Context, meetingUUID string, userID int64) (*storage.Meeting, *storage.CoachProfile, error) {
	meeting, err := o.meetings.GetByUUID(ctx, meetingUUID)
	if err != nil {
		return nil, nil, err
	}
	if meeting.CreatedBy != userID {
		return nil, nil, fmt.Errorf("meeting %s: %w", meetingUUID, herrors.ErrForbidden)
	}
	profile, err := o.profiles.GetByID(ctx, meeting.ProfileID)
	if err != nil {
		return nil, nil, fmt.Errorf("coach profile for meeting %s: %w", meetingUUID, err)
	}
	return meeting, profile, nil
}

// ProcessTurn runs one full conversation turn. On the audio path the input
// is transcribed first and the reply is synthesized last; the text path
// skips both. Both turns are durably persisted before synthesis, so a
// synthesis failure loses only the audio artifact, never the turns.
func (o *Orchestrator) ProcessTurn(ctx context.Context, meetingUUID string, userID int64, in Input) (*Result, error) {
	start := time.Now()
	kind := in.kind()
	rec := audit.Record{InputKind: kind, Outcome: audit.OutcomeRejected}

	res, err := o.processTurn(ctx, meetingUUID, userID, in, &rec)

	rec.Duration = time.Since(start)
	if rec.MeetingID != 0 {
		o.recorder.Write(ctx, rec)
	}
	if o.metrics != nil {
		o.metrics.TurnsProcessed.WithLabelValues(kind, rec.Outcome).Inc()
		o.metrics.TurnDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
	return res, err
}

func (o *Orchestrator) processTurn(ctx context.Context, meetingUUID string, userID int64, in Input, rec *audit.Record) (*Result, error) {
	if len(in.Audio) == 0 && strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("turn input is empty: %w", herrors.ErrValidation)
	}

	meeting, profile, err := o.resolve(ctx, meetingUUID, userID)
	if err != nil {
		return nil, err
	}
	rec.MeetingID = meeting.ID
	logger := o.logger.With(
		logging.F("meeting_id", meeting.ID),
		logging.F("input_kind", in.kind()))

	message := strings.TrimSpace(in.Text)
	if len(in.Audio) > 0 {
		message, err = o.transcribeStage(ctx, meeting.ID, in.Audio, rec)
		if err != nil {
			return nil, err
		}
	}

	userTurn, created, err := o.persistStage(ctx, meeting.ID, message, true, herrors.StagePersistUser, rec)
	if err != nil {
		return nil, err
	}
	id := userTurn.ID
	rec.UserTurnID = &id
	if !created {
		logger.Info("Duplicate turn submission resolved to existing turn",
			logging.F("turn_id", userTurn.ID))
		if o.metrics != nil {
			o.metrics.DuplicateTurns.Inc()
		}
	}

	history, err := o.turns.ListRecent(ctx, meeting.ID, historyLimit, userTurn.ID)
	if err != nil {
		logger.Warn("Failed to load conversation history, generating without it", logging.Err(err))
		history = nil
	}

	reply := o.generateStage(ctx, meeting.ID, profile, history, message, rec)

	aiTurn, _, err := o.persistStage(ctx, meeting.ID, reply, false, herrors.StagePersistAI, rec)
	if err != nil {
		return nil, err
	}
	aiID := aiTurn.ID
	rec.AITurnID = &aiID

	result := &Result{UserTurn: userTurn, AITurn: aiTurn, Duplicate: !created}

	if len(in.Audio) > 0 {
		audioOut, err := o.synthesizeStage(ctx, meeting.ID, reply, profile.Gender, rec)
		if err != nil {
			// Both turns are committed; only the audio artifact is lost.
			return nil, err
		}
		result.Audio = audioOut
	}

	rec.Outcome = audit.OutcomeDelivered
	if !created {
		rec.Outcome = audit.OutcomeDuplicate
	}
	logger.Info("Turn processed",
		logging.F("user_turn_id", userTurn.ID),
		logging.F("ai_turn_id", aiTurn.ID),
		logging.F("duplicate", !created))
	return result, nil
}

func (o *Orchestrator) transcribeStage(ctx context.Context, meetingID int64, audioIn []byte, rec *audit.Record) (string, error) {
	ctx, span := observability.StartStage(ctx, herrors.StageTranscribe, meetingID)
	start := time.Now()

	text, err := o.transcriber.Transcribe(ctx, audioIn)
	o.observeStage(herrors.StageTranscribe, start)
	if err != nil {
		observability.EndStage(span, err)
		if herrors.IsValidation(err) {
			return "", err
		}
		rec.Outcome = audit.OutcomeTranscriptionFailed
		return "", classifyStage(err, herrors.StageTranscribe,
			herrors.ErrTranscriptionFailed, "transcription failed")
	}
	observability.EndStage(span, nil)
	rec.Stages = append(rec.Stages, herrors.StageTranscribe)

	text = strings.TrimSpace(text)
	if text == "" {
		rec.Outcome = audit.OutcomeTranscriptionFailed
		return "", herrors.NewTurnError(herrors.ErrTranscriptionFailed, herrors.StageTranscribe,
			"no speech detected", nil)
	}
	return text, nil
}

func (o *Orchestrator) persistStage(ctx context.Context, meetingID int64, message string, isUser bool, stage string, rec *audit.Record) (*storage.ChatTurn, bool, error) {
	ctx, span := observability.StartStage(ctx, stage, meetingID)
	start := time.Now()

	key := dedup.NewKey(meetingID, isUser, message)
	reserved := true
	if o.guard != nil {
		reserved = o.guard.Reserve(ctx, key)
	}
	if !reserved {
		// An identical submission holds the reservation. Give its insert a
		// moment to commit and resolve to that turn instead of racing it.
		// When the holder never commits, the re-check inside InsertDeduped
		// stays authoritative.
		if turn := o.awaitReservedTurn(ctx, meetingID, key); turn != nil {
			o.observeStage(stage, start)
			observability.EndStage(span, nil)
			rec.Stages = append(rec.Stages, stage)
			return turn, false, nil
		}
	}

	turn, created, err := o.turns.InsertDeduped(ctx, meetingID, key.Message, isUser, dedup.Window)
	o.observeStage(stage, start)
	if err != nil {
		if o.guard != nil && reserved {
			o.guard.Release(ctx, key)
		}
		observability.EndStage(span, err)
		rec.Outcome = audit.OutcomeStorageFailed
		return nil, false, herrors.NewTurnError(herrors.ErrStorageFailed, stage,
			"failed to persist turn", err)
	}
	observability.EndStage(span, nil)
	rec.Stages = append(rec.Stages, stage)
	return turn, created, nil
}

// Reserved-turn lookup cadence. The denied submission waits at most
// attempts*delay for the reservation holder to commit.
const (
	reservedLookupAttempts = 4
	reservedLookupDelay    = 50 * time.Millisecond
)

// awaitReservedTurn polls for the turn an in-flight identical submission is
// inserting. It returns nil when the holder has not committed within the
// polling budget or the lookup fails.
func (o *Orchestrator) awaitReservedTurn(ctx context.Context, meetingID int64, key dedup.Key) *storage.ChatTurn {
	for attempt := 0; attempt < reservedLookupAttempts; attempt++ {
		turn, err := o.turns.FindDuplicate(ctx, meetingID, key.Message, key.IsUser, dedup.Window)
		if err == nil {
			return turn
		}
		if !herrors.IsNotFound(err) {
			o.logger.Warn("Duplicate turn lookup failed", logging.Err(err),
				logging.F("meeting_id", meetingID))
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reservedLookupDelay):
		}
	}
	return nil
}

func (o *Orchestrator) generateStage(ctx context.Context, meetingID int64, profile *storage.CoachProfile, history []*storage.ChatTurn, message string, rec *audit.Record) string {
	ctx, span := observability.StartStage(ctx, herrors.StageGenerate, meetingID)
	start := time.Now()

	reply, degraded := o.responder.Respond(ctx, profile, history, message)
	o.observeStage(herrors.StageGenerate, start)
	observability.EndStage(span, nil)
	rec.Stages = append(rec.Stages, herrors.StageGenerate)

	if degraded && o.metrics != nil {
		o.metrics.FallbackTotal.Inc()
	}
	return reply
}

func (o *Orchestrator) synthesizeStage(ctx context.Context, meetingID int64, reply string, category voice.Category, rec *audit.Record) ([]byte, error) {
	ctx, span := observability.StartStage(ctx, herrors.StageSynthesize, meetingID)
	start := time.Now()

	audioOut, err := o.synthesizer.Synthesize(ctx, reply, category)
	o.observeStage(herrors.StageSynthesize, start)
	if err != nil {
		observability.EndStage(span, err)
		rec.Outcome = audit.OutcomeSynthesisFailed
		return nil, classifyStage(err, herrors.StageSynthesize,
			herrors.ErrSynthesisFailed, "speech synthesis failed after retry")
	}
	observability.EndStage(span, nil)
	rec.Stages = append(rec.Stages, herrors.StageSynthesize)
	return audioOut, nil
}

// classifyStage surfaces transient collaborator codes (timeout, rate limit,
// unavailable, cancellation) so callers can tell them from the stage's own
// failure mode, which everything else maps to.
func classifyStage(err error, stage string, fallback herrors.ErrorCode, message string) *herrors.TurnError {
	te := herrors.Classify(err, stage)
	if herrors.IsRetryable(te.Code) || te.Code == herrors.ErrContextCancelled {
		return te
	}
	return herrors.NewTurnError(fallback, stage, message, err)
}

func (o *Orchestrator) observeStage(stage string, start time.Time) {
	if o.metrics != nil {
		o.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// Transcribe runs the precondition checks and converts audio to text
// without persisting anything.
func (o *Orchestrator) Transcribe(ctx context.Context, meetingUUID string, userID int64, audioIn []byte) (string, error) {
	if _, _, err := o.resolve(ctx, meetingUUID, userID); err != nil {
		return "", err
	}
	text, err := o.transcriber.Transcribe(ctx, audioIn)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Synthesize renders arbitrary text in the meeting's coach voice without
// persisting anything.
func (o *Orchestrator) Synthesize(ctx context.Context, meetingUUID string, userID int64, text string) ([]byte, error) {
	_, profile, err := o.resolve(ctx, meetingUUID, userID)
	if err != nil {
		return nil, err
	}
	return o.synthesizer.Synthesize(ctx, text, profile.Gender)
}

// ListTurns returns the meeting's full conversation in chronological order.
func (o *Orchestrator) ListTurns(ctx context.Context, meetingUUID string, userID int64) ([]*storage.ChatTurn, error) {
	meeting, _, err := o.resolve(ctx, meetingUUID, userID)
	if err != nil {
		return nil, err
	}
	return o.turns.ListByMeeting(ctx, meeting.ID)
}
