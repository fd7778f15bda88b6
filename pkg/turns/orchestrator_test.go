package turns

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarthikeyanM3011/Hudle.ai/pkg/coach"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/dedup"
	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/llm"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/storage"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/voice"
)

const (
	testMeetingUUID = "11111111-2222-3333-4444-555555555555"
	ownerID         = int64(10)
)

type fakeMeetings struct {
	byUUID map[string]*storage.Meeting
}

func (f *fakeMeetings) GetByUUID(ctx context.Context, meetingUUID string) (*storage.Meeting, error) {
	m, ok := f.byUUID[meetingUUID]
	if !ok {
		return nil, herrors.ErrNotFound
	}
	return m, nil
}

type fakeProfiles struct {
	byID map[int64]*storage.CoachProfile
}

func (f *fakeProfiles) GetByID(ctx context.Context, profileID int64) (*storage.CoachProfile, error) {
	p, ok := f.byID[profileID]
	if !ok {
		return nil, herrors.ErrNotFound
	}
	return p, nil
}

// fakeTurns mimics the transactional dedup insert in memory.
type fakeTurns struct {
	nextID    int64
	turns     []*storage.ChatTurn
	insertErr error
}

func (f *fakeTurns) InsertDeduped(ctx context.Context, meetingID int64, message string, isUser bool, window time.Duration) (*storage.ChatTurn, bool, error) {
	if f.insertErr != nil {
		return nil, false, f.insertErr
	}
	cutoff := time.Now().Add(-window)
	for i := len(f.turns) - 1; i >= 0; i-- {
		t := f.turns[i]
		if t.MeetingID == meetingID && t.Message == message && t.IsUser == isUser && t.CreatedAt.After(cutoff) {
			return t, false, nil
		}
	}
	f.nextID++
	t := &storage.ChatTurn{
		ID:        f.nextID,
		MeetingID: meetingID,
		Message:   message,
		IsUser:    isUser,
		CreatedAt: time.Now(),
	}
	f.turns = append(f.turns, t)
	return t, true, nil
}

func (f *fakeTurns) FindDuplicate(ctx context.Context, meetingID int64, message string, isUser bool, window time.Duration) (*storage.ChatTurn, error) {
	cutoff := time.Now().Add(-window)
	for i := len(f.turns) - 1; i >= 0; i-- {
		t := f.turns[i]
		if t.MeetingID == meetingID && t.Message == message && t.IsUser == isUser && t.CreatedAt.After(cutoff) {
			return t, nil
		}
	}
	return nil, herrors.ErrNotFound
}

func (f *fakeTurns) ListByMeeting(ctx context.Context, meetingID int64) ([]*storage.ChatTurn, error) {
	var out []*storage.ChatTurn
	for _, t := range f.turns {
		if t.MeetingID == meetingID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTurns) ListRecent(ctx context.Context, meetingID int64, limit int, excludeID int64) ([]*storage.ChatTurn, error) {
	var out []*storage.ChatTurn
	for _, t := range f.turns {
		if t.MeetingID == meetingID && t.ID != excludeID {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio: %w", herrors.ErrValidation)
	}
	return f.text, f.err
}

type fakeSynthesizer struct {
	audio []byte
	err   error
	calls int
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string, category voice.Category) ([]byte, error) {
	f.calls++
	return f.audio, f.err
}

// fakeGuard answers every reservation the same way and counts calls.
type fakeGuard struct {
	allow    bool
	reserves int
	releases int
}

func (g *fakeGuard) Reserve(ctx context.Context, key dedup.Key) bool {
	g.reserves++
	return g.allow
}

func (g *fakeGuard) Release(ctx context.Context, key dedup.Key) {
	g.releases++
}

// raceTurns inserts blindly, standing in for the window where a competing
// transaction has not committed yet and the insert re-check sees nothing.
// pending becomes visible to lookups from the second poll on, like a commit
// landing while the denied submission waits.
type raceTurns struct {
	fakeTurns
	pending *storage.ChatTurn
	polls   int
}

func (f *raceTurns) InsertDeduped(ctx context.Context, meetingID int64, message string, isUser bool, window time.Duration) (*storage.ChatTurn, bool, error) {
	f.nextID++
	t := &storage.ChatTurn{
		ID:        f.nextID,
		MeetingID: meetingID,
		Message:   message,
		IsUser:    isUser,
		CreatedAt: time.Now(),
	}
	f.turns = append(f.turns, t)
	return t, true, nil
}

func (f *raceTurns) FindDuplicate(ctx context.Context, meetingID int64, message string, isUser bool, window time.Duration) (*storage.ChatTurn, error) {
	f.polls++
	if f.pending != nil && f.pending.Message == message && f.pending.IsUser == isUser && f.polls >= 2 {
		return f.pending, nil
	}
	return nil, herrors.ErrNotFound
}

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []llm.Message, params llm.Params) (string, error) {
	return f.reply, f.err
}

type fixture struct {
	orch  *Orchestrator
	turns *fakeTurns
	synth *fakeSynthesizer
}

func newFixture(t *testing.T, completer coach.Completer, transcriber Transcriber, synth *fakeSynthesizer) *fixture {
	t.Helper()

	meeting := &storage.Meeting{
		ID:        1,
		UUID:      testMeetingUUID,
		CreatedBy: ownerID,
		ProfileID: 2,
		Status:    storage.MeetingStatusActive,
	}
	profile := &storage.CoachProfile{
		ID:        2,
		CreatedBy: ownerID,
		CoachRole: "Career Coach",
		Gender:    voice.Male,
	}

	ft := &fakeTurns{}
	orch := NewOrchestrator(Params{
		Meetings:    &fakeMeetings{byUUID: map[string]*storage.Meeting{testMeetingUUID: meeting}},
		Profiles:    &fakeProfiles{byID: map[int64]*storage.CoachProfile{2: profile}},
		Turns:       ft,
		Transcriber: transcriber,
		Responder:   coach.NewGenerator(completer, logging.NewNopLogger()),
		Synthesizer: synth,
		Logger:      logging.NewNopLogger(),
	})
	return &fixture{orch: orch, turns: ft, synth: synth}
}

func TestProcessTextTurn(t *testing.T) {
	fx := newFixture(t,
		&fakeCompleter{reply: "Great question, let's dig in."},
		&fakeTranscriber{},
		&fakeSynthesizer{audio: []byte("unused")})

	res, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Text: "How do I grow?"})

	require.NoError(t, err)
	assert.Equal(t, "How do I grow?", res.UserTurn.Message)
	assert.True(t, res.UserTurn.IsUser)
	assert.Equal(t, "Great question, let's dig in.", res.AITurn.Message)
	assert.False(t, res.AITurn.IsUser)
	assert.Nil(t, res.Audio, "text path never synthesizes")
	assert.False(t, res.Duplicate)
	assert.Len(t, fx.turns.turns, 2)
	assert.Zero(t, fx.synth.calls)
}

func TestProcessAudioTurn(t *testing.T) {
	fx := newFixture(t,
		&fakeCompleter{reply: "Here is what I'd try."},
		&fakeTranscriber{text: "what should I try"},
		&fakeSynthesizer{audio: []byte("reply-audio")})

	res, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Audio: []byte("wav")})

	require.NoError(t, err)
	assert.Equal(t, "what should I try", res.UserTurn.Message)
	assert.Equal(t, []byte("reply-audio"), res.Audio)
	assert.Len(t, fx.turns.turns, 2)
}

func TestProcessTurnEmptyInput(t *testing.T) {
	fx := newFixture(t, &fakeCompleter{reply: "x"}, &fakeTranscriber{}, &fakeSynthesizer{})

	_, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Text: "   "})

	assert.ErrorIs(t, err, herrors.ErrValidation)
	assert.Empty(t, fx.turns.turns, "nothing persisted on invalid input")
}

func TestProcessTurnMeetingNotFound(t *testing.T) {
	fx := newFixture(t, &fakeCompleter{reply: "x"}, &fakeTranscriber{}, &fakeSynthesizer{})

	_, err := fx.orch.ProcessTurn(context.Background(), "unknown-uuid", ownerID, Input{Text: "hi"})
	assert.ErrorIs(t, err, herrors.ErrNotFound)
}

func TestProcessTurnForbiddenForNonOwner(t *testing.T) {
	fx := newFixture(t, &fakeCompleter{reply: "x"}, &fakeTranscriber{}, &fakeSynthesizer{})

	_, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID+1, Input{Text: "hi"})

	assert.ErrorIs(t, err, herrors.ErrForbidden)
	assert.Empty(t, fx.turns.turns)
}

func TestProcessTurnWhitespaceTranscript(t *testing.T) {
	fx := newFixture(t,
		&fakeCompleter{reply: "x"},
		&fakeTranscriber{text: "   "},
		&fakeSynthesizer{audio: []byte("a")})

	_, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Audio: []byte("wav")})

	assert.Equal(t, herrors.ErrTranscriptionFailed, herrors.CodeOf(err))
	assert.Empty(t, fx.turns.turns, "no turns persisted when no speech was detected")
}

func TestProcessTurnGenerationFailureUsesFallback(t *testing.T) {
	message := "What should my next step be?"
	fx := newFixture(t,
		&fakeCompleter{err: errors.New("service unavailable")},
		&fakeTranscriber{},
		&fakeSynthesizer{})

	res, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Text: message})

	require.NoError(t, err, "generation failure never fails the pipeline")
	require.Len(t, fx.turns.turns, 2)
	assert.Equal(t, coach.Fallback(message, "Career Coach"), res.AITurn.Message)
	assert.NotEmpty(t, res.AITurn.Message)
}

func TestProcessTurnSynthesisFailureAfterPersist(t *testing.T) {
	fx := newFixture(t,
		&fakeCompleter{reply: "spoken reply"},
		&fakeTranscriber{text: "hello"},
		&fakeSynthesizer{err: errors.New("both voices failed")})

	_, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Audio: []byte("wav")})

	assert.Equal(t, herrors.ErrSynthesisFailed, herrors.CodeOf(err))
	assert.Len(t, fx.turns.turns, 2, "both turns survive a synthesis failure")
}

func TestProcessTurnSynthesisTimeoutSurfacesCode(t *testing.T) {
	fx := newFixture(t,
		&fakeCompleter{reply: "spoken reply"},
		&fakeTranscriber{text: "hello"},
		&fakeSynthesizer{err: fmt.Errorf("speak request: %w", context.DeadlineExceeded)})

	_, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Audio: []byte("wav")})

	assert.Equal(t, herrors.ErrTimeout, herrors.CodeOf(err))
	assert.Len(t, fx.turns.turns, 2, "both turns survive the timeout")
}

func TestProcessTurnSynthesisRateLimitSurfacesCode(t *testing.T) {
	fx := newFixture(t,
		&fakeCompleter{reply: "spoken reply"},
		&fakeTranscriber{text: "hello"},
		&fakeSynthesizer{err: errors.New("unexpected status 429")})

	_, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Audio: []byte("wav")})

	assert.Equal(t, herrors.ErrRateLimit, herrors.CodeOf(err))
}

func TestProcessTurnTranscriberOutageSurfacesCode(t *testing.T) {
	fx := newFixture(t,
		&fakeCompleter{reply: "x"},
		&fakeTranscriber{err: errors.New("dial tcp: connection refused")},
		&fakeSynthesizer{})

	_, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Audio: []byte("wav")})

	assert.Equal(t, herrors.ErrServiceUnavailable, herrors.CodeOf(err))
	assert.Empty(t, fx.turns.turns, "nothing persisted when transcription errors")
}

// newGuardedOrchestrator builds an orchestrator around a caller-supplied
// turn store and reservation guard.
func newGuardedOrchestrator(t *testing.T, store TurnStore, guard Reserver) *Orchestrator {
	t.Helper()

	meeting := &storage.Meeting{
		ID:        1,
		UUID:      testMeetingUUID,
		CreatedBy: ownerID,
		ProfileID: 2,
		Status:    storage.MeetingStatusActive,
	}
	profile := &storage.CoachProfile{
		ID:        2,
		CreatedBy: ownerID,
		CoachRole: "Career Coach",
		Gender:    voice.Male,
	}
	return NewOrchestrator(Params{
		Meetings:    &fakeMeetings{byUUID: map[string]*storage.Meeting{testMeetingUUID: meeting}},
		Profiles:    &fakeProfiles{byID: map[int64]*storage.CoachProfile{2: profile}},
		Turns:       store,
		Transcriber: &fakeTranscriber{},
		Responder:   coach.NewGenerator(&fakeCompleter{reply: "answer"}, logging.NewNopLogger()),
		Synthesizer: &fakeSynthesizer{},
		Guard:       guard,
		Logger:      logging.NewNopLogger(),
	})
}

func TestProcessTurnDeniedReservationResolvesToExistingTurn(t *testing.T) {
	pending := &storage.ChatTurn{
		ID:        7,
		MeetingID: 1,
		Message:   "same message",
		IsUser:    true,
		CreatedAt: time.Now(),
	}
	store := &raceTurns{pending: pending}
	guard := &fakeGuard{allow: false}
	orch := newGuardedOrchestrator(t, store, guard)

	res, err := orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Text: "same message"})

	require.NoError(t, err)
	assert.Equal(t, pending.ID, res.UserTurn.ID, "denied reservation resolves to the holder's turn")
	assert.True(t, res.Duplicate)
	for _, turn := range store.turns {
		assert.False(t, turn.IsUser, "no second user row inserted past the reservation")
	}
	assert.Zero(t, guard.releases, "a denied submission never drops the holder's reservation")
}

func TestProcessTurnDeniedReservationFallsThroughToInsert(t *testing.T) {
	store := &raceTurns{}
	guard := &fakeGuard{allow: false}
	orch := newGuardedOrchestrator(t, store, guard)

	res, err := orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Text: "first message"})

	require.NoError(t, err)
	assert.False(t, res.Duplicate, "an abandoned reservation falls back to the insert re-check")
	assert.NotNil(t, res.UserTurn)
	assert.GreaterOrEqual(t, guard.reserves, 2)
}

func TestProcessTurnDuplicateSubmission(t *testing.T) {
	fx := newFixture(t, &fakeCompleter{reply: "answer"}, &fakeTranscriber{}, &fakeSynthesizer{})
	in := Input{Text: "same message"}

	first, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, in)
	require.NoError(t, err)
	second, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, in)
	require.NoError(t, err)

	assert.Equal(t, first.UserTurn.ID, second.UserTurn.ID, "resubmission resolves to the same turn")
	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)

	userRows := 0
	for _, turn := range fx.turns.turns {
		if turn.IsUser {
			userRows++
		}
	}
	assert.Equal(t, 1, userRows, "one stored user row for two submissions")
}

func TestProcessTurnStorageFailure(t *testing.T) {
	fx := newFixture(t, &fakeCompleter{reply: "x"}, &fakeTranscriber{}, &fakeSynthesizer{})
	fx.turns.insertErr = errors.New("connection reset")

	_, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Text: "hi"})
	assert.Equal(t, herrors.ErrStorageFailed, herrors.CodeOf(err))
}

func TestListTurnsOwnershipGate(t *testing.T) {
	fx := newFixture(t, &fakeCompleter{reply: "answer"}, &fakeTranscriber{}, &fakeSynthesizer{})

	_, err := fx.orch.ProcessTurn(context.Background(), testMeetingUUID, ownerID, Input{Text: "one"})
	require.NoError(t, err)

	list, err := fx.orch.ListTurns(context.Background(), testMeetingUUID, ownerID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = fx.orch.ListTurns(context.Background(), testMeetingUUID, ownerID+1)
	assert.ErrorIs(t, err, herrors.ErrForbidden)
}

func TestTranscribeOnly(t *testing.T) {
	fx := newFixture(t, &fakeCompleter{reply: "x"}, &fakeTranscriber{text: " spoken words "}, &fakeSynthesizer{})

	text, err := fx.orch.Transcribe(context.Background(), testMeetingUUID, ownerID, []byte("wav"))

	require.NoError(t, err)
	assert.Equal(t, "spoken words", text)
	assert.Empty(t, fx.turns.turns, "transcribe-only persists nothing")
}

func TestSynthesizeOnly(t *testing.T) {
	fx := newFixture(t, &fakeCompleter{reply: "x"}, &fakeTranscriber{}, &fakeSynthesizer{audio: []byte("spoken")})

	audio, err := fx.orch.Synthesize(context.Background(), testMeetingUUID, ownerID, "say this")

	require.NoError(t, err)
	assert.Equal(t, []byte("spoken"), audio)
	assert.Empty(t, fx.turns.turns)
}
