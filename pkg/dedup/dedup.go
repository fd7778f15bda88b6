// Package dedup implements the idempotency guard for chat turn submissions.
//
// A turn's idempotency key is the (meeting, author-flag, normalized text)
// triple; an identical submission within the validity window must resolve to
// the already-persisted turn. The authoritative check lives in the turn
// insert transaction (storage.TurnRepository.InsertDeduped); this package
// adds an optional Redis reservation in front of it, which shrinks the race
// window between two concurrent identical submissions to a single SET NX.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
)

// Window is the validity window of a turn idempotency key. An identical
// submission inside this window returns the existing turn.
const Window = 10 * time.Second

// keyPrefix namespaces turn reservations in Redis.
const keyPrefix = "turnkey:"

// Key identifies one logical chat turn submission.
type Key struct {
	MeetingID int64
	IsUser    bool
	Message   string
}

// NewKey builds a Key with the message normalized the same way the pipeline
// persists it (whitespace-trimmed).
func NewKey(meetingID int64, isUser bool, message string) Key {
	return Key{
		MeetingID: meetingID,
		IsUser:    isUser,
		Message:   strings.TrimSpace(message),
	}
}

// hash renders the key as a fixed-length Redis member. Message text goes
// through sha256 so arbitrarily long turns produce bounded keys.
func (k Key) hash() string {
	sum := sha256.Sum256([]byte(k.Message))
	return fmt.Sprintf("%s%d:%t:%s", keyPrefix, k.MeetingID, k.IsUser, hex.EncodeToString(sum[:]))
}

// Guard is the Redis-backed reservation layer. A nil client disables the
// fast path entirely; the database re-check still guarantees correctness.
type Guard struct {
	client *redis.Client
	logger logging.Logger
}

// NewGuard creates a Guard. client may be nil.
func NewGuard(client *redis.Client, logger logging.Logger) *Guard {
	return &Guard{
		client: client,
		logger: logger.With(logging.F("component", "dedup_guard")),
	}
}

// Reserve attempts to claim the key for the dedup window. It returns false
// when an identical submission already holds the reservation, meaning the
// caller should expect the insert to resolve to an existing turn.
//
// Reservation is best-effort: Redis being down or unconfigured degrades to
// "first seen" and the transactional re-check decides.
func (g *Guard) Reserve(ctx context.Context, key Key) bool {
	if g.client == nil {
		return true
	}

	ok, err := g.client.SetNX(ctx, key.hash(), 1, Window).Result()
	if err != nil {
		g.logger.Warn("Turn reservation unavailable, falling back to database check",
			logging.Err(err),
			logging.F("meeting_id", key.MeetingID))
		return true
	}
	if !ok {
		g.logger.Debug("Duplicate turn reservation hit",
			logging.F("meeting_id", key.MeetingID),
			logging.F("is_user", key.IsUser))
	}
	return ok
}

// Release drops a reservation early. The pipeline calls it when the insert
// failed so an immediate client retry is not treated as a duplicate.
func (g *Guard) Release(ctx context.Context, key Key) {
	if g.client == nil {
		return
	}
	if err := g.client.Del(ctx, key.hash()).Err(); err != nil {
		g.logger.Warn("Failed to release turn reservation", logging.Err(err))
	}
}
