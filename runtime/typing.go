package runtime

import (
	"sync"
	"time"

	"chat-hub/domain"
)

type typingKey struct {
	room domain.ConversationID
	user domain.UserID
}

// typingTracker is the per-(conversation, user) ephemeral typing state.
// Entries auto-expire: a client that disconnects mid-typing gets a
// synthesized stop through the expiry callback. Nothing here is
// durable; a restart loses in-flight indicators with no correctness
// impact.
type typingTracker struct {
	mu      sync.Mutex
	timeout time.Duration
	expired func(room domain.ConversationID, user domain.UserID)
	entries map[typingKey]*time.Timer
}

func newTypingTracker(timeout time.Duration, expired func(domain.ConversationID, domain.UserID)) *typingTracker {
	return &typingTracker{
		timeout: timeout,
		expired: expired,
		entries: make(map[typingKey]*time.Timer),
	}
}

// start marks the user as typing and returns true on the idle->typing
// transition. A repeated start only refreshes the expiry timer.
func (t *typingTracker) start(room domain.ConversationID, user domain.UserID) bool {
	key := typingKey{room: room, user: user}
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.entries[key]; ok {
		timer.Reset(t.timeout)
		return false
	}
	t.entries[key] = time.AfterFunc(t.timeout, func() {
		if t.stop(room, user) {
			t.expired(room, user)
		}
	})
	return true
}

// stop clears the typing state and returns true if the user was
// typing. Idempotent: a double expiry or a stop racing an expiry
// yields at most one true.
func (t *typingTracker) stop(room domain.ConversationID, user domain.UserID) bool {
	key := typingKey{room: room, user: user}
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.entries[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(t.entries, key)
	return true
}

// active reports the number of in-flight indicators, for telemetry.
func (t *typingTracker) active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
