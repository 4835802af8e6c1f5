package runtime

import (
	"log/slog"
	"sync"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
)

// PresencePublisher hands a presence transition to the router for
// audience resolution and fan-out.
type PresencePublisher interface {
	PublishPresence(evt event.PresenceChanged)
}

// PresenceTracker derives online/away/offline per user from registry
// mutations and timers. Registry mutations are its sole input; it never
// touches durable storage.
//
// State machine per user:
//
//	offline -> online  first connection registered
//	online  -> away    inactivity timeout with a connection still open
//	away    -> online  any activity
//	online  -> offline last connection closed, after the debounce
//
// The debounce absorbs page-reload churn: a user who reconnects within
// the window never has an intervening offline event observed by others.
type PresenceTracker struct {
	log             *slog.Logger
	publisher       PresencePublisher
	awayTimeout     time.Duration
	offlineDebounce time.Duration

	mu     sync.Mutex
	states map[domain.UserID]*presenceEntry
}

type presenceEntry struct {
	status         domain.PresenceStatus
	lastSeen       time.Time
	awayTimer      *time.Timer
	offlineTimer   *time.Timer
	pendingOffline bool
}

func NewPresenceTracker(log *slog.Logger, publisher PresencePublisher,
	awayTimeout, offlineDebounce time.Duration) *PresenceTracker {
	return &PresenceTracker{
		log:             log,
		publisher:       publisher,
		awayTimeout:     awayTimeout,
		offlineDebounce: offlineDebounce,
		states:          make(map[domain.UserID]*presenceEntry),
	}
}

func (t *PresenceTracker) entry(user domain.UserID) *presenceEntry {
	state, ok := t.states[user]
	if !ok {
		state = &presenceEntry{status: domain.PresenceOffline}
		t.states[user] = state
	}
	return state
}

// ConnectionOpened is called by the registry on a user's first live
// connection. A pending offline debounce is cancelled silently.
func (t *PresenceTracker) ConnectionOpened(user domain.UserID) {
	t.mu.Lock()
	state := t.entry(user)
	state.cancelOffline()
	changed := state.status != domain.PresenceOnline
	state.status = domain.PresenceOnline
	state.lastSeen = time.Now().UTC()
	t.resetAwayTimer(user, state)
	snapshot := t.snapshot(user, state)
	t.mu.Unlock()

	if changed {
		t.publisher.PublishPresence(snapshot)
	}
}

// Activity records client activity: resets the inactivity timer and
// pulls an away user back online.
func (t *PresenceTracker) Activity(user domain.UserID) {
	t.mu.Lock()
	state, ok := t.states[user]
	if !ok || state.status == domain.PresenceOffline {
		t.mu.Unlock()
		return
	}
	wasAway := state.status == domain.PresenceAway
	state.status = domain.PresenceOnline
	state.lastSeen = time.Now().UTC()
	t.resetAwayTimer(user, state)
	snapshot := t.snapshot(user, state)
	t.mu.Unlock()

	if wasAway {
		t.publisher.PublishPresence(snapshot)
	}
}

// ConnectionClosed is called by the registry on every unregistration.
// Only the last connection arms the offline debounce.
func (t *PresenceTracker) ConnectionClosed(user domain.UserID, last bool) {
	if !last {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.states[user]
	if !ok || state.status == domain.PresenceOffline {
		return
	}
	if state.awayTimer != nil {
		state.awayTimer.Stop()
		state.awayTimer = nil
	}
	state.cancelOffline()
	state.pendingOffline = true
	state.offlineTimer = time.AfterFunc(t.offlineDebounce, func() {
		t.expireOffline(user)
	})
}

func (t *PresenceTracker) expireOffline(user domain.UserID) {
	t.mu.Lock()
	state, ok := t.states[user]
	if !ok || !state.pendingOffline {
		t.mu.Unlock()
		return
	}
	state.pendingOffline = false
	state.offlineTimer = nil
	state.status = domain.PresenceOffline
	state.lastSeen = time.Now().UTC()
	snapshot := t.snapshot(user, state)
	t.mu.Unlock()

	t.publisher.PublishPresence(snapshot)
}

func (t *PresenceTracker) resetAwayTimer(user domain.UserID, state *presenceEntry) {
	if state.awayTimer != nil {
		state.awayTimer.Stop()
	}
	state.awayTimer = time.AfterFunc(t.awayTimeout, func() {
		t.expireAway(user)
	})
}

func (t *PresenceTracker) expireAway(user domain.UserID) {
	t.mu.Lock()
	state, ok := t.states[user]
	if !ok || state.status != domain.PresenceOnline {
		t.mu.Unlock()
		return
	}
	state.status = domain.PresenceAway
	snapshot := t.snapshot(user, state)
	t.mu.Unlock()

	t.publisher.PublishPresence(snapshot)
}

func (t *PresenceTracker) snapshot(user domain.UserID, state *presenceEntry) event.PresenceChanged {
	return event.PresenceChanged{User: user, Status: state.status, LastSeen: state.lastSeen}
}

// StatusOf reports the tracked presence of a user. Unknown users are
// offline.
func (t *PresenceTracker) StatusOf(user domain.UserID) domain.Presence {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.states[user]
	if !ok {
		return domain.Presence{User: user, Status: domain.PresenceOffline}
	}
	return domain.Presence{User: user, Status: state.status, LastSeen: state.lastSeen}
}

func (e *presenceEntry) cancelOffline() {
	if e.offlineTimer != nil {
		e.offlineTimer.Stop()
		e.offlineTimer = nil
	}
	e.pendingOffline = false
}

var _ contract.IPresence = (*PresenceTracker)(nil)
