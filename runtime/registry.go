package runtime

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"
	apperrors "chat-hub/errors"

	"github.com/google/uuid"
)

const registryShards = 32

// Connection is one live transport connection. It is owned exclusively
// by the Registry for its lifetime; the router never holds one across
// dispatch calls, it re-resolves through SinksFor every time.
type Connection struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu         sync.Mutex
	user       domain.UserID
	bound      bool
	closed     bool
	lastActive time.Time
	sink       contract.EventSink
}

func NewConnection(sink contract.EventSink) *Connection {
	now := time.Now().UTC()
	return &Connection{
		ID:         uuid.New(),
		CreatedAt:  now,
		lastActive: now,
		sink:       sink,
	}
}

// User returns the owning user, or the zero UserID before Register.
func (c *Connection) User() domain.UserID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Connection) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.lastActive = time.Now().UTC()
	c.mu.Unlock()
}

// Registry maps a user to the set of their live connections. Locking is
// sharded by user so dispatch-time lookups for unrelated users never
// contend.
type Registry struct {
	shards   [registryShards]registryShard
	presence contract.IPresence
}

type registryShard struct {
	mu          sync.RWMutex
	connections map[domain.UserID]map[uuid.UUID]*Connection
}

func NewRegistry(presence contract.IPresence) *Registry {
	r := &Registry{presence: presence}
	for i := range r.shards {
		r.shards[i].connections = make(map[domain.UserID]map[uuid.UUID]*Connection)
	}
	return r
}

func (r *Registry) shard(user domain.UserID) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(user))
	return &r.shards[h.Sum32()%registryShards]
}

// Register binds an authenticated connection to its user. The first
// connection of a user triggers the online presence transition.
func (r *Registry) Register(conn *Connection, user domain.UserID) error {
	conn.mu.Lock()
	if conn.bound {
		conn.mu.Unlock()
		return fmt.Errorf("%w: connection %s", apperrors.ErrDuplicateBinding, conn.ID)
	}
	conn.bound = true
	conn.user = user
	conn.mu.Unlock()

	shard := r.shard(user)
	shard.mu.Lock()
	set, ok := shard.connections[user]
	if !ok {
		set = make(map[uuid.UUID]*Connection)
		shard.connections[user] = set
	}
	first := len(set) == 0
	set[conn.ID] = conn
	shard.mu.Unlock()

	if first {
		r.presence.ConnectionOpened(user)
	} else {
		r.presence.Activity(user)
	}
	return nil
}

// Unregister removes a connection from its owner's set. Closing the
// last connection hands the offline transition to the presence tracker,
// which debounces it to absorb reconnect churn.
func (r *Registry) Unregister(conn *Connection) {
	conn.mu.Lock()
	if !conn.bound || conn.closed {
		conn.mu.Unlock()
		return
	}
	conn.closed = true
	user := conn.user
	conn.mu.Unlock()

	shard := r.shard(user)
	shard.mu.Lock()
	last := false
	if set, ok := shard.connections[user]; ok {
		delete(set, conn.ID)
		if len(set) == 0 {
			delete(shard.connections, user)
			last = true
		}
	}
	shard.mu.Unlock()

	r.presence.ConnectionClosed(user, last)
}

// Touch records client activity on a connection and feeds the presence
// inactivity timer.
func (r *Registry) Touch(conn *Connection) {
	conn.touch()
	if user := conn.User(); user != "" {
		r.presence.Activity(user)
	}
}

// SinksFor resolves a user to the sinks of their live connections.
// Connections mid-teardown are skipped; dispatching to a handle that
// closes right after resolution is the sink's problem and is a no-op.
func (r *Registry) SinksFor(user domain.UserID) []contract.EventSink {
	shard := r.shard(user)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	set, ok := shard.connections[user]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(set))
	for _, conn := range set {
		conn.mu.Lock()
		if !conn.closed {
			sinks = append(sinks, conn.sink)
		}
		conn.mu.Unlock()
	}
	return sinks
}

// ConnectionCount reports live connections for a user.
func (r *Registry) ConnectionCount(user domain.UserID) int {
	shard := r.shard(user)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return len(shard.connections[user])
}

var _ contract.IRegistry = (*Registry)(nil)
