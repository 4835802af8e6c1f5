package runtime

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/repositories"
)

const roomShards = 32

// RoomManager holds a cached, eventually-refreshed view of conversation
// membership. The authoritative copy lives in the durable store; the
// external conversation-management collaborator calls Invalidate when
// membership changes.
//
// A cached entry is either absent or a snapshot no older than the
// staleness window. Staleness shows up as slightly-delayed propagation
// of new members, never as dropped messages to existing members: on a
// store failure the last known snapshot keeps serving.
type RoomManager struct {
	log       *slog.Logger
	store     repositories.Store
	staleness time.Duration
	shards    [roomShards]roomShard
}

type roomShard struct {
	mu    sync.RWMutex
	cache map[domain.ConversationID]*membershipSnapshot
}

type membershipSnapshot struct {
	members   map[domain.UserID]struct{}
	fetchedAt time.Time
}

func NewRoomManager(log *slog.Logger, store repositories.Store, staleness time.Duration) *RoomManager {
	m := &RoomManager{log: log, store: store, staleness: staleness}
	for i := range m.shards {
		m.shards[i].cache = make(map[domain.ConversationID]*membershipSnapshot)
	}
	return m
}

func (m *RoomManager) shard(room domain.ConversationID) *roomShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(room))
	return &m.shards[h.Sum32()%roomShards]
}

// MembersOf returns the cached membership, refreshing from the store
// when the entry is absent or past the staleness window. The returned
// map is a snapshot and must not be mutated by callers.
func (m *RoomManager) MembersOf(ctx context.Context, room domain.ConversationID) (map[domain.UserID]struct{}, error) {
	shard := m.shard(room)

	shard.mu.RLock()
	snapshot, ok := shard.cache[room]
	shard.mu.RUnlock()
	if ok && time.Since(snapshot.fetchedAt) < m.staleness {
		return snapshot.members, nil
	}

	members, err := m.store.FetchMembership(ctx, room)
	if err != nil {
		if ok {
			// Last known snapshot over a refresh failure. The window
			// is exceeded but existing members keep receiving events.
			m.log.Warn("membership refresh failed, serving stale cache",
				"room", room, "age", time.Since(snapshot.fetchedAt), "error", err)
			return snapshot.members, nil
		}
		return nil, fmt.Errorf("room %s: %w", room, err)
	}

	shard.mu.Lock()
	shard.cache[room] = &membershipSnapshot{members: members, fetchedAt: time.Now()}
	shard.mu.Unlock()
	return members, nil
}

// Invalidate drops the cached snapshot so the next MembersOf refetches.
// Called by the conversation-management collaborator on any change.
func (m *RoomManager) Invalidate(room domain.ConversationID) {
	shard := m.shard(room)
	shard.mu.Lock()
	delete(shard.cache, room)
	shard.mu.Unlock()
}

// SharedWith resolves the presence audience of a user: everyone who
// shares a cached conversation with them. Resolved lazily over the
// cache instead of maintaining a separate social graph; users in
// conversations nobody touched recently simply miss the live presence
// event.
func (m *RoomManager) SharedWith(user domain.UserID) map[domain.UserID]struct{} {
	audience := make(map[domain.UserID]struct{})
	for i := range m.shards {
		shard := &m.shards[i]
		shard.mu.RLock()
		for _, snapshot := range shard.cache {
			if _, ok := snapshot.members[user]; !ok {
				continue
			}
			for member := range snapshot.members {
				if member != user {
					audience[member] = struct{}{}
				}
			}
		}
		shard.mu.RUnlock()
	}
	return audience
}

// EvictStale removes snapshots that outlived the staleness window by
// the given factor. Run periodically by the janitor worker to bound
// memory on long-idle conversations.
func (m *RoomManager) EvictStale(factor int) int {
	deadline := time.Duration(factor) * m.staleness
	evicted := 0
	for i := range m.shards {
		shard := &m.shards[i]
		shard.mu.Lock()
		for room, snapshot := range shard.cache {
			if time.Since(snapshot.fetchedAt) > deadline {
				delete(shard.cache, room)
				evicted++
			}
		}
		shard.mu.Unlock()
	}
	return evicted
}

var _ contract.IRoomManager = (*RoomManager)(nil)
