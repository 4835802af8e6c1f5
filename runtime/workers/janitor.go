package workers

import (
	"context"
	"log/slog"
	"time"

	"chat-hub/contract"
)

var _ contract.Worker = (*JanitorWorker)(nil)

// evictStaleFactor: snapshots older than this many staleness windows
// are dropped instead of refreshed, bounding cache memory on idle
// conversations.
const evictStaleFactor = 10

// RoomCache is the eviction surface of the room manager.
type RoomCache interface {
	EvictStale(factor int) int
}

// JanitorWorker sweeps the membership cache. Typing indicators and
// presence debounces clean themselves through their own timers; only
// the cache needs a periodic pass.
type JanitorWorker struct {
	log      *slog.Logger
	interval time.Duration
	cache    RoomCache
}

func NewJanitorWorker(log *slog.Logger, interval time.Duration, cache RoomCache) *JanitorWorker {
	return &JanitorWorker{log: log, interval: interval, cache: cache}
}

func (w *JanitorWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if evicted := w.cache.EvictStale(evictStaleFactor); evicted > 0 {
				w.log.Debug("evicted stale membership snapshots", "count", evicted)
			}
		}
	}
}
