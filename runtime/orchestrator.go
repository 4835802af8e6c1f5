// Package runtime is the coordination core: connection registry, room
// manager, presence tracker and event router, plus the workers that
// drive fan-out and housekeeping. It holds no transport or storage
// logic of its own.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"chat-hub/contract"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"chat-hub/runtime/workers"
)

// Options bounds the coordinator's timers and queues.
type Options struct {
	MembershipStaleness time.Duration
	TypingTimeout       time.Duration
	AwayTimeout         time.Duration
	OfflineDebounce     time.Duration
	BufferSize          int
	SinkTimeout         time.Duration
	MetricInterval      time.Duration
	JanitorInterval     time.Duration
}

// Coordinator wires the coordination components together and owns
// their lifecycle through the supervisor.
type Coordinator struct {
	log        *slog.Logger
	opts       Options
	supervisor contract.ISupervisor
	registry   *Registry
	rooms      *RoomManager
	presence   *PresenceTracker
	router     *Router
}

func NewCoordinator(log *slog.Logger, supervisor contract.ISupervisor,
	store repositories.Store, moderator *moderation.Moderator, opts Options) *Coordinator {
	rooms := NewRoomManager(log, store, opts.MembershipStaleness)
	router := NewRouter(log, store, rooms, moderator, opts.TypingTimeout, opts.BufferSize)
	presence := NewPresenceTracker(log, router, opts.AwayTimeout, opts.OfflineDebounce)
	registry := NewRegistry(presence)

	return &Coordinator{
		log:        log,
		opts:       opts,
		supervisor: supervisor,
		registry:   registry,
		rooms:      rooms,
		presence:   presence,
		router:     router,
	}
}

func (c *Coordinator) Registry() *Registry        { return c.registry }
func (c *Coordinator) Rooms() *RoomManager        { return c.rooms }
func (c *Coordinator) Presence() *PresenceTracker { return c.presence }
func (c *Coordinator) Router() *Router            { return c.router }

// Start registers the background workers and runs the supervision loop
// in its own goroutine. Preparation happens before anything runs so a
// misconfigured worker fails fast.
func (c *Coordinator) Start(ctx context.Context) {
	fanout := workers.NewFanoutWorker(c.log, c.registry, c.router.Outbound(), c.opts.SinkTimeout)
	janitor := workers.NewJanitorWorker(c.log, c.opts.JanitorInterval, c.rooms)
	telemetry := workers.NewTelemetryWorker(c.log, c.opts.MetricInterval, func() map[string]any {
		return map[string]any{
			"typing_active": c.router.TypingCount(),
		}
	})

	c.supervisor.Add(fanout, janitor, telemetry)

	c.log.Info("Starting coordinator and all supervised workers")
	go c.supervisor.Run(ctx)
}

// Stop cancels the supervised context. In-flight dispatches drain;
// ephemeral state (typing, presence debounces) is simply lost, which
// self-heals on the next client activity.
func (c *Coordinator) Stop() {
	c.log.Info("Requesting coordinator shutdown")
	c.supervisor.Stop()
}
