package workers

import (
	"context"
	"log/slog"
	"time"

	"chat-hub/contract"
)

// Ensure *FanoutWorker implements the contract.Worker interface at
// compile time.
var _ contract.Worker = (*FanoutWorker)(nil)

// FanoutWorker drains the router's outbound queue and delivers each
// event to the live connections of its recipients. Draining in a
// single goroutine keeps per-conversation delivery in acceptance
// order without holding the router's critical section during I/O.
//
// Per-recipient failures are isolated: a sink that times out or whose
// connection closed mid-send never aborts delivery to the others. The
// event is already durable, an offline recipient catches up through
// the history query.
type FanoutWorker struct {
	log         *slog.Logger
	registry    contract.IRegistry
	outbound    <-chan contract.Dispatch
	sinkTimeout time.Duration
}

func NewFanoutWorker(log *slog.Logger, registry contract.IRegistry,
	outbound <-chan contract.Dispatch, sinkTimeout time.Duration) *FanoutWorker {
	return &FanoutWorker{
		log:         log,
		registry:    registry,
		outbound:    outbound,
		sinkTimeout: sinkTimeout,
	}
}

func (w *FanoutWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fan-out")
			return nil
		case dispatch := <-w.outbound:
			w.Fanout(ctx, dispatch)
		}
	}
}

// Fanout re-resolves every recipient to their current connections and
// writes the event to each sink.
func (w *FanoutWorker) Fanout(ctx context.Context, dispatch contract.Dispatch) {
	for recipient := range dispatch.Recipients {
		for _, sink := range w.registry.SinksFor(recipient) {
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			if err := sink.Consume(sinkCtx, dispatch.Event); err != nil {
				// Swallowed: the connection closed between resolution
				// and send, or the client is too slow to keep up.
				w.log.Debug("dispatch to connection failed",
					"recipient", recipient, "kind", dispatch.Event.Kind(), "error", err)
			}
			cancel()
		}
	}
}
