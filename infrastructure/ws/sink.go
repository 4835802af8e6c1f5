package ws

import (
	"context"
	"sync"

	"chat-hub/domain/event"
)

// ConnSink buffers outbound frames for one connection. The write pump
// drains it; the fan-out worker fills it. When the buffer is full the
// frame is dropped rather than blocking the fan-out: the event is
// already durable and a client this far behind will catch up through
// the history query.
type ConnSink struct {
	frames    chan OutboundFrame
	done      chan struct{}
	closeOnce sync.Once
}

func NewConnSink(bufferSize int) *ConnSink {
	return &ConnSink{
		frames: make(chan OutboundFrame, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume is called by the fan-out worker. Writing to a closed sink is
// a no-op, never an error: the connection was torn down between
// resolution and send.
func (s *ConnSink) Consume(ctx context.Context, e event.OutboundEvent) error {
	select {
	case <-s.done:
		return nil
	default:
	}

	select {
	case s.frames <- toOutboundFrame(e):
	case <-s.done:
	default:
		// Buffer full: drop. The client catches up through history.
	}
	return nil
}

// push queues a locally produced frame (ack, error, history reply).
func (s *ConnSink) push(frame OutboundFrame) {
	select {
	case s.frames <- frame:
	case <-s.done:
	default:
	}
}

func (s *ConnSink) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *ConnSink) Frames() <-chan OutboundFrame {
	return s.frames
}
