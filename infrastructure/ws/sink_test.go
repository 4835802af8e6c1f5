package ws

import (
	"context"
	"testing"

	"chat-hub/domain/event"

	"github.com/stretchr/testify/require"
)

func TestConnSink_ConsumeBuffersFrames(t *testing.T) {
	req := require.New(t)
	sink := NewConnSink(4)

	// When an event is consumed
	err := sink.Consume(context.Background(), event.TypingStarted{Room: "general", User: "alice"})
	req.NoError(err)

	// Then the write pump can drain its frame
	frame := <-sink.Frames()
	req.Equal("typing_started", frame.Kind)
	req.Equal("alice", frame.Actor)
}

func TestConnSink_ConsumeAfterCloseIsANoOp(t *testing.T) {
	req := require.New(t)
	sink := NewConnSink(4)

	// Given a connection torn down between resolution and send
	sink.close()

	// When the fan-out worker still writes to the stale handle
	err := sink.Consume(context.Background(), event.TypingStarted{Room: "general", User: "alice"})

	// Then the write is silently discarded
	req.NoError(err)
	req.Empty(sink.Frames())
}

func TestConnSink_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	req := require.New(t)
	sink := NewConnSink(1)

	req.NoError(sink.Consume(context.Background(), event.TypingStarted{Room: "general", User: "alice"}))

	// When a second event arrives before the pump drained the first
	req.NoError(sink.Consume(context.Background(), event.TypingStopped{Room: "general", User: "alice"}))

	// Then only the buffered frame remains; fan-out never blocked
	req.Len(sink.Frames(), 1)
	frame := <-sink.Frames()
	req.Equal("typing_started", frame.Kind)
}

func TestConnSink_CloseIsIdempotent(t *testing.T) {
	sink := NewConnSink(1)
	sink.close()
	sink.close()
}
