package ws

import (
	"testing"
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestInboundFrame_Validate(t *testing.T) {
	req := require.New(t)

	// Given a well-formed send frame
	frame := InboundFrame{
		Kind:           "send_message",
		ConversationID: "general",
		Content:        "hello",
	}
	req.NoError(frame.Validate())

	// Then an unknown kind is rejected
	frame.Kind = "shout"
	req.Error(frame.Validate())

	// And a frame without a conversation is rejected
	req.Error(InboundFrame{Kind: "typing_start"}.Validate())
}

func TestToOutboundFrame_MessageDelivered(t *testing.T) {
	req := require.New(t)
	id := uuid.New()
	at := time.Now().UTC()

	frame := toOutboundFrame(event.MessageDelivered{
		ID:       id,
		Room:     "general",
		Sender:   "alice",
		Content:  "hello",
		Sequence: 7,
		At:       at,
	})

	req.Equal("message_delivered", frame.Kind)
	req.Equal("general", frame.ConversationID)
	req.Equal("alice", frame.Actor)
	req.Equal(id.String(), frame.MessageID)
	req.Equal("hello", frame.Content)
	req.Equal(uint64(7), frame.Sequence)
	req.NotNil(frame.Timestamp)
	req.Equal(at, *frame.Timestamp)
}

func TestToOutboundFrame_TypingAndPresence(t *testing.T) {
	req := require.New(t)

	typing := toOutboundFrame(event.TypingStarted{Room: "general", User: "bob"})
	req.Equal("typing_started", typing.Kind)
	req.Equal("general", typing.ConversationID)
	req.Equal("bob", typing.Actor)

	presence := toOutboundFrame(event.PresenceChanged{
		User:     "bob",
		Status:   domain.PresenceAway,
		LastSeen: time.Now().UTC(),
	})
	req.Equal("presence_changed", presence.Kind)
	req.Empty(presence.ConversationID)
	req.Equal("bob", presence.Actor)
	req.Equal("away", presence.Status)
}

func TestToMessageFrames(t *testing.T) {
	req := require.New(t)
	id := uuid.New()
	at := time.Now().UTC()

	frames := toMessageFrames([]domain.Message{{
		ID:           id,
		Conversation: "general",
		Sender:       "alice",
		Content:      "hello",
		Sequence:     3,
		CreatedAt:    at,
	}})

	req.Len(frames, 1)
	req.Equal(id.String(), frames[0].MessageID)
	req.Equal("alice", frames[0].Author)
	req.Equal(uint64(3), frames[0].Sequence)
	req.Equal(at, frames[0].Timestamp)
}
