package e2e

import (
	"testing"

	"chat-hub/infrastructure/ws"

	"github.com/stretchr/testify/require"
)

func TestScenario_TwoClientsExchangeMessagesInOrder(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.putMembership(t, "general", "alice", "bob")

	alice := h.dial(t, "alice")
	bob := h.dial(t, "bob")

	// When alice posts two messages
	h.send(t, alice, ws.InboundFrame{Kind: "send_message", ConversationID: "general", Content: "first"})
	ack := h.awaitKind(t, alice, "ack")
	req.Equal(uint64(1), ack.Sequence)

	h.send(t, alice, ws.InboundFrame{Kind: "send_message", ConversationID: "general", Content: "second"})
	ack = h.awaitKind(t, alice, "ack")
	req.Equal(uint64(2), ack.Sequence)

	// Then bob observes them in sequence order
	first := h.awaitKind(t, bob, "message_delivered")
	req.Equal(uint64(1), first.Sequence)
	req.Equal("first", first.Content)
	req.Equal("alice", first.Actor)

	second := h.awaitKind(t, bob, "message_delivered")
	req.Equal(uint64(2), second.Sequence)
	req.Equal("second", second.Content)

	// And alice's own device receives the fan-out too
	own := h.awaitKind(t, alice, "message_delivered")
	req.NotZero(own.Sequence)
	req.Equal("alice", own.Actor)
}

func TestScenario_OfflineRecipientCatchesUpThroughHistory(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.putMembership(t, "general", "alice", "bob")

	alice := h.dial(t, "alice")

	// Given messages sent while bob is offline
	h.send(t, alice, ws.InboundFrame{Kind: "send_message", ConversationID: "general", Content: "you there?"})
	h.awaitKind(t, alice, "ack")

	// When bob connects and asks for history since his last sequence
	bob := h.dial(t, "bob")
	h.send(t, bob, ws.InboundFrame{Kind: "fetch_history", ConversationID: "general", SinceSequence: 0})

	// Then the missed message comes back
	history := h.awaitKind(t, bob, "history")
	req.Len(history.Messages, 1)
	req.Equal("you there?", history.Messages[0].Content)
	req.Equal(uint64(1), history.Messages[0].Sequence)
}

func TestScenario_NonMemberIsRejectedWithoutSideEffects(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.putMembership(t, "general", "alice", "bob")

	carol := h.dial(t, "carol")

	// When a non-member tries to post
	h.send(t, carol, ws.InboundFrame{Kind: "send_message", ConversationID: "general", Content: "let me in"})

	// Then only carol hears about it
	failure := h.awaitKind(t, carol, "error")
	req.Equal("not_a_member", failure.Code)

	// And the conversation log is untouched
	alice := h.dial(t, "alice")
	h.send(t, alice, ws.InboundFrame{Kind: "fetch_history", ConversationID: "general", SinceSequence: 0})
	history := h.awaitKind(t, alice, "history")
	req.Empty(history.Messages)
}

func TestScenario_TypingIndicatorReachesOtherMembersOnly(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.putMembership(t, "general", "alice", "bob")

	alice := h.dial(t, "alice")
	bob := h.dial(t, "bob")

	// When alice starts typing
	h.send(t, alice, ws.InboundFrame{Kind: "typing_start", ConversationID: "general"})

	// Then bob sees the indicator
	typing := h.awaitKind(t, bob, "typing_started")
	req.Equal("alice", typing.Actor)
	req.Equal("general", typing.ConversationID)

	// And the explicit stop follows
	h.send(t, alice, ws.InboundFrame{Kind: "typing_stop", ConversationID: "general"})
	stopped := h.awaitKind(t, bob, "typing_stopped")
	req.Equal("alice", stopped.Actor)
}

func TestScenario_ReadReceiptReachesTheAuthor(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.putMembership(t, "general", "alice", "bob")

	alice := h.dial(t, "alice")
	bob := h.dial(t, "bob")

	// Given a message from alice that bob received
	h.send(t, alice, ws.InboundFrame{Kind: "send_message", ConversationID: "general", Content: "ping"})
	delivered := h.awaitKind(t, bob, "message_delivered")

	// When bob acknowledges it
	h.send(t, bob, ws.InboundFrame{Kind: "mark_read", ConversationID: "general", UpToSequence: delivered.Sequence})

	// Then alice is notified of the read position
	read := h.awaitKind(t, alice, "message_read")
	req.Equal("bob", read.Actor)
	req.Equal(delivered.Sequence, read.UpToSequence)
}

func TestScenario_ModerationMasksContentBeforeFanout(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	h.putMembership(t, "general", "alice", "bob")

	alice := h.dial(t, "alice")
	bob := h.dial(t, "bob")

	// When a censored word is posted
	h.send(t, alice, ws.InboundFrame{Kind: "send_message", ConversationID: "general", Content: "release the badger"})
	h.awaitKind(t, alice, "ack")

	// Then recipients only ever see the masked content
	delivered := h.awaitKind(t, bob, "message_delivered")
	req.Equal("release the ******", delivered.Content)
}
