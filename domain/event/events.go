// Package event defines the outbound events fanned out to live
// connections. Every event is tagged with a kind so the transport can
// encode it without reflection on the consumer side.
package event

import (
	"time"

	"chat-hub/domain"

	"github.com/google/uuid"
)

type Kind string

const (
	KindMessageDelivered Kind = "message_delivered"
	KindTypingStarted    Kind = "typing_started"
	KindTypingStopped    Kind = "typing_stopped"
	KindMessageRead      Kind = "message_read"
	KindPresenceChanged  Kind = "presence_changed"
)

// OutboundEvent is the tagged variant dispatched to recipients.
// PresenceChanged is the only kind not scoped to a conversation; its
// Conversation method returns the zero ConversationID.
type OutboundEvent interface {
	Conversation() domain.ConversationID
	Actor() domain.UserID
	Kind() Kind
}

// MessageDelivered is emitted after a message has been durably
// recorded. Sequence is the per-conversation total-order anchor.
type MessageDelivered struct {
	ID            uuid.UUID
	Room          domain.ConversationID
	Sender        domain.UserID
	Content       string
	AttachmentRef string
	Sequence      uint64
	At            time.Time
}

func (e MessageDelivered) Conversation() domain.ConversationID { return e.Room }
func (e MessageDelivered) Actor() domain.UserID                { return e.Sender }
func (e MessageDelivered) Kind() Kind                          { return KindMessageDelivered }

type TypingStarted struct {
	Room domain.ConversationID
	User domain.UserID
}

func (e TypingStarted) Conversation() domain.ConversationID { return e.Room }
func (e TypingStarted) Actor() domain.UserID                { return e.User }
func (e TypingStarted) Kind() Kind                          { return KindTypingStarted }

type TypingStopped struct {
	Room domain.ConversationID
	User domain.UserID
}

func (e TypingStopped) Conversation() domain.ConversationID { return e.Room }
func (e TypingStopped) Actor() domain.UserID                { return e.User }
func (e TypingStopped) Kind() Kind                          { return KindTypingStopped }

// MessageRead acknowledges messages up to UpToSequence. Sender is the
// author of the acknowledged message and the sole dispatch target.
type MessageRead struct {
	Room         domain.ConversationID
	Reader       domain.UserID
	Sender       domain.UserID
	UpToSequence uint64
	At           time.Time
}

func (e MessageRead) Conversation() domain.ConversationID { return e.Room }
func (e MessageRead) Actor() domain.UserID                { return e.Reader }
func (e MessageRead) Kind() Kind                          { return KindMessageRead }

type PresenceChanged struct {
	User     domain.UserID
	Status   domain.PresenceStatus
	LastSeen time.Time
}

func (e PresenceChanged) Conversation() domain.ConversationID { return "" }
func (e PresenceChanged) Actor() domain.UserID                { return e.User }
func (e PresenceChanged) Kind() Kind                          { return KindPresenceChanged }
