package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat message. Sequence is assigned by
// the durable store at acceptance time and is strictly increasing per
// conversation.
type Message struct {
	ID            uuid.UUID
	Conversation  ConversationID
	Sender        UserID
	Content       string
	AttachmentRef string
	Sequence      uint64
	CreatedAt     time.Time
}
