package domain

import (
	"time"
)

// Command is an inbound client intent, tagged by its conversation.
type Command interface {
	Conversation() ConversationID
}

type SendMessageCommand struct {
	Room          ConversationID
	Sender        UserID
	Content       string
	AttachmentRef string
	CreatedAt     time.Time
}

func (c SendMessageCommand) Conversation() ConversationID { return c.Room }

type TypingCommand struct {
	Room    ConversationID
	Actor   UserID
	Started bool
}

func (c TypingCommand) Conversation() ConversationID { return c.Room }

type MarkReadCommand struct {
	Room         ConversationID
	Reader       UserID
	UpToSequence uint64
}

func (c MarkReadCommand) Conversation() ConversationID { return c.Room }

type FetchHistoryCommand struct {
	Room          ConversationID
	Requester     UserID
	SinceSequence uint64
}

func (c FetchHistoryCommand) Conversation() ConversationID { return c.Room }
