package ws

import (
	"time"

	"chat-hub/domain"
	"chat-hub/domain/event"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

// InboundFrame is one client event, tagged by kind. Authentication
// happens at handshake time, before the first frame is read.
type InboundFrame struct {
	Kind           string `json:"kind" validate:"required,oneof=send_message typing_start typing_stop mark_read fetch_history"`
	ConversationID string `json:"conversation_id" validate:"required"`
	Content        string `json:"content,omitempty"`
	AttachmentRef  string `json:"attachment_ref,omitempty"`
	UpToSequence   uint64 `json:"up_to_sequence,omitempty"`
	SinceSequence  uint64 `json:"since_sequence,omitempty"`
}

func (f InboundFrame) Validate() error {
	return validate.Struct(f)
}

// OutboundFrame is the wire shape of every server-to-client event.
type OutboundFrame struct {
	Kind           string         `json:"kind"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Actor          string         `json:"actor,omitempty"`
	MessageID      string         `json:"message_id,omitempty"`
	Content        string         `json:"content,omitempty"`
	AttachmentRef  string         `json:"attachment_ref,omitempty"`
	Sequence       uint64         `json:"sequence,omitempty"`
	UpToSequence   uint64         `json:"up_to_sequence,omitempty"`
	Status         string         `json:"status,omitempty"`
	Timestamp      *time.Time     `json:"timestamp,omitempty"`
	Messages       []MessageFrame `json:"messages,omitempty"`
	Code           string         `json:"code,omitempty"`
	Detail         string         `json:"detail,omitempty"`
}

type MessageFrame struct {
	MessageID     string    `json:"message_id"`
	Author        string    `json:"author"`
	Content       string    `json:"content"`
	AttachmentRef string    `json:"attachment_ref,omitempty"`
	Sequence      uint64    `json:"sequence"`
	Timestamp     time.Time `json:"timestamp"`
}

const (
	frameAck     = "ack"
	frameError   = "error"
	frameHistory = "history"
)

// toOutboundFrame flattens a router event into its wire shape.
func toOutboundFrame(e event.OutboundEvent) OutboundFrame {
	switch evt := e.(type) {
	case event.MessageDelivered:
		at := evt.At
		return OutboundFrame{
			Kind:           string(evt.Kind()),
			ConversationID: string(evt.Room),
			Actor:          string(evt.Sender),
			MessageID:      evt.ID.String(),
			Content:        evt.Content,
			AttachmentRef:  evt.AttachmentRef,
			Sequence:       evt.Sequence,
			Timestamp:      &at,
		}
	case event.MessageRead:
		at := evt.At
		return OutboundFrame{
			Kind:           string(evt.Kind()),
			ConversationID: string(evt.Room),
			Actor:          string(evt.Reader),
			UpToSequence:   evt.UpToSequence,
			Timestamp:      &at,
		}
	case event.PresenceChanged:
		at := evt.LastSeen
		return OutboundFrame{
			Kind:      string(evt.Kind()),
			Actor:     string(evt.User),
			Status:    string(evt.Status),
			Timestamp: &at,
		}
	default:
		return OutboundFrame{
			Kind:           string(e.Kind()),
			ConversationID: string(e.Conversation()),
			Actor:          string(e.Actor()),
		}
	}
}

func toMessageFrames(messages []domain.Message) []MessageFrame {
	return lo.Map(messages, func(m domain.Message, _ int) MessageFrame {
		return MessageFrame{
			MessageID:     m.ID.String(),
			Author:        string(m.Sender),
			Content:       m.Content,
			AttachmentRef: m.AttachmentRef,
			Sequence:      m.Sequence,
			Timestamp:     m.CreatedAt,
		}
	})
}
