//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks
package repositories

import (
	"context"
	"time"

	"chat-hub/domain"

	"github.com/google/uuid"
)

// DiskMessage is the persisted shape of a message.
type DiskMessage struct {
	ID            uuid.UUID `json:"id"`
	Room          string    `json:"room"`
	Author        string    `json:"author"`
	Content       string    `json:"content"`
	AttachmentRef string    `json:"attachment_ref,omitempty"`
	Sequence      uint64    `json:"sequence"`
	At            time.Time `json:"at"`
}

// Store is the narrow durable-store interface consumed by the
// coordinator. The store owns sequence assignment: AppendMessage returns
// the per-conversation sequence number recorded with the message.
// Retries are the store's own concern; callers never retry.
type Store interface {
	AppendMessage(ctx context.Context, msg DiskMessage) (uint64, error)
	FetchHistory(ctx context.Context, room domain.ConversationID, sinceSequence uint64) ([]DiskMessage, error)
	FetchMembership(ctx context.Context, room domain.ConversationID) (map[domain.UserID]struct{}, error)
	UpdateReadCursor(ctx context.Context, room domain.ConversationID, user domain.UserID, sequence uint64) error
	ReadCursor(ctx context.Context, room domain.ConversationID, user domain.UserID) (uint64, error)
	// PutMembership is the entry point for the external
	// conversation-management collaborator and for test harnesses.
	PutMembership(ctx context.Context, room domain.ConversationID, users []domain.UserID) error
}
