package services

import (
	"context"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/runtime"
)

// IChatService is the surface the transport layer talks to.
type IChatService interface {
	Attach(conn *runtime.Connection, user domain.UserID) error
	Detach(conn *runtime.Connection)
	Activity(conn *runtime.Connection)
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	Typing(ctx context.Context, cmd domain.TypingCommand) error
	MarkRead(ctx context.Context, cmd domain.MarkReadCommand) error
	History(ctx context.Context, cmd domain.FetchHistoryCommand) ([]domain.Message, error)
	NewConnection(sink contract.EventSink) *runtime.Connection
}

// ChatService glues the transport to the coordination core. It owns no
// state of its own.
type ChatService struct {
	coordinator *runtime.Coordinator
}

func NewChatService(coordinator *runtime.Coordinator) *ChatService {
	return &ChatService{coordinator: coordinator}
}

func (s *ChatService) NewConnection(sink contract.EventSink) *runtime.Connection {
	return runtime.NewConnection(sink)
}

// Attach binds an authenticated connection to its user in the
// registry, which drives the presence transition.
func (s *ChatService) Attach(conn *runtime.Connection, user domain.UserID) error {
	return s.coordinator.Registry().Register(conn, user)
}

func (s *ChatService) Detach(conn *runtime.Connection) {
	s.coordinator.Registry().Unregister(conn)
}

func (s *ChatService) Activity(conn *runtime.Connection) {
	s.coordinator.Registry().Touch(conn)
}

func (s *ChatService) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	return s.coordinator.Router().SendMessage(ctx, cmd)
}

func (s *ChatService) Typing(ctx context.Context, cmd domain.TypingCommand) error {
	return s.coordinator.Router().Typing(ctx, cmd)
}

func (s *ChatService) MarkRead(ctx context.Context, cmd domain.MarkReadCommand) error {
	return s.coordinator.Router().MarkRead(ctx, cmd)
}

func (s *ChatService) History(ctx context.Context, cmd domain.FetchHistoryCommand) ([]domain.Message, error) {
	return s.coordinator.Router().History(ctx, cmd)
}

var _ IChatService = (*ChatService)(nil)
