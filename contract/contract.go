//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-hub/domain"
	"chat-hub/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives one outbound event. A sink belongs to exactly one
// live connection; writing to a closed sink must be a no-op.
type EventSink interface {
	Consume(ctx context.Context, e event.OutboundEvent) error
}

// IRegistry is the dispatch-time view of the Connection Registry.
// SinksFor re-resolves live connections on every call so that a handle
// mid-teardown is never dispatched to.
type IRegistry interface {
	SinksFor(user domain.UserID) []EventSink
}

// IRoomManager isolates the "who can see this room" decision.
type IRoomManager interface {
	MembersOf(ctx context.Context, room domain.ConversationID) (map[domain.UserID]struct{}, error)
	Invalidate(room domain.ConversationID)
	SharedWith(user domain.UserID) map[domain.UserID]struct{}
}

// IRouter is the single serialization point for state-affecting events
// within one conversation.
type IRouter interface {
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	Typing(ctx context.Context, cmd domain.TypingCommand) error
	MarkRead(ctx context.Context, cmd domain.MarkReadCommand) error
}

// IPresence receives registry mutations; the registry is the sole
// trigger for presence transitions.
type IPresence interface {
	ConnectionOpened(user domain.UserID)
	ConnectionClosed(user domain.UserID, last bool)
	Activity(user domain.UserID)
	StatusOf(user domain.UserID) domain.Presence
}

// Dispatch is one accepted event plus the recipient set it resolved to
// at acceptance time. Connections are re-resolved per user at send
// time by the fan-out worker.
type Dispatch struct {
	Event      event.OutboundEvent
	Recipients map[domain.UserID]struct{}
}
