package runtime

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	apperrors "chat-hub/errors"
	"chat-hub/moderation"
	"chat-hub/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const routerLockShards = 128

// Router is the serialization point for all state-affecting events
// within one conversation. Sequence assignment plus the store append is
// the only critical section; it is guarded by a lock sharded on the
// conversation id so unrelated conversations never contend. Dispatch
// happens outside the lock through the outbound queue, which preserves
// acceptance order.
type Router struct {
	log       *slog.Logger
	store     repositories.Store
	rooms     contract.IRoomManager
	moderator *moderation.Moderator
	typing    *typingTracker
	outbound  chan contract.Dispatch
	locks     [routerLockShards]sync.Mutex
}

func NewRouter(log *slog.Logger, store repositories.Store, rooms contract.IRoomManager,
	moderator *moderation.Moderator, typingTimeout time.Duration, bufferSize int) *Router {
	r := &Router{
		log:       log,
		store:     store,
		rooms:     rooms,
		moderator: moderator,
		outbound:  make(chan contract.Dispatch, bufferSize),
	}
	r.typing = newTypingTracker(typingTimeout, r.typingExpired)
	return r
}

// Outbound is the queue drained by the fan-out worker.
func (r *Router) Outbound() <-chan contract.Dispatch {
	return r.outbound
}

func (r *Router) lockFor(room domain.ConversationID) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(room))
	return &r.locks[h.Sum32()%routerLockShards]
}

// SendMessage validates membership, assigns the next sequence number
// through the durable append, and fans out to every member's live
// connections including the sender's other devices. A message is never
// fanned out unless durably recorded first: on persistence failure the
// caller gets the error and nobody gets the event.
func (r *Router) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	members, err := r.membersWithActor(ctx, cmd.Room, cmd.Sender)
	if err != nil {
		return domain.Message{}, err
	}

	content := cmd.Content
	if r.moderator != nil {
		content = r.moderator.Censor(content)
	}

	msg := domain.Message{
		ID:            uuid.New(),
		Conversation:  cmd.Room,
		Sender:        cmd.Sender,
		Content:       content,
		AttachmentRef: cmd.AttachmentRef,
		CreatedAt:     cmd.CreatedAt,
	}

	// Critical section: sequence assignment and append only. The
	// enqueue stays inside so acceptance order and delivery order
	// cannot diverge between two racing senders.
	lock := r.lockFor(cmd.Room)
	lock.Lock()
	seq, err := r.store.AppendMessage(ctx, toDiskMessage(msg))
	if err != nil {
		lock.Unlock()
		return domain.Message{}, err
	}
	msg.Sequence = seq
	r.enqueue(contract.Dispatch{
		Event: event.MessageDelivered{
			ID:            msg.ID,
			Room:          msg.Conversation,
			Sender:        msg.Sender,
			Content:       msg.Content,
			AttachmentRef: msg.AttachmentRef,
			Sequence:      seq,
			At:            msg.CreatedAt,
		},
		Recipients: members,
	})
	lock.Unlock()

	return msg, nil
}

// Typing updates the ephemeral indicator and notifies the other
// members. Nothing is persisted; repeated starts only refresh the
// expiry timer and dispatch nothing.
func (r *Router) Typing(ctx context.Context, cmd domain.TypingCommand) error {
	members, err := r.membersWithActor(ctx, cmd.Room, cmd.Actor)
	if err != nil {
		return err
	}

	if cmd.Started {
		if !r.typing.start(cmd.Room, cmd.Actor) {
			return nil
		}
		r.enqueue(contract.Dispatch{
			Event:      event.TypingStarted{Room: cmd.Room, User: cmd.Actor},
			Recipients: without(members, cmd.Actor),
		})
		return nil
	}

	if !r.typing.stop(cmd.Room, cmd.Actor) {
		return nil
	}
	r.enqueue(contract.Dispatch{
		Event:      event.TypingStopped{Room: cmd.Room, User: cmd.Actor},
		Recipients: without(members, cmd.Actor),
	})
	return nil
}

// typingExpired synthesizes the stop a client never sent. Membership is
// resolved best-effort from the cache; an unreachable store simply
// drops the indicator.
func (r *Router) typingExpired(room domain.ConversationID, user domain.UserID) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	members, err := r.rooms.MembersOf(ctx, room)
	if err != nil {
		r.log.Debug("typing expiry without reachable membership, dropping",
			"room", room, "user", user, "error", err)
		return
	}
	r.enqueue(contract.Dispatch{
		Event:      event.TypingStopped{Room: room, User: user},
		Recipients: without(members, user),
	})
}

// MarkRead persists the reader's cursor and notifies the author of the
// acknowledged message on their live connections.
func (r *Router) MarkRead(ctx context.Context, cmd domain.MarkReadCommand) error {
	if _, err := r.membersWithActor(ctx, cmd.Room, cmd.Reader); err != nil {
		return err
	}

	if err := r.store.UpdateReadCursor(ctx, cmd.Room, cmd.Reader, cmd.UpToSequence); err != nil {
		return err
	}

	sender, ok := r.senderOf(ctx, cmd.Room, cmd.UpToSequence)
	if !ok || sender == cmd.Reader {
		return nil
	}
	r.enqueue(contract.Dispatch{
		Event: event.MessageRead{
			Room:         cmd.Room,
			Reader:       cmd.Reader,
			Sender:       sender,
			UpToSequence: cmd.UpToSequence,
			At:           time.Now().UTC(),
		},
		Recipients: map[domain.UserID]struct{}{sender: {}},
	})
	return nil
}

// History serves the catch-up query over the live connection, with the
// same membership gate as every other inbound event.
func (r *Router) History(ctx context.Context, cmd domain.FetchHistoryCommand) ([]domain.Message, error) {
	if _, err := r.membersWithActor(ctx, cmd.Room, cmd.Requester); err != nil {
		return nil, err
	}
	disk, err := r.store.FetchHistory(ctx, cmd.Room, cmd.SinceSequence)
	if err != nil {
		return nil, err
	}
	return lo.Map(disk, func(m repositories.DiskMessage, _ int) domain.Message {
		return fromDiskMessage(m)
	}), nil
}

// PublishPresence resolves the audience of a presence transition
// lazily (everyone sharing a cached conversation) and enqueues it.
func (r *Router) PublishPresence(evt event.PresenceChanged) {
	audience := r.rooms.SharedWith(evt.User)
	if len(audience) == 0 {
		return
	}
	r.enqueue(contract.Dispatch{Event: evt, Recipients: audience})
}

// TypingCount reports in-flight typing indicators, for telemetry.
func (r *Router) TypingCount() int {
	return r.typing.active()
}

func (r *Router) membersWithActor(ctx context.Context, room domain.ConversationID, actor domain.UserID) (map[domain.UserID]struct{}, error) {
	members, err := r.rooms.MembersOf(ctx, room)
	if err != nil {
		return nil, err
	}
	if _, ok := members[actor]; !ok {
		return nil, fmt.Errorf("%w: %s in %s", apperrors.ErrNotAMember, actor, room)
	}
	return members, nil
}

func (r *Router) enqueue(d contract.Dispatch) {
	select {
	case r.outbound <- d:
	default:
		// The queue is sized for bursts; a full queue means the
		// fan-out worker is down or stalled. Block rather than drop:
		// the event is already durable and dropping here would break
		// the ordering guarantee for later sends.
		r.log.Warn("outbound queue full, backpressuring", "kind", d.Event.Kind())
		r.outbound <- d
	}
}

func without(members map[domain.UserID]struct{}, excluded domain.UserID) map[domain.UserID]struct{} {
	recipients := make(map[domain.UserID]struct{}, len(members))
	for member := range members {
		if member != excluded {
			recipients[member] = struct{}{}
		}
	}
	return recipients
}

func (r *Router) senderOf(ctx context.Context, room domain.ConversationID, sequence uint64) (domain.UserID, bool) {
	if sequence == 0 {
		return "", false
	}
	history, err := r.store.FetchHistory(ctx, room, sequence-1)
	if err != nil || len(history) == 0 || history[0].Sequence != sequence {
		return "", false
	}
	return domain.UserID(history[0].Author), true
}

func toDiskMessage(msg domain.Message) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:            msg.ID,
		Room:          string(msg.Conversation),
		Author:        string(msg.Sender),
		Content:       msg.Content,
		AttachmentRef: msg.AttachmentRef,
		Sequence:      msg.Sequence,
		At:            msg.CreatedAt,
	}
}

func fromDiskMessage(m repositories.DiskMessage) domain.Message {
	return domain.Message{
		ID:            m.ID,
		Conversation:  domain.ConversationID(m.Room),
		Sender:        domain.UserID(m.Author),
		Content:       m.Content,
		AttachmentRef: m.AttachmentRef,
		Sequence:      m.Sequence,
		CreatedAt:     m.At,
	}
}

var _ contract.IRouter = (*Router)(nil)
