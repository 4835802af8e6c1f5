package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chat-hub/domain"
	apperrors "chat-hub/errors"
	"chat-hub/runtime"
	"chat-hub/services"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// client pairs one websocket connection with its registry handle and
// sink. The read pump turns frames into service calls; the write pump
// drains the sink. Registration happens before the pumps start and
// deregistration is owed to the read pump's defer, so a handle is
// never left behind by an abrupt disconnect.
type client struct {
	log        *slog.Logger
	conn       *websocket.Conn
	service    services.IChatService
	sink       *ConnSink
	handle     *runtime.Connection
	user       domain.UserID
	maxMessage int64
}

func newClient(log *slog.Logger, conn *websocket.Conn, service services.IChatService,
	user domain.UserID, bufferSize int, maxMessage int64) *client {
	sink := NewConnSink(bufferSize)
	return &client{
		log:        log.With("user", user),
		conn:       conn,
		service:    service,
		sink:       sink,
		handle:     service.NewConnection(sink),
		user:       user,
		maxMessage: maxMessage,
	}
}

func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.service.Detach(c.handle)
		c.sink.close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("unexpected close", "error", err)
			}
			return
		}

		c.service.Activity(c.handle)

		var frame InboundFrame
		if err = json.Unmarshal(raw, &frame); err != nil {
			c.pushError(apperrors.CodeInvalidEvent, "malformed frame")
			continue
		}
		if err = frame.Validate(); err != nil {
			c.pushError(apperrors.CodeInvalidEvent, err.Error())
			continue
		}

		c.handleFrame(ctx, frame)
	}
}

// handleFrame maps one inbound frame to its router operation. Failures
// go back to this connection only, never to other recipients.
func (c *client) handleFrame(ctx context.Context, frame InboundFrame) {
	room := domain.ConversationID(frame.ConversationID)

	switch frame.Kind {
	case "send_message":
		msg, err := c.service.SendMessage(ctx, domain.SendMessageCommand{
			Room:          room,
			Sender:        c.user,
			Content:       frame.Content,
			AttachmentRef: frame.AttachmentRef,
			CreatedAt:     time.Now().UTC(),
		})
		if err != nil {
			c.pushDomainError(err)
			return
		}
		c.sink.push(OutboundFrame{
			Kind:           frameAck,
			ConversationID: frame.ConversationID,
			Sequence:       msg.Sequence,
			MessageID:      msg.ID.String(),
		})

	case "typing_start", "typing_stop":
		err := c.service.Typing(ctx, domain.TypingCommand{
			Room:    room,
			Actor:   c.user,
			Started: frame.Kind == "typing_start",
		})
		if err != nil {
			c.pushDomainError(err)
		}

	case "mark_read":
		err := c.service.MarkRead(ctx, domain.MarkReadCommand{
			Room:         room,
			Reader:       c.user,
			UpToSequence: frame.UpToSequence,
		})
		if err != nil {
			c.pushDomainError(err)
		}

	case "fetch_history":
		messages, err := c.service.History(ctx, domain.FetchHistoryCommand{
			Room:          room,
			Requester:     c.user,
			SinceSequence: frame.SinceSequence,
		})
		if err != nil {
			c.pushDomainError(err)
			return
		}
		c.sink.push(OutboundFrame{
			Kind:           frameHistory,
			ConversationID: frame.ConversationID,
			Messages:       toMessageFrames(messages),
		})

	default:
		c.pushError(apperrors.CodeInvalidEvent, fmt.Sprintf("unknown kind %q", frame.Kind))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.sink.Frames():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				c.log.Debug("write failed, dropping connection", "error", err)
				return
			}
		case <-c.sink.done:
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) pushDomainError(err error) {
	c.log.Debug("inbound event rejected", "error", err)
	c.pushError(apperrors.MapToWireCode(err), err.Error())
}

func (c *client) pushError(code, detail string) {
	c.sink.push(OutboundFrame{Kind: frameError, Code: code, Detail: detail})
}
