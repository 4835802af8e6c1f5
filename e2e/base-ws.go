package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/infrastructure/ws"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const e2eSecret = "e2e-secret"

// harness runs the whole coordinator in-process: a real badger store in
// a temp dir, the supervised workers, and the websocket routes mounted
// on an httptest listener.
type harness struct {
	cfg      Config
	verifier *auth.Verifier
	server   *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	req := require.New(t)

	cfg, err := LoadConfig()
	req.NoError(err)

	log := slog.Default()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	store := repositories.NewBadgerStore(db, log)

	moderator, err := moderation.NewModerator([]string{"badger"}, '*')
	req.NoError(err)

	supervisor := workers.NewSupervisor(log, 100*time.Millisecond)
	coordinator := runtime.NewCoordinator(log, supervisor, store, moderator, runtime.Options{
		MembershipStaleness: time.Minute,
		TypingTimeout:       time.Minute,
		AwayTimeout:         time.Hour,
		OfflineDebounce:     100 * time.Millisecond,
		BufferSize:          64,
		SinkTimeout:         time.Second,
		MetricInterval:      time.Hour,
		JanitorInterval:     time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	coordinator.Start(ctx)
	t.Cleanup(func() {
		coordinator.Stop()
		cancel()
	})

	verifier := auth.NewVerifier(e2eSecret, "chat-hub")
	service := services.NewChatService(coordinator)
	wsServer := ws.NewServer(log, ws.ServerConfig{
		ConnectionBufferSize: 64,
		MaxMessageSize:       1 << 16,
		ShutdownTimeout:      time.Second,
	}, service, verifier, store, coordinator.Rooms())

	httpServer := httptest.NewServer(wsServer.Handler())
	t.Cleanup(httpServer.Close)

	return &harness{cfg: cfg, verifier: verifier, server: httpServer}
}

// putMembership stands in for the conversation-management collaborator.
func (h *harness) putMembership(t *testing.T, room string, members ...string) {
	t.Helper()
	req := require.New(t)

	body, err := json.Marshal(map[string][]string{"members": members})
	req.NoError(err)
	url := fmt.Sprintf("%s/conversations/%s/members", h.server.URL, room)
	request, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	req.NoError(err)

	response, err := http.DefaultClient.Do(request)
	req.NoError(err)
	defer response.Body.Close()
	req.Equal(http.StatusNoContent, response.StatusCode)
}

// dial opens an authenticated websocket for the given user.
func (h *harness) dial(t *testing.T, user string) *websocket.Conn {
	t.Helper()
	req := require.New(t)

	token, err := h.verifier.GenerateToken(domain.UserID(user), time.Minute)
	req.NoError(err)
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (h *harness) send(t *testing.T, conn *websocket.Conn, frame ws.InboundFrame) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

// awaitKind reads frames until one of the wanted kind arrives, skipping
// unrelated traffic such as presence transitions.
func (h *harness) awaitKind(t *testing.T, conn *websocket.Conn, kind string) ws.OutboundFrame {
	t.Helper()
	req := require.New(t)

	deadline := time.Now().Add(h.cfg.EventTimeout)
	for {
		req.NoError(conn.SetReadDeadline(deadline))
		var frame ws.OutboundFrame
		err := conn.ReadJSON(&frame)
		req.NoErrorf(err, "waiting for %q frame", kind)
		h.debug(frame)
		if frame.Kind == kind {
			return frame
		}
	}
}

func (h *harness) debug(frame ws.OutboundFrame) {
	if !h.cfg.DebugJSON {
		return
	}
	raw, _ := json.Marshal(frame)
	if h.cfg.Colours {
		color.Gray.Printf("<- %s\n", raw)
		return
	}
	fmt.Printf("<- %s\n", raw)
}
