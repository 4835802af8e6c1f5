// Package ws is the transport layer: websocket handshake, per
// connection read/write pumps, and the wire schema for inbound and
// outbound events.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"chat-hub/auth"
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/repositories"
	"chat-hub/services"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type ServerConfig struct {
	Addr                 string
	ConnectionBufferSize int
	MaxMessageSize       int64
	ShutdownTimeout      time.Duration
}

// Server terminates client connections and hosts the membership hook
// called by the conversation-management collaborator.
type Server struct {
	log      *slog.Logger
	cfg      ServerConfig
	service  services.IChatService
	verifier *auth.Verifier
	store    repositories.Store
	rooms    contract.IRoomManager
	upgrader websocket.Upgrader
	http     *http.Server
}

func NewServer(log *slog.Logger, cfg ServerConfig, service services.IChatService,
	verifier *auth.Verifier, store repositories.Store, rooms contract.IRoomManager) *Server {
	s := &Server{
		log:      log,
		cfg:      cfg,
		service:  service,
		verifier: verifier,
		store:    store,
		rooms:    rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleConnect)
	mux.HandleFunc("PUT /conversations/{id}/members", s.handleMembershipUpdate)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.http = &http.Server{Addr: cfg.Addr, Handler: mux}
	return s
}

// Handler exposes the route table so in-process tests can mount it on
// their own listener.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then drains with the configured
// shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Transport listening", "addr", s.cfg.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

// handleConnect performs the handshake: token verification first, then
// the upgrade, then registration. The pumps own the connection from
// there; the read pump's defer detaches the handle on any exit path.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}
	user, err := s.verifier.VerifyToken(token)
	if err != nil {
		s.log.Debug("handshake rejected", "error", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", "error", err)
		return
	}

	c := newClient(s.log, conn, s.service, user, s.cfg.ConnectionBufferSize, s.cfg.MaxMessageSize)
	if err = s.service.Attach(c.handle, user); err != nil {
		s.log.Error("registration failed", "user", user, "error", err)
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(context.Background())
}

type membershipUpdate struct {
	Members []string `json:"members" validate:"required,min=1"`
}

// handleMembershipUpdate is the conversation-management collaborator
// hook: it stores the new authoritative membership and invalidates the
// cached snapshot so the next recipient resolution refetches.
func (s *Server) handleMembershipUpdate(w http.ResponseWriter, r *http.Request) {
	room := domain.ConversationID(r.PathValue("id"))

	var update membershipUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	members := lo.Map(update.Members, func(id string, _ int) domain.UserID {
		return domain.UserID(id)
	})
	if err := s.store.PutMembership(r.Context(), room, members); err != nil {
		s.log.Error("membership update failed", "room", room, "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	s.rooms.Invalidate(room)
	w.WriteHeader(http.StatusNoContent)
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
