package runtime

import (
	"context"
	"testing"

	"chat-hub/domain"
	"chat-hub/domain/event"
	apperrors "chat-hub/errors"
	"chat-hub/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type nopSink struct{}

func (nopSink) Consume(ctx context.Context, e event.OutboundEvent) error {
	return nil
}

func TestRegistry_Register_FirstConnectionOpensPresence(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	registry := NewRegistry(presence)
	alice := domain.UserID("alice")

	// Given alice has no live connection
	req.Zero(registry.ConnectionCount(alice))

	// Then the first registration opens presence
	presence.EXPECT().ConnectionOpened(alice).Times(1)

	// When a connection is registered
	conn := NewConnection(nopSink{})
	err := registry.Register(conn, alice)

	req.NoError(err)
	req.Equal(1, registry.ConnectionCount(alice))
	req.Equal(alice, conn.User())
}

func TestRegistry_Register_SecondConnectionIsActivityOnly(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	registry := NewRegistry(presence)
	alice := domain.UserID("alice")

	// Given alice is already connected once
	presence.EXPECT().ConnectionOpened(alice).Times(1)
	req.NoError(registry.Register(NewConnection(nopSink{}), alice))

	// Then a second device never re-opens presence
	presence.EXPECT().Activity(alice).Times(1)

	// When a second connection is registered
	req.NoError(registry.Register(NewConnection(nopSink{}), alice))

	req.Equal(2, registry.ConnectionCount(alice))
}

func TestRegistry_Register_DuplicateBinding(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	presence.EXPECT().ConnectionOpened(gomock.Any()).Times(1)
	registry := NewRegistry(presence)

	// Given a connection already bound to alice
	conn := NewConnection(nopSink{})
	req.NoError(registry.Register(conn, "alice"))

	// When the same connection is registered again
	err := registry.Register(conn, "bob")

	// Then the binding is refused and bob gains no connection
	req.ErrorIs(err, apperrors.ErrDuplicateBinding)
	req.Zero(registry.ConnectionCount("bob"))
}

func TestRegistry_Unregister_LastConnectionClosesPresence(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	registry := NewRegistry(presence)
	alice := domain.UserID("alice")

	presence.EXPECT().ConnectionOpened(alice).Times(1)
	presence.EXPECT().Activity(alice).Times(1)
	first := NewConnection(nopSink{})
	second := NewConnection(nopSink{})
	req.NoError(registry.Register(first, alice))
	req.NoError(registry.Register(second, alice))

	// When the first connection goes away the user is still reachable
	presence.EXPECT().ConnectionClosed(alice, false).Times(1)
	registry.Unregister(first)
	req.Equal(1, registry.ConnectionCount(alice))

	// Then closing the last one hands off the offline transition
	presence.EXPECT().ConnectionClosed(alice, true).Times(1)
	registry.Unregister(second)
	req.Zero(registry.ConnectionCount(alice))
}

func TestRegistry_Unregister_Idempotent(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	registry := NewRegistry(presence)

	presence.EXPECT().ConnectionOpened(domain.UserID("alice")).Times(1)
	conn := NewConnection(nopSink{})
	req.NoError(registry.Register(conn, "alice"))

	// When the connection is torn down twice (transport close racing a
	// server-side eviction) only one ConnectionClosed reaches presence
	presence.EXPECT().ConnectionClosed(domain.UserID("alice"), true).Times(1)
	registry.Unregister(conn)
	registry.Unregister(conn)
}

func TestRegistry_SinksFor_SkipsClosedConnections(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	presence := mocks.NewMockIPresence(ctrl)
	presence.EXPECT().ConnectionOpened(gomock.Any()).AnyTimes()
	presence.EXPECT().Activity(gomock.Any()).AnyTimes()
	presence.EXPECT().ConnectionClosed(gomock.Any(), gomock.Any()).AnyTimes()
	registry := NewRegistry(presence)
	alice := domain.UserID("alice")

	// Given two live connections
	first := NewConnection(nopSink{})
	second := NewConnection(nopSink{})
	req.NoError(registry.Register(first, alice))
	req.NoError(registry.Register(second, alice))
	req.Len(registry.SinksFor(alice), 2)

	// When one connection is unregistered
	registry.Unregister(first)

	// Then dispatch resolution only sees the live one
	req.Len(registry.SinksFor(alice), 1)
	req.Empty(registry.SinksFor("bob"))
}
