package workers

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/mocks"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestFanoutWorker_DeliversToEveryConnectionOfEveryRecipient(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := mocks.NewMockIRegistry(ctrl)

	aliceSink := mocks.NewMockEventSink(ctrl)
	bobSink1 := mocks.NewMockEventSink(ctrl)
	bobSink2 := mocks.NewMockEventSink(ctrl)

	outbound := make(chan contract.Dispatch, 1)
	worker := NewFanoutWorker(log, registry, outbound, time.Second)

	evt := event.MessageDelivered{Room: "general", Sender: "alice", Sequence: 1}

	// Given alice has one connection and bob has two
	registry.EXPECT().SinksFor(domain.UserID("alice")).
		Return([]contract.EventSink{aliceSink}).Times(1)
	registry.EXPECT().SinksFor(domain.UserID("bob")).
		Return([]contract.EventSink{bobSink1, bobSink2}).Times(1)
	aliceSink.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)
	bobSink1.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)
	bobSink2.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	// When the dispatch is fanned out
	worker.Fanout(context.Background(), contract.Dispatch{
		Event:      evt,
		Recipients: map[domain.UserID]struct{}{"alice": {}, "bob": {}},
	})

	req.True(ctrl.Satisfied())
}

func TestFanoutWorker_PerRecipientFailureIsIsolated(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := mocks.NewMockIRegistry(ctrl)

	failing := mocks.NewMockEventSink(ctrl)
	healthy := mocks.NewMockEventSink(ctrl)

	outbound := make(chan contract.Dispatch, 1)
	worker := NewFanoutWorker(log, registry, outbound, time.Second)

	evt := event.TypingStarted{Room: "general", User: "alice"}

	// Given one sink fails and another is healthy
	registry.EXPECT().SinksFor(domain.UserID("bob")).
		Return([]contract.EventSink{failing, healthy}).Times(1)
	failing.EXPECT().Consume(gomock.Any(), evt).
		Return(fmt.Errorf("connection closed")).Times(1)
	healthy.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)

	// When the dispatch is fanned out
	// Then the failure never aborts delivery to the healthy sink
	worker.Fanout(context.Background(), contract.Dispatch{
		Event:      evt,
		Recipients: map[domain.UserID]struct{}{"bob": {}},
	})

	req.True(ctrl.Satisfied())
}

func TestFanoutWorker_RunDrainsTheQueueInOrder(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)

	outbound := make(chan contract.Dispatch, 4)
	worker := NewFanoutWorker(log, registry, outbound, time.Second)

	// Given two queued dispatches for the same conversation
	var delivered []uint64
	done := make(chan struct{})
	registry.EXPECT().SinksFor(domain.UserID("bob")).
		Return([]contract.EventSink{sink}).Times(2)
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e event.OutboundEvent) error {
			delivered = append(delivered, e.(event.MessageDelivered).Sequence)
			if len(delivered) == 2 {
				close(done)
			}
			return nil
		}).Times(2)

	for seq := uint64(1); seq <= 2; seq++ {
		outbound <- contract.Dispatch{
			Event:      event.MessageDelivered{Room: "general", Sender: "alice", Sequence: seq},
			Recipients: map[domain.UserID]struct{}{"bob": {}},
		}
	}

	// When the worker drains the queue
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("queue was not drained in time")
	}

	// Then delivery order matches acceptance order
	req.Equal([]uint64{1, 2}, delivered)
}

func TestJanitorWorker_SweepsTheCache(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	swept := make(chan int, 8)
	worker := NewJanitorWorker(log, 10*time.Millisecond, sweepFunc(func(factor int) int {
		swept <- factor
		return 1
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	// Then the sweep runs periodically with the eviction factor
	select {
	case factor := <-swept:
		req.Equal(evictStaleFactor, factor)
	case <-time.After(time.Second):
		req.Fail("janitor never swept")
	}
}

type sweepFunc func(factor int) int

func (f sweepFunc) EvictStale(factor int) int { return f(factor) }
