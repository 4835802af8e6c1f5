package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chat-hub/auth"
	"chat-hub/infrastructure/ws"
	"chat-hub/internal"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and centralizes error reporting so
// deferred cleanups (database close, worker drain) execute before the
// process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	store := repositories.NewBadgerStore(db, log)

	// 3. Moderation (optional: no word list, no censor pass)
	var moderator *moderation.Moderator
	if len(config.ModerationWords) > 0 {
		mask, err := internal.CharacterRune(config.ModerationCharReplacement)
		if err != nil {
			return err
		}
		if moderator, err = moderation.NewModerator(config.ModerationWords, mask); err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
		log.Info("Moderation enabled", "words", len(config.ModerationWords))
	}

	// 4. Coordination core
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	coordinator := runtime.NewCoordinator(log, supervisor, store, moderator, runtime.Options{
		MembershipStaleness: config.MembershipStaleness,
		TypingTimeout:       config.TypingTimeout,
		AwayTimeout:         config.AwayTimeout,
		OfflineDebounce:     config.OfflineDebounce,
		BufferSize:          config.BufferSize,
		SinkTimeout:         config.SinkTimeout,
		MetricInterval:      config.MetricInterval,
		JanitorInterval:     config.JanitorInterval,
	})

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator.Start(ctx)

	// 6. Transport
	verifier := auth.NewVerifier(config.AuthSecret, config.AuthIssuer)
	service := services.NewChatService(coordinator)
	server := ws.NewServer(log, ws.ServerConfig{
		Addr:                 fmt.Sprintf("%s:%d", config.Host, config.Port),
		ConnectionBufferSize: config.ConnectionBufferSize,
		MaxMessageSize:       config.MaxMessageSize,
		ShutdownTimeout:      config.ShutdownTimeout,
	}, service, verifier, store, coordinator.Rooms())

	// 7. Serve until signal, then drain transport before the workers.
	if err = server.Run(ctx); err != nil {
		return fmt.Errorf("transport error: %w", err)
	}

	coordinator.Stop()
	log.Info("Program stopped cleanly")
	return nil
}
