package internal

import (
	"fmt"
	"time"
)

type Config struct {
	BufferSize           int           `env:"BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	JanitorInterval      time.Duration `env:"JANITOR_INTERVAL,default=1m"`

	MembershipStaleness time.Duration `env:"MEMBERSHIP_STALENESS,default=30s"`
	TypingTimeout       time.Duration `env:"TYPING_TIMEOUT,default=6s"`
	AwayTimeout         time.Duration `env:"AWAY_TIMEOUT,default=5m"`
	OfflineDebounce     time.Duration `env:"OFFLINE_DEBOUNCE,default=3s"`

	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE,default=8192"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	ModerationWords           []string `env:"MODERATION_WORDS"`
	ModerationCharReplacement string   `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`

	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthIssuer        string        `env:"AUTH_ISSUER,default=chat-hub"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`
	Host           string `env:"HOST,default=localhost"`
	Port           int    `env:"PORT,default=8080"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"MODERATION_CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
