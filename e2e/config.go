package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_EVENT_TIMEOUT bounds how long a scenario waits for one frame
	EventTimeout time.Duration `envconfig:"E2E_EVENT_TIMEOUT" default:"3s"`
	// E2E_DEBUG_JSON allows dumping full frames as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
