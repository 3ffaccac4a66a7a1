package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken       string        `envconfig:"BOT_TOKEN" required:"true"`
	DBPath         string        `envconfig:"DB_PATH" default:"./data/reminders.db"`
	DefaultTZ      string        `envconfig:"DEFAULT_TZ" default:"UTC"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr       string        `envconfig:"HTTP_ADDR" default:":8080"`
	AdminIDs       []int64       `envconfig:"ADMIN_IDS"` // comma-separated Telegram user ids
	InitialCredits int           `envconfig:"INITIAL_CREDITS" default:"15"`
	StartupGrace   time.Duration `envconfig:"STARTUP_GRACE" default:"2s"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
