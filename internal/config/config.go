package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	HttpServerPort   uint16   `env:"HTTP_SERVER_PORT"   envDefault:"8085" validate:"min=1000,max=65535"`
	WsAllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
	WsSendBuffer     int      `env:"WS_SEND_BUFFER"     envDefault:"64"   validate:"min=1,max=4096"`

	Logging LoggingConfig

	RedisEnabled      bool   `env:"REDIS_ENABLED"       envDefault:"false"`
	RedisHost         string `env:"REDIS_HOST"          envDefault:"localhost"`
	RedisPort         uint16 `env:"REDIS_PORT"          envDefault:"6379"         validate:"min=1000,max=65535"`
	RedisEventsStream string `env:"REDIS_EVENTS_STREAM" envDefault:"lobby_events" validate:"required"`
	EventQueueSize    int    `env:"EVENT_QUEUE_SIZE"    envDefault:"1024"         validate:"min=1"`

	PostgresEnabled  bool   `env:"POSTGRES_ENABLED"  envDefault:"false"`
	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"lobby_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"lobby_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"lobby_db"`

	RoomSyncInterval time.Duration `env:"ROOM_SYNC_INTERVAL" envDefault:"10s" validate:"min=1s"`
}

// LoggingConfig selects the process logger's verbosity and encoding.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"    validate:"oneof=debug info warn error"`
	Format string `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=json console"`
	// Service is stamped on every log line so shared sinks can tell
	// processes apart.
	Service string `env:"LOG_SERVICE" envDefault:"lobbyhub" validate:"required"`
}

// ArchiveEnabled reports whether lifecycle events can be copied from Redis
// into Postgres.
func (c *Config) ArchiveEnabled() bool {
	return c.RedisEnabled && c.PostgresEnabled
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
