package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`

	// Fight room tuning. The countdown tick is configurable so tests can
	// drive the respawn sequence without waiting three real seconds.
	CountdownTickMs int `env:"COUNTDOWN_TICK_MS" envDefault:"1000" validate:"min=1"`
	FightStartLives int `env:"FIGHT_START_LIVES" envDefault:"10"   validate:"min=1"`

	// Optional Kafka broker for the game-event audit trail.
	// Empty disables auditing entirely.
	KafkaBroker string `env:"KAFKA_BROKER" envDefault:""`
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
		return nil, err
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
