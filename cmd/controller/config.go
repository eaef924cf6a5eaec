package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danielpatrickdp/entity-filter/internal/locale"
)

// #region config
// Config is the controller's environment configuration.
type Config struct {
	DBPath     string `env:"ENTITY_FILTER_DB" envDefault:"entity_filter.db"`
	BadgesPath string `env:"ENTITY_FILTER_BADGES" envDefault:"badges.yaml"`
	Feed       string `env:"ENTITY_FILTER_FEED" envDefault:"grpc"`
	FeedAddr   string `env:"ENTITY_FILTER_FEED_ADDR" envDefault:"localhost:50051"`
	Token      string `env:"ENTITY_FILTER_TOKEN"`
	Locale     string `env:"ENTITY_FILTER_LOCALE" envDefault:"en-US"`
	TimeZone   string `env:"ENTITY_FILTER_TZ" envDefault:"Local"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

// loadConfig reads Config from the environment and checks the enumerations.
func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.Feed {
	case "grpc", "websocket":
	default:
		return cfg, fmt.Errorf("ENTITY_FILTER_FEED must be grpc or websocket, got %q", cfg.Feed)
	}
	return cfg, nil
}

// parseLocale parses the configured locale tag.
func (c Config) parseLocale() (*locale.Locale, error) {
	return locale.New(c.Locale)
}

// location loads the configured time zone.
func (c Config) location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %s: %w", c.TimeZone, err)
	}
	return loc, nil
}

// newLogger builds a production logger at the configured level. debug
// switches to the development encoder.
func (c Config) newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// #endregion config
