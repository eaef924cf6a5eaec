package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/entity-filter/internal/config"
	"github.com/danielpatrickdp/entity-filter/internal/feed"
	"github.com/danielpatrickdp/entity-filter/internal/state"
)

// #region main
func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger, err := cfg.newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("controller stopped", zap.Error(err))
		os.Exit(1)
	}
}

// #endregion main

// #region run
func run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	loc, err := cfg.parseLocale()
	if err != nil {
		return err
	}
	tz, err := cfg.location()
	if err != nil {
		return err
	}

	store, err := state.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	file, err := config.LoadFile(cfg.BadgesPath)
	if err != nil {
		return err
	}

	registry := state.NewRegistry(loc)
	registry.SetTimeZone(tz)

	h := newHost(logger, store, registry, file)
	if len(h.badges) == 0 {
		return fmt.Errorf("no valid badges in %s", cfg.BadgesPath)
	}
	logger.Info("entity filter controller ready",
		zap.String("db", cfg.DBPath),
		zap.String("feed", cfg.Feed),
		zap.String("addr", cfg.FeedAddr),
		zap.Int("badges", len(h.badges)),
		zap.String("locale", loc.String()),
	)

	var client feed.Runner
	switch cfg.Feed {
	case "websocket":
		client = feed.NewWebsocketClient(cfg.FeedAddr, cfg.Token, logger)
	default:
		gc, err := feed.NewGRPCClient(cfg.FeedAddr, logger, h.watchSet())
		if err != nil {
			return err
		}
		defer gc.Close()
		client = gc
	}

	return feed.RunWithRetry(ctx, logger, feed.DefaultRetryPolicy(), func(ctx context.Context, delivered *bool) error {
		err := client.Run(ctx, func(b state.Batch) {
			*delivered = true
			h.handle(b)
		})
		if err == nil && ctx.Err() == nil {
			return feed.ErrFeedClosed
		}
		return err
	})
}

// #endregion run
