package cmd

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/xiaot623/nexusdesk/internal/config"
	"github.com/xiaot623/nexusdesk/internal/controller"
	"github.com/xiaot623/nexusdesk/internal/logger"
	"github.com/xiaot623/nexusdesk/internal/store"
)

// bootstrap loads configuration, installs the logger and opens the
// tenant's store.
func bootstrap() (*config.Config, zerolog.Logger, store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("config: %w", err)
	}
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	st, err := store.Open(store.Options{
		Backend:        cfg.StoreBackend,
		SQLiteDSN:      cfg.DatabaseURL,
		RedisURL:       cfg.RedisURL,
		RedisKeyPrefix: cfg.RedisKeyPrefix,
		PostgresDSN:    cfg.PostgresDSN,
		Scope:          cfg.TenantScope,
	})
	if err != nil {
		return nil, log, nil, fmt.Errorf("store: %w", err)
	}
	return cfg, log, st, nil
}

func newController(cfg *config.Config, st store.Store, log zerolog.Logger) (*controller.Controller, error) {
	codec, err := store.NewCodec(cfg.RecordCodec)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	return controller.New(st,
		controller.WithCodec(codec),
		controller.WithLogger(log.With().Str("component", "controller").Str("tenant", cfg.TenantScope).Logger()),
	), nil
}
