package daysync

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/Sjoneon/DaySync-Server/config"
	"github.com/Sjoneon/DaySync-Server/core"
	"github.com/Sjoneon/DaySync-Server/logging"
	"github.com/Sjoneon/DaySync-Server/model"
	"github.com/Sjoneon/DaySync-Server/model/anthropic"
	"github.com/Sjoneon/DaySync-Server/model/gemini"
	"github.com/Sjoneon/DaySync-Server/model/openai"
	"github.com/Sjoneon/DaySync-Server/retention"
	"github.com/Sjoneon/DaySync-Server/store"
	"github.com/Sjoneon/DaySync-Server/store/sqlite"
)

// NewFromConfig builds an Assistant from cfg: logger, repository, provider
// model and oracle. optFns run last and may override any of them.
func NewFromConfig(ctx context.Context, cfg config.Config, optFns ...func(o *Options)) (*Assistant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	m, err := NewModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	oracle := model.NewOracle(m, func(o *model.OracleOptions) {
		o.Timeout = cfg.Conversation.OracleTimeout
		o.Logger = logging.With(logger, "component", "oracle")
	})

	repo, err := OpenRepository(cfg.Store)
	if err != nil {
		return nil, err
	}
	logger.Info("assistant.configured",
		"provider", cfg.Provider, "model", m.Info().Name,
		"store", cfg.Store.Driver, "timezone", loc.String())

	return New(oracle, func(o *Options) {
		o.Repository = repo
		o.Location = loc
		o.Logger = logger
		o.HistoryLimit = cfg.Conversation.HistoryLimit
		o.InactiveUserAge = cfg.Retention.InactiveUserAge
		o.RouteMaxAge = cfg.Retention.RouteMaxAge
		o.Retention = retention.Options{
			MaxMessagesPerSession: cfg.Retention.MaxMessagesPerSession,
			MaxSessionsPerUser:    cfg.Retention.MaxSessionsPerUser,
			SessionMaxAge:         cfg.Retention.SessionMaxAge,
		}
		for _, fn := range optFns {
			fn(o)
		}
	}), nil
}

// NewLogger builds the configured logger.
func NewLogger(cfg config.LoggingConfig) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(logging.Config{
		Level:   level,
		Format:  cfg.Format,
		Backend: cfg.Backend,
	})
}

// OpenRepository opens the configured store.
func OpenRepository(cfg config.StoreConfig) (core.Repository, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverMemory, "":
		return store.NewInMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// NewModel builds the provider model selected by cfg.
func NewModel(ctx context.Context, cfg config.Config) (model.Model, error) {
	creds := cfg.ProviderSettings()
	switch cfg.Provider {
	case config.ProviderGemini:
		m, err := gemini.NewModel(ctx, func(o *gemini.Options) {
			o.Model = cfg.Model
			o.APIKey = creds.APIKey
			o.BaseURL = creds.BaseURL
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Model
			o.APIKey = creds.APIKey
			o.BaseURL = creds.BaseURL
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Model)
			o.APIKey = creds.APIKey
			o.BaseURL = creds.BaseURL
		}), nil
	case config.ProviderMock:
		return model.NewMockModel(cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
