package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mehubot/mehu/internal/config"
	"github.com/mehubot/mehu/internal/db"
	"github.com/mehubot/mehu/internal/repository"
	"github.com/mehubot/mehu/internal/service"
	"github.com/mehubot/mehu/internal/storage"
	"github.com/mehubot/mehu/internal/telegram"
)

type App struct {
	Cfg        *config.Config
	DB         *sqlx.DB
	Client     *telegram.Client
	Poller     *telegram.Poller
	Dispatcher *service.Dispatcher
	Archive    *service.ArchiveService // nil when archiving is disabled
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database and run migrations
	database, err := db.Open(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Repositories
	mediaRepository := repository.NewMediaRepository(database)
	tagRepository := repository.NewTagRepository(database)
	accessRepository := repository.NewAccessRepository(database)

	// Telegram
	client, err := telegram.NewClient(telegram.ClientConfig{
		Token:     cfg.TelegramAPIKey,
		BaseURL:   cfg.TelegramAPIURL,
		SendRPS:   cfg.SendRPS,
		SendBurst: cfg.SendBurst,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize telegram client: %w", err)
	}
	poller := telegram.NewPoller(client, telegram.PollerConfig{
		Timeout:    cfg.PollTimeout,
		RetryDelay: cfg.RetryDelay,
		Buffer:     cfg.EventBuffer,
	})

	// Archive storage (optional)
	var archiveService *service.ArchiveService
	if cfg.ArchiveEnabled() {
		archiveStorage, err := storage.New(cfg)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		archiveService = service.NewArchiveService(client, archiveStorage)
	}

	// Services
	dispatcher := service.NewDispatcher(
		client,
		mediaRepository,
		tagRepository,
		accessRepository,
		service.NewCorrelator(),
		archiveService,
		service.DispatcherConfig{
			PromptText: cfg.TagPromptText,
			CacheTime:  cfg.InlineCacheTime,
		},
	)

	return &App{
		Cfg:        cfg,
		DB:         database,
		Client:     client,
		Poller:     poller,
		Dispatcher: dispatcher,
		Archive:    archiveService,
	}, nil
}

func (a *App) Close() error {
	return db.Close(a.DB)
}
