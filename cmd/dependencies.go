package cmd

import (
	"context"
	"signals-service/config"
	"signals-service/pkg/cache"
	"signals-service/pkg/logger"
	"signals-service/pkg/metrics"
	pkgMiddleware "signals-service/pkg/middleware"
	"signals-service/pkg/postgres"
	"signals-service/pkg/telegram"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gopkg.in/telebot.v3"
	"gorm.io/gorm"
)

type AppDependency struct {
	db          *postgres.DB
	cfg         *config.Config
	log         *logger.Logger
	validator   *goValidator.Validate
	echo        *echo.Echo
	cache       cache.Cache
	telegram    *telegram.TelegramRateLimiter
	telegramBot *telebot.Bot
	metrics     *metrics.Metrics
	registry    *prometheus.Registry
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding, logger.WithTelegramAlert(cfg.Telegram))
	if err != nil {
		return nil, err
	}

	return newAppDependency(cfg, log)
}

func newAppDependency(cfg *config.Config, log *logger.Logger) (*AppDependency, error) {
	var db *postgres.DB
	if cfg.Storage.Driver == "postgres" {
		var err error
		db, err = postgres.NewDB(cfg.DB, log)
		if err != nil {
			log.Error("Failed to connect to database", zap.Error(err))
			return nil, err
		}
	}

	bot, err := telegram.NewBot(&cfg.Telegram, log)
	if err != nil {
		log.Error("Failed to create telegram bot", zap.Error(err))
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New()
	m.Register(registry)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID())
	e.Use(pkgMiddleware.NewRequestLogger(log))
	e.Use(middleware.Recover())

	return &AppDependency{
		cfg:         cfg,
		log:         log,
		validator:   goValidator.New(),
		db:          db,
		echo:        e,
		cache:       cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		telegram:    telegram.NewTelegramRateLimiter(&cfg.Telegram, log, telegram.AsSender(bot)),
		telegramBot: bot,
		metrics:     m,
		registry:    registry,
	}, nil
}

// gormDB is nil unless the postgres driver is selected.
func (d *AppDependency) gormDB() *gorm.DB {
	if d.db == nil {
		return nil
	}
	return d.db.DB
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	defer d.log.Sync()
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
