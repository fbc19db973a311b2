package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const TelegramNotConfigured = "NOT_CONFIGURED"

type Config struct {
	App       App            `mapstructure:"app"`
	Log       Logger         `mapstructure:"logger"`
	DB        Database       `mapstructure:"database"`
	API       API            `mapstructure:"api"`
	Storage   Storage        `mapstructure:"storage"`
	Journal   Journal        `mapstructure:"journal"`
	Risk      Risk           `mapstructure:"risk"`
	Ingest    Ingest         `mapstructure:"ingest"`
	Scheduler Scheduler      `mapstructure:"scheduler"`
	Cache     Cache          `mapstructure:"cache"`
	Telegram  TelegramConfig `mapstructure:"telegram"`
}

type App struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	IngestRatePerSec  float64       `mapstructure:"ingest_rate_per_sec"`
	IngestRateBurst   int           `mapstructure:"ingest_rate_burst"`
	IngestRateExpires time.Duration `mapstructure:"ingest_rate_expires"`
}

// Storage selects the signal store backend: "memory" or "postgres".
type Storage struct {
	Driver string `mapstructure:"driver"`
}

type Journal struct {
	DataDir    string `mapstructure:"data_dir"`
	FileName   string `mapstructure:"file_name"`
	MaxEntries int    `mapstructure:"max_entries"`
}

type Risk struct {
	ApprovedAssets        []string `mapstructure:"approved_assets"`
	RRRatioMin            float64  `mapstructure:"rr_ratio_min"`
	RRRatioMax            float64  `mapstructure:"rr_ratio_max"`
	AutoApproveRR         float64  `mapstructure:"auto_approve_rr"`
	ConfidenceAutoApprove int      `mapstructure:"confidence_auto_approve"`
	ConfidencePending     int      `mapstructure:"confidence_pending"`
}

type Ingest struct {
	DedupeWindow    time.Duration `mapstructure:"dedupe_window"`
	DefaultStrategy string        `mapstructure:"default_strategy"`
}

type Scheduler struct {
	Enabled bool           `mapstructure:"enabled"`
	Jobs    []ScheduledJob `mapstructure:"jobs"`
}

type ScheduledJob struct {
	Type          string        `mapstructure:"type"`
	Cron          string        `mapstructure:"cron"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetentionDays int           `mapstructure:"retention_days"`
	PendingTTL    time.Duration `mapstructure:"pending_ttl"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type TelegramConfig struct {
	BotToken                  string        `mapstructure:"bot_token"`
	ChatID                    string        `mapstructure:"chat_id"`
	WebhookURL                string        `mapstructure:"webhook_url"`
	WebhookSecret             string        `mapstructure:"webhook_secret"`
	AdminIDs                  []int64       `mapstructure:"admin_ids"`
	TimeoutDuration           time.Duration `mapstructure:"timeout_duration"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second"`
}

// Configured reports whether a real bot token has been supplied.
func (t TelegramConfig) Configured() bool {
	return t.BotToken != "" && t.BotToken != TelegramNotConfigured
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "Phase 1C Signals Backend")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.shutdown_timeout", 10*time.Second)
	v.SetDefault("api.ingest_rate_per_sec", 10)
	v.SetDefault("api.ingest_rate_burst", 30)
	v.SetDefault("api.ingest_rate_expires", 3*time.Minute)

	v.SetDefault("storage.driver", "memory")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "signals")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.time_zone", "UTC")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.log_level", "Warn")

	v.SetDefault("journal.data_dir", "/tmp")
	v.SetDefault("journal.file_name", "signals-log.json")
	v.SetDefault("journal.max_entries", 500)

	v.SetDefault("risk.approved_assets", DefaultApprovedAssets())
	v.SetDefault("risk.rr_ratio_min", 1.5)
	v.SetDefault("risk.rr_ratio_max", 4.0)
	v.SetDefault("risk.auto_approve_rr", 2.0)
	v.SetDefault("risk.confidence_auto_approve", 8)
	v.SetDefault("risk.confidence_pending", 6)

	v.SetDefault("ingest.dedupe_window", time.Duration(0))
	v.SetDefault("ingest.default_strategy", "Universal Signal Engine")

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.jobs", []map[string]interface{}{
		{"type": "signal_retention", "cron": "@daily", "timeout": "1m", "retention_days": 30},
		{"type": "pending_expiry", "cron": "@every 5m", "timeout": "30s", "pending_ttl": "24h"},
	})

	v.SetDefault("cache.default_expiration", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("telegram.bot_token", TelegramNotConfigured)
	v.SetDefault("telegram.chat_id", "-100376135844447")
	v.SetDefault("telegram.webhook_url", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.admin_ids", []int64{})
	v.SetDefault("telegram.timeout_duration", 10*time.Second)
	v.SetDefault("telegram.max_global_request_per_second", 20)
}

// DefaultApprovedAssets is the phase 1 watchlist.
func DefaultApprovedAssets() []string {
	return []string{
		"BTC", "BTCUSD", "BTCUSDT", "XBT", "XBTUSD",
		"ETH", "ETHUSD", "ETHUSDT",
		"XRP", "XRPUSD", "XRPUSDT",
		"ADA", "ADAUSD", "ADAUSDT",
		"SOL", "SOLUSD", "SOLUSDT",
		"DOGE", "DOGEUSD", "DOGEUSDT",
		"LTC", "LTCUSD", "LTCUSDT",
		"BNB", "BNBUSD", "BNBUSDT",
		"AVAX", "AVAXUSD", "AVAXUSDT",
		"FTM", "FTMUSD", "FTMUSDT",
	}
}

// Load reads config.yaml from the working directory, then the environment.
// Keys map to env vars by upper-casing and replacing "." with "_".
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment from .env")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	// PaaS platforms inject PORT; DATA_DIR and TELEGRAM_CHANNEL_ID are kept
	// from the first deployment.
	_ = v.BindEnv("api.port", "API_PORT", "PORT")
	_ = v.BindEnv("journal.data_dir", "JOURNAL_DATA_DIR", "DATA_DIR")
	_ = v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID", "TELEGRAM_CHANNEL_ID")

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
		return nil, fmt.Errorf("invalid api port %d", cfg.API.Port)
	}
	if cfg.Storage.Driver != "memory" && cfg.Storage.Driver != "postgres" {
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		panic(err)
	}
	return cfg
}
