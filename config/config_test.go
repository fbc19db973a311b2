package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "0.0.0.0", cfg.API.Host)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "/tmp", cfg.Journal.DataDir)
	assert.Equal(t, 500, cfg.Journal.MaxEntries)
	assert.Len(t, cfg.Risk.ApprovedAssets, 32)
	assert.Equal(t, 1.5, cfg.Risk.RRRatioMin)
	assert.Equal(t, 2.0, cfg.Risk.AutoApproveRR)
	assert.Equal(t, 8, cfg.Risk.ConfidenceAutoApprove)
	assert.Equal(t, 6, cfg.Risk.ConfidencePending)
	assert.False(t, cfg.Telegram.Configured())
	assert.Equal(t, 10*time.Second, cfg.Telegram.TimeoutDuration)

	require.Len(t, cfg.Scheduler.Jobs, 2)
	assert.Equal(t, "signal_retention", cfg.Scheduler.Jobs[0].Type)
	assert.Equal(t, 30, cfg.Scheduler.Jobs[0].RetentionDays)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.Jobs[1].PendingTTL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("DATA_DIR", "/var/lib/signals")
	t.Setenv("RISK_CONFIDENCE_PENDING", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.API.Port)
	assert.True(t, cfg.Telegram.Configured())
	assert.Equal(t, "/var/lib/signals", cfg.Journal.DataDir)
	assert.Equal(t, 5, cfg.Risk.ConfidencePending)
}

func TestLoad_ChannelIDAlias(t *testing.T) {
	t.Setenv("TELEGRAM_CHANNEL_ID", "-100999")
	t.Setenv("TELEGRAM_WEBHOOK_SECRET", "pinned")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "-100999", cfg.Telegram.ChatID)
	assert.Equal(t, "pinned", cfg.Telegram.WebhookSecret)

	t.Setenv("TELEGRAM_CHAT_ID", "-100111")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "-100111", cfg.Telegram.ChatID, "the primary name wins")
}

func TestLoad_RejectsUnknownStorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "redis")

	_, err := Load()
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestLoad_ShippedConfigKeepsServiceName(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(".."))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Phase 1C Signals Backend", cfg.App.Name)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}
