package logger

import (
	"context"
	"fmt"
	"signals-service/config"
	"signals-service/pkg/common"
	"signals-service/pkg/httpclient"
	"sort"
	"strings"

	"go.uber.org/zap/zapcore"
)

// AlertCore forwards entries tagged with send_alert to a Telegram chat.
type AlertCore struct {
	core     zapcore.Core
	minLevel zapcore.Level
	chatID   string
	token    string
	client   httpclient.HTTPClient
}

// WithTelegramAlert tees entries marked with ErrorContextWithAlert into
// the configured Telegram chat. It is a no-op when no bot token is set.
func WithTelegramAlert(cfg config.TelegramConfig) Option {
	return func(core zapcore.Core) zapcore.Core {
		if !cfg.Configured() {
			return core
		}
		return &AlertCore{
			core:     core,
			minLevel: zapcore.ErrorLevel,
			chatID:   cfg.ChatID,
			token:    cfg.BotToken,
			client:   httpclient.New(common.TELEGRAM_API_BASE_URL, cfg.TimeoutDuration, ""),
		}
	}
}

func (a *AlertCore) Enabled(lvl zapcore.Level) bool {
	return a.core.Enabled(lvl)
}

func (a *AlertCore) With(fields []zapcore.Field) zapcore.Core {
	return &AlertCore{
		core:     a.core.With(fields),
		minLevel: a.minLevel,
		chatID:   a.chatID,
		token:    a.token,
		client:   a.client,
	}
}

func (a *AlertCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, a)
	}
	return checkedEntry
}

func (a *AlertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= a.minLevel && shouldAlert(fields) {
		go a.sendTelegramAlert(entry, fields)
	}
	return a.core.Write(entry, fields)
}

func (a *AlertCore) Sync() error {
	return a.core.Sync()
}

func shouldAlert(fields []zapcore.Field) bool {
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT && f.Type == zapcore.BoolType && f.Integer == 1 {
			return true
		}
	}
	return false
}

func formatAlert(entry zapcore.Entry, fields []zapcore.Field) string {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT {
			continue
		}
		f.AddTo(enc)
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("• %s: %v\n", k, enc.Fields[k]))
	}

	return fmt.Sprintf(
		"🚨 *%s Alert*\n\n*Message:* %s\n\n*Fields:*\n%s\n*Time:* %s",
		entry.Level.CapitalString(),
		entry.Message,
		sb.String(),
		entry.Time.UTC().Format("2006-01-02 15:04:05"),
	)
}

func (a *AlertCore) sendTelegramAlert(entry zapcore.Entry, fields []zapcore.Field) {
	payload := map[string]interface{}{
		"chat_id":    a.chatID,
		"text":       formatAlert(entry, fields),
		"parse_mode": "Markdown",
	}
	endpoint := fmt.Sprintf("/bot%s/sendMessage", a.token)
	_, _ = a.client.Post(context.Background(), endpoint, payload, nil, nil)
}
