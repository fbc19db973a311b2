package telegram

import (
	"context"
	"errors"
	"signals-service/config"
	"signals-service/pkg/logger"
	"signals-service/pkg/utils"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// ErrNotConfigured is returned when no bot token has been supplied.
var ErrNotConfigured = errors.New("telegram bot token not configured")

// Sender is the part of *telebot.Bot the notifier needs.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
	Edit(msg telebot.Editable, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// ChatRecipient addresses a chat by numeric id or @username.
type ChatRecipient string

func (c ChatRecipient) Recipient() string {
	return string(c)
}

// TelegramRateLimiter posts to the configured channel without exceeding
// the global bot quota.
type TelegramRateLimiter struct {
	cfg           *config.TelegramConfig
	log           *logger.Logger
	bot           Sender
	channel       telebot.Recipient
	globalLimiter *rate.Limiter
}

// NewBot builds an offline bot: no getMe round trip at startup, so an
// unreachable Telegram never blocks the service from binding its port.
// Updates are handled synchronously inside the webhook request.
func NewBot(cfg *config.TelegramConfig, log *logger.Logger) (*telebot.Bot, error) {
	if !cfg.Configured() {
		return nil, nil
	}
	return telebot.NewBot(telebot.Settings{
		Token:       cfg.BotToken,
		Offline:     true,
		Synchronous: true,
		Client:      newHTTPClient(cfg.TimeoutDuration),
		OnError: func(err error, c telebot.Context) {
			log.Error("Telegram bot error", logger.ErrorField(err))
		},
	})
}

func NewTelegramRateLimiter(cfg *config.TelegramConfig, log *logger.Logger, bot Sender) *TelegramRateLimiter {
	perSecond := cfg.MaxGlobalRequestPerSecond
	if perSecond <= 0 {
		perSecond = 20
	}
	return &TelegramRateLimiter{
		cfg:           cfg,
		log:           log,
		bot:           bot,
		channel:       ChatRecipient(cfg.ChatID),
		globalLimiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

func (t *TelegramRateLimiter) Configured() bool {
	return t.bot != nil && t.cfg.Configured()
}

// SendChannel posts an HTML message to the configured channel.
func (t *TelegramRateLimiter) SendChannel(ctx context.Context, message string, opts ...interface{}) (*telebot.Message, error) {
	if !t.Configured() {
		t.log.InfoContext(ctx, "Telegram skipped, bot token not configured", logger.StringField("message", utils.Truncate(message, 100)))
		return nil, ErrNotConfigured
	}

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	if err := t.globalLimiter.Wait(ctx); err != nil {
		t.log.ErrorContext(ctx, "Failed to wait for global rate limit", logger.ErrorField(err))
		return nil, err
	}

	opts = append(opts, telebot.ModeHTML)
	msg, err := t.bot.Send(t.channel, message, opts...)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to send telegram message", logger.ErrorField(err), logger.StringField("chat_id", t.cfg.ChatID))
		return nil, err
	}
	t.log.InfoContext(ctx, "Telegram message sent", logger.StringField("chat_id", t.cfg.ChatID))
	return msg, nil
}

// Edit replaces the text of a message the bot sent earlier.
func (t *TelegramRateLimiter) Edit(ctx context.Context, msg telebot.Editable, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	if !t.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	if err := t.globalLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.bot.Edit(msg, what, opts...)
}

func (t *TelegramRateLimiter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.cfg.TimeoutDuration <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.cfg.TimeoutDuration)
}

func defaultTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}
