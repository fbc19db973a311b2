package telegram

import (
	"context"
	"crypto/subtle"
	"net/http"
	"signals-service/config"
	"signals-service/internal/dto"
	"signals-service/internal/service"
	"signals-service/pkg/logger"
	"signals-service/pkg/middleware"
	"signals-service/pkg/telegram"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gopkg.in/telebot.v3"
)

const (
	WebhookPath = "/api/v1/telegram/webhook"
	// SecretTokenHeader carries the secret registered with setWebhook.
	SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"
	handlerTimeout    = 30 * time.Second
)

type TelegramBotHandler struct {
	ctx      context.Context
	cfg      *config.Config
	bot      *telebot.Bot
	log      *logger.Logger
	telegram *telegram.TelegramRateLimiter
	echo     *echo.Echo
	service  *service.Service
	secret   string
}

func NewTelegramBotHandler(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	bot *telebot.Bot,
	telegram *telegram.TelegramRateLimiter,
	echo *echo.Echo,
	service *service.Service) *TelegramBotHandler {
	return &TelegramBotHandler{
		ctx:      ctx,
		cfg:      cfg,
		log:      log,
		bot:      bot,
		telegram: telegram,
		echo:     echo,
		service:  service,
		secret:   cfg.Telegram.WebhookSecret,
	}
}

// Start registers the webhook with Telegram and wires the bot handlers.
// It does nothing when no bot token or webhook URL is configured.
func (t *TelegramBotHandler) Start() {
	if t.bot == nil {
		t.log.Info("Telegram bot disabled, bot token not configured")
		return
	}
	if t.cfg.Telegram.WebhookURL == "" {
		t.log.Info("Telegram webhook is disabled")
		return
	}

	if t.secret == "" {
		// Only Telegram learns the generated secret; it changes on every start.
		t.secret = strings.ReplaceAll(uuid.NewString(), "-", "")
		t.log.Info("Generated telegram webhook secret, set telegram.webhook_secret to pin it")
	}

	t.log.Info("Setting webhook URL", logger.StringField("webhook_url", t.cfg.Telegram.WebhookURL))
	if err := t.bot.SetWebhook(&telebot.Webhook{
		SecretToken: t.secret,
		Endpoint:    &telebot.WebhookEndpoint{PublicURL: t.cfg.Telegram.WebhookURL},
	}); err != nil {
		t.log.Warn("Failed to set telegram webhook", logger.ErrorField(err))
	}

	t.RegisterHandlers()
}

func (t *TelegramBotHandler) Stop() {
	t.log.Info("Telegram bot shutdown completed")
}

func (t *TelegramBotHandler) RegisterHandlers() {
	t.echo.POST(WebhookPath, t.webhook)

	adminOnly := middleware.AllowUsers(t.cfg.Telegram.AdminIDs, t.handleDenied)

	t.bot.Handle("/start", t.WithContext(t.handleStart))
	t.bot.Handle("/help", t.WithContext(t.handleHelp))
	t.bot.Handle("/stats", t.WithContext(t.handleStats))
	t.bot.Handle("/pending", t.WithContext(t.handlePending), adminOnly)
	t.bot.Handle(&telegram.BtnApproveSignal, t.WithContext(t.handleApproveSignal), adminOnly)
	t.bot.Handle(&telegram.BtnRejectSignal, t.WithContext(t.handleRejectSignal), adminOnly)
}

func (t *TelegramBotHandler) WithContext(handler func(ctx context.Context, c telebot.Context) error) telebot.HandlerFunc {
	return middleware.WithContext(t.ctx, handlerTimeout, handler)
}

func (t *TelegramBotHandler) webhook(c echo.Context) error {
	token := c.Request().Header.Get(SecretTokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(t.secret)) != 1 {
		t.log.WarnContext(c.Request().Context(), "Rejected telegram webhook with bad secret token", logger.StringField("remote_ip", c.RealIP()))
		return c.JSON(http.StatusUnauthorized, dto.NewBaseResponse(http.StatusUnauthorized, "unauthorized", nil))
	}

	var update telebot.Update
	if err := c.Bind(&update); err != nil {
		t.log.ErrorContext(c.Request().Context(), "Cannot bind JSON", logger.ErrorField(err))
		badRequest := dto.NewBadRequestResponse(err.Error())
		return c.JSON(http.StatusBadRequest, badRequest)
	}
	t.bot.ProcessUpdate(update)
	return c.JSON(http.StatusOK, dto.NewBaseResponse(http.StatusOK, "ok", nil))
}

func (t *TelegramBotHandler) handleDenied(c telebot.Context) error {
	if c.Callback() != nil {
		return c.Respond(&telebot.CallbackResponse{Text: "⛔ You are not allowed to review signals", ShowAlert: true})
	}
	return c.Send("⛔ You are not allowed to review signals")
}
