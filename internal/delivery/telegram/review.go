package telegram

import (
	"context"
	"errors"
	"fmt"
	"signals-service/internal/model"
	"signals-service/internal/service"
	"signals-service/pkg/logger"
	"signals-service/pkg/telegram"
	"strings"

	"gopkg.in/telebot.v3"
)

const maxPendingListed = 10

func (t *TelegramBotHandler) handleApproveSignal(ctx context.Context, c telebot.Context) error {
	return t.review(ctx, c, model.SignalStatusApproved)
}

func (t *TelegramBotHandler) handleRejectSignal(ctx context.Context, c telebot.Context) error {
	return t.review(ctx, c, model.SignalStatusRejected)
}

func (t *TelegramBotHandler) review(ctx context.Context, c telebot.Context, to model.SignalStatus) error {
	signalID := c.Callback().Data
	by := service.Reviewer{Name: senderName(c.Sender()), Source: service.ReviewSourceTelegram}

	var (
		signal *model.Signal
		err    error
	)
	if to == model.SignalStatusApproved {
		signal, err = t.service.SignalService.Approve(ctx, signalID, by)
	} else {
		signal, err = t.service.SignalService.Reject(ctx, signalID, "", by)
	}

	switch {
	case errors.Is(err, service.ErrSignalNotFound):
		return c.Respond(&telebot.CallbackResponse{Text: fmt.Sprintf("Signal %s not found", signalID), ShowAlert: true})
	case errors.Is(err, service.ErrSignalNotPending):
		return c.Respond(&telebot.CallbackResponse{Text: fmt.Sprintf("Signal %s is not pending", signalID), ShowAlert: true})
	case err != nil:
		t.log.ErrorContext(ctx, "Failed to review signal", logger.ErrorField(err), logger.StringField("signal_id", signalID))
		return c.Respond(&telebot.CallbackResponse{Text: "Review failed, try again", ShowAlert: true})
	}

	if err := c.Respond(&telebot.CallbackResponse{Text: fmt.Sprintf("Signal %s %s", signalID, strings.ToLower(string(to)))}); err != nil {
		t.log.WarnContext(ctx, "Failed to answer callback", logger.ErrorField(err))
	}

	if msg := c.Message(); msg != nil {
		text := telegram.FormatSignalMessage(service.ToSignalMessage(signal)) + "\n\n" +
			telegram.FormatReviewMessage(signalID, string(to), "", by.Name)
		if _, err := t.telegram.Edit(ctx, msg, text, telebot.ModeHTML); err != nil {
			t.log.WarnContext(ctx, "Failed to update reviewed message", logger.ErrorField(err), logger.StringField("signal_id", signalID))
		}
	}
	return nil
}

func (t *TelegramBotHandler) handlePending(ctx context.Context, c telebot.Context) error {
	status := model.SignalStatusPending
	count, signals, err := t.service.SignalService.List(ctx, &status, maxPendingListed)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to list pending signals", logger.ErrorField(err))
		return c.Send("❌ Failed to load pending signals")
	}
	if count == 0 {
		return c.Send("✅ No pending signals")
	}

	if err := c.Send(fmt.Sprintf("⏳ <b>%d pending</b> (showing %d)", count, len(signals)), telebot.ModeHTML); err != nil {
		return err
	}
	for i := range signals {
		text := telegram.FormatSignalMessage(service.ToSignalMessage(&signals[i]))
		if err := c.Send(text, telegram.ReviewMarkup(signals[i].ID), telebot.ModeHTML); err != nil {
			return err
		}
	}
	return nil
}

func (t *TelegramBotHandler) handleStats(ctx context.Context, c telebot.Context) error {
	counts, err := t.service.SignalService.Stats(ctx)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to count signals", logger.ErrorField(err))
		return c.Send("❌ Failed to load stats")
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Signals</b>\n")
	sb.WriteString(fmt.Sprintf("Total: <code>%d</code>\n", counts.Total))
	sb.WriteString(fmt.Sprintf("✅ Approved: <code>%d</code>\n", counts.Approved))
	sb.WriteString(fmt.Sprintf("⏳ Pending: <code>%d</code>\n", counts.Pending))
	sb.WriteString(fmt.Sprintf("❌ Rejected: <code>%d</code>", counts.Rejected))
	return c.Send(sb.String(), telebot.ModeHTML)
}

func senderName(u *telebot.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
