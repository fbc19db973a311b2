package telegram

import (
	"context"

	"gopkg.in/telebot.v3"
)

func (t *TelegramBotHandler) handleStart(ctx context.Context, c telebot.Context) error {
	message := `👋 <b>Signals bot</b>
I post every trade signal the backend accepts and let reviewers settle the pending ones.

/pending - pending signals with review buttons
/stats - signal counts by status
/help - how reviewing works`
	return c.Send(message, telebot.ModeHTML)
}

func (t *TelegramBotHandler) handleHelp(ctx context.Context, c telebot.Context) error {
	message := `❓ <b>Reviewing signals</b>

Signals with confidence 8+ and reward/risk 2.0+ are approved automatically. Confidence 6-7 lands in the pending queue, anything lower is rejected.

Tap ✅ Approve or ❌ Reject under a pending signal to settle it. Pending signals that nobody reviews are rejected as expired.`
	return c.Send(message, telebot.ModeHTML)
}
