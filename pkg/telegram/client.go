package telegram

import (
	"net/http"
	"time"

	"gopkg.in/telebot.v3"
)

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: defaultTimeout(timeout)}
}

// AsSender avoids wrapping a nil bot in a non-nil interface.
func AsSender(bot *telebot.Bot) Sender {
	if bot == nil {
		return nil
	}
	return bot
}
