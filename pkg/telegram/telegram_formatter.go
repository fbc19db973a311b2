package telegram

import (
	"fmt"
	"html"
	"signals-service/pkg/utils"
	"strings"
)

// SignalMessage carries the fields rendered in a channel post.
type SignalMessage struct {
	ID              string
	Timestamp       string
	Asset           string
	SignalType      string
	Status          string
	EntryPrice      float64
	StopLoss        float64
	TakeProfit      float64
	RRRatio         float64
	ConfidenceScore int
}

var statusEmoji = map[string]string{
	"APPROVED": "✅",
	"PENDING":  "⏳",
	"REJECTED": "❌",
}

// FormatSignalMessage renders a signal as an HTML Telegram message.
func FormatSignalMessage(sig SignalMessage) string {
	emoji := "🔴"
	if sig.SignalType == "LONG" {
		emoji = "🟢"
	}
	status, ok := statusEmoji[sig.Status]
	if !ok {
		status = "❓"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>%s %s</b> %s\n", emoji, html.EscapeString(sig.SignalType), html.EscapeString(sig.Asset), status))
	sb.WriteString(fmt.Sprintf("📊 Entry: <code>%s</code>\n", utils.FormatFloat(sig.EntryPrice)))
	sb.WriteString(fmt.Sprintf("🛑 Stop: <code>%s</code>\n", utils.FormatFloat(sig.StopLoss)))
	sb.WriteString(fmt.Sprintf("🎯 Target: <code>%s</code>\n", utils.FormatFloat(sig.TakeProfit)))
	sb.WriteString(fmt.Sprintf("📐 RR: <code>%s</code> | Score: <code>%d/10</code>\n", utils.FormatFloat(sig.RRRatio), sig.ConfidenceScore))
	sb.WriteString(fmt.Sprintf("🆔 <code>%s</code>\n", sig.ID))
	sb.WriteString(fmt.Sprintf("⏰ %s", sig.Timestamp))
	return sb.String()
}

// FormatReviewMessage renders the outcome of a manual review.
func FormatReviewMessage(signalID, status, reason, reviewer string) string {
	emoji, ok := statusEmoji[status]
	if !ok {
		emoji = "❓"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s <b>Signal %s %s</b>", emoji, signalID, strings.ToLower(status)))
	if reviewer != "" {
		sb.WriteString(fmt.Sprintf(" by %s", html.EscapeString(reviewer)))
	}
	if reason != "" {
		sb.WriteString(fmt.Sprintf("\n📝 %s", html.EscapeString(reason)))
	}
	return sb.String()
}
