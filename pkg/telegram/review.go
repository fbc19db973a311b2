package telegram

import "gopkg.in/telebot.v3"

const (
	UniqueApproveSignal = "btn_approve_signal"
	UniqueRejectSignal  = "btn_reject_signal"
)

var (
	BtnApproveSignal = telebot.Btn{Unique: UniqueApproveSignal}
	BtnRejectSignal  = telebot.Btn{Unique: UniqueRejectSignal}
)

// ReviewMarkup builds the approve/reject keyboard attached to pending signals.
func ReviewMarkup(signalID string) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data("✅ Approve", UniqueApproveSignal, signalID),
		menu.Data("❌ Reject", UniqueRejectSignal, signalID),
	))
	return menu
}
