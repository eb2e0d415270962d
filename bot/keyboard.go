package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Menu button labels. Dispatch matches on these exact strings.
const (
	btnCreate  = "📝 Create vouchers"
	btnStats   = "📊 Statistics"
	btnList    = "📋 List vouchers"
	btnScan    = "🔍 Scan QR"
	btnHistory = "📜 Redemption history"
	btnDelete  = "🗑 Delete vouchers"
)

func adminKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCreate),
			tgbotapi.NewKeyboardButton(btnStats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnList),
			tgbotapi.NewKeyboardButton(btnScan),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnHistory),
			tgbotapi.NewKeyboardButton(btnDelete),
		),
	)
}
