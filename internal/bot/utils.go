package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"readtracker/internal/models"
)

// sendMessage sends a prepared message; it is a no-op without an API client
func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if b.api == nil {
		return // For testing
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err), zap.Int64("chat_id", msg.ChatID))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// bookKeyboard lays out one button per book, two per row
func bookKeyboard(books []models.Book) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var currentRow []tgbotapi.InlineKeyboardButton
	for i, book := range books {
		currentRow = append(currentRow, tgbotapi.NewInlineKeyboardButtonData(
			book.Title,
			fmt.Sprintf("book:%d", book.ID),
		))

		if len(currentRow) == 2 || i == len(books)-1 {
			rows = append(rows, currentRow)
			currentRow = nil
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func dateKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📆 Today", "date:today"),
			tgbotapi.NewInlineKeyboardButtonData("⏮ Yesterday", "date:yesterday"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏮⏮ 2 days ago", "date:2daysago"),
			tgbotapi.NewInlineKeyboardButtonData("📝 Custom date", "date:custom"),
		),
	)
}

func statusKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(models.Statuses); i += 2 {
		var row []tgbotapi.InlineKeyboardButton
		for _, status := range models.Statuses[i:min(i+2, len(models.Statuses))] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(string(status), "status:"+string(status)))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func completeKeyboard(bookID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏁 Mark completed", fmt.Sprintf("complete:%d", bookID)),
			tgbotapi.NewInlineKeyboardButtonData("Not yet", "complete:no"),
		),
	)
}
