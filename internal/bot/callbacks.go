package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"readtracker/internal/models"
)

// handleStatusCallback processes the status choice of /new_book
func (b *Bot) handleStatusCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != commandNewBook || state.Step != 5 {
		return
	}
	chatID := query.Message.Chat.ID

	status, ok := models.ParseStatus(strings.TrimPrefix(query.Data, "status:"))
	if !ok {
		return
	}
	state.Data["status"] = status

	if status.HasStartDate() {
		state.Step = 6
		b.sendText(chatID, datePrompt("When did you start reading it?"))
		return
	}
	b.createBookFromState(ctx, chatID, state)
}

// handleBookCallback processes the book choice of /log
func (b *Bot) handleBookCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != commandLog || state.Step != 1 {
		return
	}
	chatID := query.Message.Chat.ID

	bookID, err := strconv.ParseInt(strings.TrimPrefix(query.Data, "book:"), 10, 64)
	if err != nil {
		return
	}

	book, err := b.svc.Book(ctx, bookID)
	if err != nil {
		b.logger.Warn("Invalid book selection", zap.Error(err), zap.Int64("book_id", bookID))
		b.sendText(chatID, "Error: Invalid book selection")
		state.Step = -1
		return
	}

	state.Data["book_id"] = book.ID
	state.Step = 2

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("📚 %s\n\n📅 Select reading date:", book.Title))
	msg.ReplyMarkup = dateKeyboard()
	b.sendMessage(msg)
}

// handleDateCallback processes the date choice of /log
func (b *Bot) handleDateCallback(ctx context.Context, query *tgbotapi.CallbackQuery, state *ConversationState) {
	if state.Command != commandLog || state.Step != 2 {
		return
	}
	chatID := query.Message.Chat.ID
	today := b.svc.Today()

	switch strings.TrimPrefix(query.Data, "date:") {
	case "custom":
		state.Data["awaiting_custom_date"] = true
		b.sendText(chatID, "📝 Please enter the date in format YYYY-MM-DD\n\nExample: 2024-01-15")
		return
	case "today":
		state.Data["date"] = today
	case "yesterday":
		state.Data["date"] = today.AddDate(0, 0, -1)
	case "2daysago":
		state.Data["date"] = today.AddDate(0, 0, -2)
	default:
		return
	}

	state.Step = 3
	b.sendText(chatID, pagesPrompt)
}

// handleCompleteCallback marks a fully read book as completed today
func (b *Bot) handleCompleteCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	arg := strings.TrimPrefix(query.Data, "complete:")
	if arg == "no" {
		b.sendText(chatID, "Okay, the book stays as it is.")
		return
	}
	bookID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}

	book, err := b.svc.Book(ctx, bookID)
	if err != nil {
		b.sendText(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if book.Status == models.StatusCompleted {
		return
	}

	today := b.svc.Today()
	book.Status = models.StatusCompleted
	book.EndDate = &today
	if _, err := b.svc.UpdateBook(ctx, book); err != nil {
		b.logger.Error("Failed to mark book completed", zap.Error(err), zap.Int64("book_id", bookID))
		b.sendText(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	b.sendText(chatID, fmt.Sprintf("🏁 %s marked as completed on %s", book.Title, models.FormatDate(today)))
}
