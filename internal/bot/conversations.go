package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"readtracker/internal/models"
	"readtracker/internal/storage"
)

// skipInput leaves an optional field empty
const skipInput = "-"

// handleConversation processes multi-step conversations
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	switch state.Command {
	case commandNewBook:
		b.handleNewBookConversation(ctx, message, state)
	case commandLog:
		b.handleLogConversation(ctx, message, state)
	}

	// Clean up completed conversations
	if state.Step == -1 {
		b.clearState(message.From.ID)
	}
}

// handleNewBookConversation collects title, author, genre, pages, status and dates
func (b *Bot) handleNewBookConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	text := strings.TrimSpace(message.Text)
	chatID := message.Chat.ID

	switch state.Step {
	case 1: // Waiting for title
		if text == "" {
			b.sendText(chatID, "The title cannot be empty. Please enter the book title:")
			return
		}
		state.Data["title"] = text
		state.Step = 2
		b.sendText(chatID, "Who is the author?")

	case 2: // Waiting for author
		if text == "" {
			b.sendText(chatID, "The author cannot be empty. Who is the author?")
			return
		}
		state.Data["author"] = text
		state.Step = 3
		b.sendText(chatID, fmt.Sprintf("What genre is it? Send %s to skip.", skipInput))

	case 3: // Waiting for genre
		if text != skipInput {
			state.Data["genre"] = text
		}
		state.Step = 4
		b.sendText(chatID, "How many pages does it have?")

	case 4: // Waiting for total pages
		pages, err := strconv.Atoi(text)
		if err != nil || pages <= 0 {
			b.sendText(chatID, "❌ Please enter a positive number of pages:")
			return
		}
		state.Data["total_pages"] = pages
		state.Step = 5

		msg := tgbotapi.NewMessage(chatID, "📌 Select the status:")
		msg.ReplyMarkup = statusKeyboard()
		b.sendMessage(msg)

	case 5: // Waiting for the status button
		b.sendText(chatID, "Please choose a status with the buttons above.")

	case 6: // Waiting for start date
		date, ok := b.parseOptionalDateInput(text)
		if !ok {
			b.sendText(chatID, invalidDateText)
			return
		}
		state.Data["start_date"] = date
		if state.Data["status"].(models.Status).HasEndDate() {
			state.Step = 7
			b.sendText(chatID, datePrompt("When did you finish it?"))
			return
		}
		b.createBookFromState(ctx, chatID, state)

	case 7: // Waiting for end date
		date, ok := b.parseOptionalDateInput(text)
		if !ok {
			b.sendText(chatID, invalidDateText)
			return
		}
		state.Data["end_date"] = date
		b.createBookFromState(ctx, chatID, state)
	}
}

// createBookFromState stores the book collected by /new_book and ends the conversation
func (b *Bot) createBookFromState(ctx context.Context, chatID int64, state *ConversationState) {
	book := models.Book{
		Title:      state.Data["title"].(string),
		Author:     state.Data["author"].(string),
		TotalPages: state.Data["total_pages"].(int),
		Status:     state.Data["status"].(models.Status),
	}
	if genre, ok := state.Data["genre"].(string); ok {
		book.Genre = genre
	}
	if start, ok := state.Data["start_date"].(*time.Time); ok {
		book.StartDate = start
	}
	if end, ok := state.Data["end_date"].(*time.Time); ok {
		book.EndDate = end
	}

	created, err := b.svc.AddBook(ctx, book)
	if err != nil {
		b.logger.Error("Failed to create book from conversation", zap.Error(err), zap.String("title", book.Title))
		b.sendText(chatID, fmt.Sprintf("Error creating book: %v", err))
	} else {
		b.sendText(chatID, fmt.Sprintf("✅ Book added!\n\n📚 %s by %s\n📄 %d pages\n📌 %s",
			created.Title, created.Author, created.TotalPages, created.Status))
	}

	state.Step = -1
}

// handleLogConversation handles text input of the /log conversation
func (b *Bot) handleLogConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	text := strings.TrimSpace(message.Text)
	chatID := message.Chat.ID

	switch state.Step {
	case 1: // Waiting for the book button
		b.sendText(chatID, "Please choose a book with the buttons above.")

	case 2: // Waiting for a custom date
		if _, ok := state.Data["awaiting_custom_date"]; !ok {
			b.sendText(chatID, "Please choose a date with the buttons above.")
			return
		}
		date, ok := b.parseDateInput(text)
		if !ok {
			b.sendText(chatID, invalidDateText)
			return
		}
		delete(state.Data, "awaiting_custom_date")
		state.Data["date"] = date
		state.Step = 3
		b.sendText(chatID, pagesPrompt)

	case 3: // Waiting for pages and optional notes
		bookID := state.Data["book_id"].(int64)
		date := state.Data["date"].(time.Time)

		pages, notes, err := parsePagesInput(text)
		if err != nil {
			b.sendText(chatID, "❌ "+err.Error()+"\n\n"+pagesPrompt)
			return
		}

		b.logReading(ctx, chatID, models.LogEntry{
			BookID:    bookID,
			LogDate:   date,
			PagesRead: pages,
			Notes:     notes,
		})
		state.Step = -1
	}
}

// logReading stores the session and reports progress, offering to complete
// the book when every page has been read
func (b *Bot) logReading(ctx context.Context, chatID int64, entry models.LogEntry) {
	result, err := b.svc.LogReading(ctx, entry)
	if err != nil {
		if !errors.Is(err, models.ErrValidation) && !errors.Is(err, storage.ErrNotFound) {
			b.logger.Error("Failed to log reading", zap.Error(err), zap.Int64("book_id", entry.BookID))
		}
		b.sendText(chatID, fmt.Sprintf("Error logging reading: %v", err))
		return
	}

	text := fmt.Sprintf("✅ Reading logged!\n\n📅 Date: %s\n📚 Book: %s\n📄 Pages: %d\n\n%s",
		models.FormatDate(result.Entry.LogDate),
		result.Entry.BookTitle,
		result.Entry.PagesRead,
		formatProgress(result.Progress))

	msg := tgbotapi.NewMessage(chatID, text)
	if result.MarkCompleted {
		msg.Text += "\n\n🎉 You have read every page. Mark the book as completed?"
		msg.ReplyMarkup = completeKeyboard(result.Entry.BookID)
	}
	b.sendMessage(msg)
}

const (
	invalidDateText = "❌ Invalid date. Please use YYYY-MM-DD\n\nExample: 2024-01-15"
	pagesPrompt     = "📄 How many pages did you read? You can add a note after the number.\n\nExample: 25 great chapter"
)

func datePrompt(question string) string {
	return fmt.Sprintf("%s\nSend a date as YYYY-MM-DD, \"today\", or %s to skip.", question, skipInput)
}

// parseDateInput accepts "today", "yesterday" or a YYYY-MM-DD date
func (b *Bot) parseDateInput(text string) (time.Time, bool) {
	today := b.svc.Today()
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "today":
		return today, true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	}
	return models.ParseDate(text)
}

// parseOptionalDateInput is parseDateInput where skipInput means no date
func (b *Bot) parseOptionalDateInput(text string) (*time.Time, bool) {
	if strings.TrimSpace(text) == skipInput {
		return nil, true
	}
	date, ok := b.parseDateInput(text)
	if !ok {
		return nil, false
	}
	return &date, true
}

// parsePagesInput splits "25 great chapter" into pages and notes
func parsePagesInput(text string) (int, string, error) {
	fields := strings.SplitN(strings.TrimSpace(text), " ", 2)
	pages, err := strconv.Atoi(fields[0])
	if err != nil || pages <= 0 {
		return 0, "", fmt.Errorf("please start with a positive number of pages")
	}
	var notes string
	if len(fields) == 2 {
		notes = strings.TrimSpace(fields[1])
	}
	return pages, notes, nil
}
