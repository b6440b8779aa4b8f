package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"readtracker/internal/models"
	"readtracker/internal/stats"
)

// recentLogLimit is how many sessions /last shows
const recentLogLimit = 10

// handleStart shows welcome message and available commands
func (b *Bot) handleStart(message *tgbotapi.Message) {
	text := `Welcome to the Reading Tracker! 📚

Available commands:
/new_book - Add a book
/log - Log a reading session
/summary [year] - Yearly dashboard
/reading - Progress of the books you are reading
/stats - Reading pace and habits
/goals [books pages] - Show or set your goals
/suggest - What to read next
/last - Last 10 reading sessions`

	b.sendText(message.Chat.ID, text)
}

// handleNewBookStart initiates the new book conversation
func (b *Bot) handleNewBookStart(message *tgbotapi.Message) {
	b.setState(message.From.ID, &ConversationState{
		Command: commandNewBook,
		Step:    1,
		Data:    make(map[string]interface{}),
	})

	b.sendText(message.Chat.ID, "Please enter the book title:")
}

// handleLogStart initiates the reading session conversation
func (b *Bot) handleLogStart(ctx context.Context, message *tgbotapi.Message) {
	books, err := b.loggableBooks(ctx)
	if err != nil {
		b.logger.Error("Failed to list books for /log", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(books) == 0 {
		b.sendText(message.Chat.ID, "No books yet. Please add one first with /new_book")
		return
	}

	b.setState(message.From.ID, &ConversationState{
		Command: commandLog,
		Step:    1,
		Data:    make(map[string]interface{}),
	})

	msg := tgbotapi.NewMessage(message.Chat.ID, "📚 Select a book:")
	msg.ReplyMarkup = bookKeyboard(books)
	b.sendMessage(msg)
}

// loggableBooks prefers the books being read and falls back to every book
func (b *Bot) loggableBooks(ctx context.Context) ([]models.Book, error) {
	books, err := b.svc.BooksByStatus(ctx, models.StatusReading)
	if err != nil || len(books) > 0 {
		return books, err
	}
	return b.svc.Books(ctx)
}

// handleSummary shows the dashboard of the requested year
func (b *Bot) handleSummary(ctx context.Context, message *tgbotapi.Message) {
	year := 0
	if arg := strings.TrimSpace(message.CommandArguments()); arg != "" {
		parsed, err := strconv.Atoi(arg)
		if err != nil || parsed < 1900 || parsed > 2100 {
			b.sendText(message.Chat.ID, "❌ Invalid year. Usage: /summary 2024")
			return
		}
		year = parsed
	}

	dashboard, err := b.svc.Dashboard(ctx, year)
	if err != nil {
		b.logger.Error("Failed to compute dashboard", zap.Error(err), zap.Int("year", year))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}

	b.sendText(message.Chat.ID, formatDashboard(dashboard))
}

// handleReading shows the progress of every book being read
func (b *Bot) handleReading(ctx context.Context, message *tgbotapi.Message) {
	progress, err := b.svc.ReadingProgress(ctx)
	if err != nil {
		b.logger.Error("Failed to compute reading progress", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(progress) == 0 {
		b.sendText(message.Chat.ID, "You are not reading any book right now.")
		return
	}

	var text strings.Builder
	text.WriteString("📖 Currently reading:\n\n")
	for _, p := range progress {
		text.WriteString(formatProgress(p))
		text.WriteString("\n")
	}
	b.sendText(message.Chat.ID, text.String())
}

// handleStats shows the whole-history statistics
func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) {
	statistics, err := b.svc.Statistics(ctx)
	if err != nil {
		b.logger.Error("Failed to compute statistics", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.sendText(message.Chat.ID, formatStatistics(statistics))
}

// handleGoals shows the user's goals, setting them first when arguments are given.
// "/goals 12 30" sets 12 books a year and 30 pages a day; "/goals clear" resets both.
func (b *Bot) handleGoals(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	args := strings.Fields(message.CommandArguments())

	switch {
	case len(args) == 1 && strings.EqualFold(args[0], "clear"):
		b.statesMu.Lock()
		delete(b.goals, userID)
		b.statesMu.Unlock()
	case len(args) > 0:
		goals, err := parseGoals(args)
		if err != nil {
			b.sendText(message.Chat.ID, "❌ "+err.Error()+"\n\nUsage: /goals <books per year> <pages per day>")
			return
		}
		b.statesMu.Lock()
		b.goals[userID] = goals
		b.statesMu.Unlock()
	}

	b.statesMu.Lock()
	goals := b.goals[userID]
	b.statesMu.Unlock()

	report, err := b.svc.GoalReport(ctx, goals, 0)
	if err != nil {
		b.logger.Error("Failed to compute goals", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.sendText(message.Chat.ID, formatGoals(report))
}

func parseGoals(args []string) (stats.Goals, error) {
	if len(args) != 2 {
		return stats.Goals{}, fmt.Errorf("expected two numbers")
	}
	books, err := strconv.Atoi(args[0])
	if err != nil || books < 0 {
		return stats.Goals{}, fmt.Errorf("invalid books per year %q", args[0])
	}
	pages, err := strconv.Atoi(args[1])
	if err != nil || pages < 0 {
		return stats.Goals{}, fmt.Errorf("invalid pages per day %q", args[1])
	}
	return stats.Goals{BooksPerYear: books, PagesPerDay: pages}, nil
}

// handleSuggest shows wishlist suggestions
func (b *Bot) handleSuggest(ctx context.Context, message *tgbotapi.Message) {
	suggestions, err := b.svc.Suggestions(ctx)
	if err != nil {
		b.logger.Error("Failed to compute suggestions", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.sendText(message.Chat.ID, formatSuggestions(suggestions))
}

// handleLast shows the most recent reading sessions
func (b *Bot) handleLast(ctx context.Context, message *tgbotapi.Message) {
	logs, err := b.svc.RecentLogs(ctx, recentLogLimit)
	if err != nil {
		b.logger.Error("Failed to list recent logs", zap.Error(err))
		b.sendText(message.Chat.ID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(logs) == 0 {
		b.sendText(message.Chat.ID, "No reading sessions logged yet.")
		return
	}

	var text strings.Builder
	text.WriteString("Last reading sessions:\n\n")
	for i, entry := range logs {
		text.WriteString(fmt.Sprintf("%d. %s - %s (%d pages)\n",
			i+1,
			models.FormatDate(entry.LogDate),
			entry.BookTitle,
			entry.PagesRead))
	}
	b.sendText(message.Chat.ID, text.String())
}
