package bot

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage",
				zap.Any("panic", r),
				zap.Int64("user_id", message.From.ID),
			)
			b.clearState(message.From.ID)
			b.sendText(message.Chat.ID, "An error occurred while processing your request. Please try again.")
		}
	}()

	userID := message.From.ID

	if state := b.state(userID); state != nil {
		switch {
		case state.Step == -1:
			// Stale finished conversation, process the message as new
			b.clearState(userID)
		case message.IsCommand():
			// Any command interrupts an ongoing conversation
			b.clearState(userID)
		default:
			b.handleConversation(ctx, message, state)
			return
		}
	}

	if !message.IsCommand() {
		return
	}

	switch message.Command() {
	case "start", "help":
		b.handleStart(message)
	case commandNewBook:
		b.handleNewBookStart(message)
	case commandLog:
		b.handleLogStart(ctx, message)
	case "summary":
		b.handleSummary(ctx, message)
	case "reading":
		b.handleReading(ctx, message)
	case "stats":
		b.handleStats(ctx, message)
	case "goals":
		b.handleGoals(ctx, message)
	case "suggest":
		b.handleSuggest(ctx, message)
	case "last":
		b.handleLast(ctx, message)
	default:
		b.sendText(message.Chat.ID, "Unknown command. Use /start to see available commands.")
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery",
				zap.Any("panic", r),
				zap.String("callback_data", query.Data),
			)
		}
	}()

	// Answer the callback query to remove loading state
	if b.api != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Debug("Failed to answer callback query", zap.Error(err))
		}
	}

	if query.Message == nil {
		return
	}

	userID := query.From.ID
	data := query.Data

	// Completion prompts outlive the /log conversation
	if strings.HasPrefix(data, "complete:") {
		b.handleCompleteCallback(ctx, query)
		return
	}

	state := b.state(userID)
	if state == nil {
		return
	}

	switch {
	case strings.HasPrefix(data, "status:"):
		b.handleStatusCallback(ctx, query, state)
	case strings.HasPrefix(data, "book:"):
		b.handleBookCallback(ctx, query, state)
	case strings.HasPrefix(data, "date:"):
		b.handleDateCallback(ctx, query, state)
	}

	if state.Step == -1 {
		b.clearState(userID)
	}
}

// lockUser serializes the updates of one user, whose conversation state is
// mutated without holding statesMu. It returns the unlock function.
func (b *Bot) lockUser(userID int64) func() {
	b.statesMu.Lock()
	mu, ok := b.userLocks[userID]
	if !ok {
		mu = &sync.Mutex{}
		b.userLocks[userID] = mu
	}
	b.statesMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (b *Bot) state(userID int64) *ConversationState {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	return b.states[userID]
}

func (b *Bot) setState(userID int64, state *ConversationState) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	b.states[userID] = state
}

func (b *Bot) clearState(userID int64) {
	b.statesMu.Lock()
	defer b.statesMu.Unlock()
	delete(b.states, userID)
}
