package bot

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"readtracker/internal/stats"
	"readtracker/internal/tracker"
)

// Bot represents the Telegram bot wrapper
type Bot struct {
	api          *tgbotapi.BotAPI
	svc          *tracker.Service
	allowedUsers map[int64]bool
	states       map[int64]*ConversationState
	goals        map[int64]stats.Goals // per-user goals, kept for the bot's lifetime
	userLocks    map[int64]*sync.Mutex
	statesMu     sync.Mutex
	logger       *zap.Logger
}

// ConversationState tracks the state of multi-step commands.
// Step -1 marks a finished conversation.
type ConversationState struct {
	Command string
	Step    int
	Data    map[string]interface{}
}

const (
	commandNewBook = "new_book"
	commandLog     = "log"
)
