package bot

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// WebhookPath is where Telegram delivers updates in webhook mode
const WebhookPath = "/telegram-webhook"

// SecretTokenHeader carries the secret_token registered with setWebhook
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Start runs the bot in polling mode until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot in polling mode")

	// Remove webhook (if any was set previously)
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Warn("Failed to delete webhook", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started successfully. Waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Bot polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// StartWebhook registers baseURL + WebhookPath with Telegram. Telegram echoes
// secret in SecretTokenHeader on every delivery.
func (b *Bot) StartWebhook(baseURL, secret string) error {
	webhookURL := baseURL + WebhookPath
	b.logger.Info("Setting up webhook", zap.String("webhook_url", webhookURL))

	// WebhookConfig has no secret_token field in this client version
	params := tgbotapi.Params{"url": webhookURL}
	params.AddNonZero("max_connections", 40)
	params.AddNonEmpty("secret_token", secret)

	if _, err := b.api.MakeRequest("setWebhook", params); err != nil {
		b.logger.Error("Failed to set webhook", zap.Error(err), zap.String("webhook_url", webhookURL))
		return err
	}

	info, err := b.api.GetWebhookInfo()
	if err != nil {
		b.logger.Warn("Failed to get webhook info", zap.Error(err))
	} else {
		b.logger.Info("Webhook set successfully",
			zap.String("url", info.URL),
			zap.Int("pending_updates", info.PendingUpdateCount),
		)
	}
	return nil
}

// WebhookHandler accepts updates posted by Telegram with the given secret.
// Updates are processed in the background so Telegram gets its response quickly.
func (b *Bot) WebhookHandler(ctx context.Context, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(SecretTokenHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			b.logger.Warn("Rejected webhook request with a bad secret token",
				zap.String("remote_addr", r.RemoteAddr),
			)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			b.logger.Warn("Failed to decode webhook update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		go b.HandleUpdate(ctx, update)
		w.WriteHeader(http.StatusOK)
	}
}

// HandleUpdate processes a single update from either mode
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil && update.Message.From != nil {
		userID := update.Message.From.ID
		if !b.allowedUsers[userID] {
			b.logger.Warn("Unauthorized access attempt",
				zap.Int64("user_id", userID),
				zap.String("username", update.Message.From.UserName),
				zap.String("first_name", update.Message.From.FirstName),
				zap.String("text", update.Message.Text),
			)
			b.sendText(update.Message.Chat.ID, "Sorry, you are not authorized to use this bot.")
			return
		}
		unlock := b.lockUser(userID)
		b.handleMessage(ctx, update.Message)
		unlock()
	}

	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		userID := update.CallbackQuery.From.ID
		if !b.allowedUsers[userID] {
			b.logger.Warn("Unauthorized callback query attempt",
				zap.Int64("user_id", userID),
				zap.String("username", update.CallbackQuery.From.UserName),
				zap.String("callback_data", update.CallbackQuery.Data),
			)
			return
		}
		unlock := b.lockUser(userID)
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		unlock()
	}
}
