package notify

import (
	"fmt"
	"os"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"meritage-scraper/pipeline"
)

// Notifier sends a run summary to a Telegram chat. It is optional:
// when the bot token or chat id is absent, NewFromEnv returns nil and
// the caller skips notification.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewFromEnv builds a Notifier from TELEGRAM_BOT_TOKEN and
// TELEGRAM_CHAT_ID, or returns nil when either is unset.
func NewFromEnv() (*Notifier, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	chatIDStr := os.Getenv("TELEGRAM_CHAT_ID")
	if token == "" || chatIDStr == "" {
		return nil, nil
	}

	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	return &Notifier{bot: bot, chatID: chatID}, nil
}

// SendRunSummary reports the outcome of a finished run.
func (n *Notifier) SendRunSummary(summary *pipeline.Summary) error {
	text := fmt.Sprintf(
		"✅ Harvest run finished\n\nProcessed: %d\nSkipped (already materialized): %d\nFailed: %d",
		summary.Processed, summary.Skipped, summary.Failed)

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	return nil
}
