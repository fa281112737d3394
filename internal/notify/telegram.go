package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/telex-integrations/agentrelay/internal/a2a"
)

const maxAlertMessage = 4096

// TelegramAlerter pushes a short operator alert to a chat when a task
// fails. Entirely optional: a nil alerter is safe to call.
type TelegramAlerter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramAlerter creates an alerter for the given bot token and chat.
func NewTelegramAlerter(token string, chatID int64) (*TelegramAlerter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &TelegramAlerter{bot: bot, chatID: chatID}, nil
}

// TaskFailed sends a failure alert. Alert problems are logged and dropped;
// an alert is never allowed to affect task processing.
func (a *TelegramAlerter) TaskFailed(agentID string, task a2a.Task) {
	if a == nil {
		return
	}
	text := fmt.Sprintf("❌ agent %s: task %s failed", agentID, task.ID)
	if task.Status.Message != nil {
		parts := a2a.ExtractParts(*task.Status.Message, nil)
		if parts.JoinedText != "" {
			text += "\n" + parts.JoinedText
		}
	}
	if len(text) > maxAlertMessage {
		text = text[:maxAlertMessage]
	}
	if _, err := a.bot.Send(tgbotapi.NewMessage(a.chatID, text)); err != nil {
		slog.Warn("telegram alert failed", "task_id", task.ID, "error", err)
	}
}
