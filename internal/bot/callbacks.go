package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdCleanAll = "cleanall"
	cmdClearLog = "clearlog"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	action, _, ok := strings.Cut(cb.Data, ":")
	if !ok {
		return
	}

	b.log.Info("callback",
		"action", action,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case cmdCleanAll:
		b.handleCleanAll(ctx, chatID)
	case cmdClearLog:
		b.handleClearLog(ctx, chatID)
	}
}
