package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cleanmeta/internal/cleaner"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Clean Meta Keys

Removes duplicate metadata rows, keeping the newest row for every item and key.

Quick start:
1. /clean <item_id> <meta_key> — clean one item
2. /cleanall — clean every configured item
3. /schedule <days> — run the cleanup automatically

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Cleanup:
/clean <item_id> <meta_key> — remove duplicates of one key
/cleanall — clean all configured items and keys

Schedule:
/schedule — show the current schedule
/schedule <days> — run the cleanup every N days

Logs:
/logs — show the last 10 cleanup reports
/clearlog — delete all reports`)
}

func (b *Bot) handleClean(ctx context.Context, chatID int64, args string) {
	target, err := ParseCleanArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /clean <item_id> <meta_key>")
		return
	}

	r, err := b.cleaner.Clean(ctx, target, nil)
	if err != nil {
		b.log.Error("clean", "item_id", target.ItemID, "key", target.Key, "error", err)
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatReport(r))
}

func (b *Bot) handleCleanAllConfirm(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Run the cleanup on all configured items now?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, run", cmdCleanAll+":0"),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", "noop:0"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send cleanall confirmation", "error", err)
	}
}

func (b *Bot) handleCleanAll(ctx context.Context, chatID int64) {
	report, err := b.cleaner.CleanAll(ctx, cleaner.RunOptions{Record: true})
	if err != nil {
		b.log.Error("manual cleanup", "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, Truncate("Manual cleanup complete.\n\n"+report))
}

func (b *Bot) handleLogs(ctx context.Context, chatID int64) {
	entries, err := b.history.List(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(entries) == 0 {
		b.reply(chatID, FormatLogs(entries))
		return
	}

	msg := tgbotapi.NewMessage(chatID, Truncate(FormatLogs(entries)))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Clear log", cmdClearLog+":0"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send logs", "error", err)
	}
}

func (b *Bot) handleClearLog(ctx context.Context, chatID int64) {
	if err := b.history.Clear(ctx); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.log.Info("log cleared", "chat_id", chatID)
	b.reply(chatID, "Logs cleared.")
}

func (b *Bot) handleSchedule(ctx context.Context, chatID int64, args string) {
	if args != "" {
		days, err := ParseDaysArg(args)
		if err != nil {
			b.reply(chatID, "Usage: /schedule <days> (a positive number)")
			return
		}
		if err := b.schedule.Update(ctx, days); err != nil {
			b.reply(chatID, fmt.Sprintf("Error: %v", err))
			return
		}
	}

	cfg, err := b.schedule.Config(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	next, ok := b.schedule.NextRun()
	b.reply(chatID, FormatSchedule(cfg, next, ok))
}
