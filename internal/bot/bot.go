// Package bot exposes the cleanup to operators through a Telegram chat.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cleanmeta/internal/cleaner"
	"cleanmeta/internal/config"
	"cleanmeta/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Cleaner runs single-target and batch cleanups.
type Cleaner interface {
	Clean(ctx context.Context, target model.DedupTarget, out cleaner.Reporter) (model.Report, error)
	CleanAll(ctx context.Context, opts cleaner.RunOptions) (string, error)
}

// History is the recorded batch reports.
type History interface {
	List(ctx context.Context) ([]model.LogEntry, error)
	Clear(ctx context.Context) error
}

// Schedule reads and changes the recurring cleanup.
type Schedule interface {
	Config(ctx context.Context) (model.ScheduleConfig, error)
	Update(ctx context.Context, days int) error
	NextRun() (time.Time, bool)
}

// Bot is the Telegram bot that handles operator commands.
type Bot struct {
	api      telegramAPI
	cleaner  Cleaner
	history  History
	schedule Schedule
	cfg      *config.Config
	log      *slog.Logger
}

// New creates a Bot with the given Telegram token.
func New(token string, c Cleaner, history History, schedule Schedule, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:      api,
		cleaner:  c,
		history:  history,
		schedule: schedule,
		cfg:      cfg,
		log:      log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		if update.CallbackQuery.From == nil || !b.cfg.IsUserAllowed(update.CallbackQuery.From.ID) {
			return
		}
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	if update.Message.From == nil || !b.cfg.IsUserAllowed(update.Message.From.ID) {
		b.reply(update.Message.Chat.ID, "Access denied.")
		return
	}
	b.handleCommand(ctx, update.Message)
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

// NotifyScheduledRun sends the report of a scheduled cleanup to every
// allowed user. Nothing is sent while the allow-list is empty.
func (b *Bot) NotifyScheduledRun(report string) {
	text := Truncate("Scheduled cleanup complete.\n\n" + report)
	for _, userID := range b.cfg.AllowedUsers {
		b.SendMessage(userID, text)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "clean":
		b.handleClean(ctx, chatID, args)
	case cmdCleanAll:
		b.handleCleanAllConfirm(chatID)
	case "logs":
		b.handleLogs(ctx, chatID)
	case cmdClearLog:
		b.handleClearLog(ctx, chatID)
	case "schedule":
		b.handleSchedule(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
