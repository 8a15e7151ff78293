package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cleanmeta/internal/admin"
	"cleanmeta/internal/bot"
	"cleanmeta/internal/cleaner"
	"cleanmeta/internal/scheduler"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled cleanup, the admin page and the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if addr != "" {
				a.cfg.AdminAddr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "admin page listen address (default $ADMIN_ADDR or :8080)")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// tg is assigned before the scheduler starts.
	var tg *bot.Bot
	sched := scheduler.New(a.store, func(ctx context.Context) error {
		report, err := a.cleaner.CleanAll(ctx, cleaner.RunOptions{Record: true})
		if err != nil {
			return err
		}
		if tg != nil {
			tg.NotifyScheduledRun(report)
		}
		return nil
	}, a.log)
	if err := sched.Restore(ctx); err != nil {
		return fmt.Errorf("restore schedule: %w", err)
	}

	if a.cfg.TelegramBotToken != "" {
		b, err := bot.New(a.cfg.TelegramBotToken, a.cleaner, a.logs, sched, a.cfg, a.log)
		if err != nil {
			return err
		}
		tg = b
	} else {
		a.log.Info("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	sched.Start(ctx)
	defer sched.Stop()

	srv := admin.New(a.cleaner, a.logs, sched, a.log)
	srv.Username = a.cfg.AdminUser
	srv.Password = a.cfg.AdminPassword

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, a.cfg.AdminAddr)
	})
	if tg != nil {
		g.Go(func() error {
			a.log.Info("bot started", "allowed_users", len(a.cfg.AllowedUsers))
			tg.Run(gctx)
			return nil
		})
	}

	err := g.Wait()
	a.log.Info("shutting down")
	return err
}
