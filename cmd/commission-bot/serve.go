package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/execution-hub/commission-bot/internal/api/discord"
	httpapi "github.com/execution-hub/commission-bot/internal/api/http"
	"github.com/execution-hub/commission-bot/internal/application/auth"
	"github.com/execution-hub/commission-bot/internal/application/completion"
	appNotification "github.com/execution-hub/commission-bot/internal/application/notification"
	"github.com/execution-hub/commission-bot/internal/application/records"
	"github.com/execution-hub/commission-bot/internal/application/session"
	"github.com/execution-hub/commission-bot/internal/application/transfer"
	"github.com/execution-hub/commission-bot/internal/application/workflow"
	"github.com/execution-hub/commission-bot/internal/config"
	"github.com/execution-hub/commission-bot/internal/infrastructure/drive"
	"github.com/execution-hub/commission-bot/internal/infrastructure/jotform"
	"github.com/execution-hub/commission-bot/internal/infrastructure/sse"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord bot and the form webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := newLogger(cfg.LogLevel)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// infrastructure
	var formOpts []jotform.Option
	if hook := cfg.WebhookURL(); hook != "" {
		formOpts = append(formOpts, jotform.WithWebhook(hook))
	} else {
		logger.Warn().Msg("PUBLIC_BASE_URL not set, completions will only be found by polling")
	}
	forms := jotform.NewClient(cfg.JotformBaseURL, cfg.JotformAPIKey, logger, formOpts...)

	storage, err := drive.NewStorage(ctx, cfg.DriveClientID, cfg.DriveClientSecret, cfg.DriveRefreshToken)
	if err != nil {
		return fmt.Errorf("drive error: %w", err)
	}
	sseHub := sse.NewHub()

	condition, err := appNotification.ParseCondition(cfg.AnnounceCondition)
	if err != nil {
		return fmt.Errorf("ANNOUNCE_CONDITION: %w", err)
	}

	// services
	recordSvc := records.NewService(store, recordOptions(cfg), logger)
	transferSvc := transfer.NewService(forms, storage, cfg.DriveRootFolderID, logger)
	notificationSvc := appNotification.NewService(condition, time.Second, logger, sse.NewPublisher(sseHub))
	workflowSvc := workflow.NewService(workflow.Deps{
		Sessions: session.NewStore(),
		Tracker:  completion.NewTracker(),
		Forms:    forms,
		Transfer: transferSvc,
		Records:  recordSvc,
		Notifier: notificationSvc,
	}, workflow.Options{
		FormAttempts: cfg.FormRetryAttempts,
		FormDelays:   cfg.FormRetryDelays,
		RecheckDelay: cfg.RecheckDelay,
	}, logger)
	authSvc := auth.NewService(cfg.OperatorKeyHash, logger)

	bot, err := discord.New(cfg.DiscordToken, workflowSvc, recordSvc, discord.Options{
		AppID:             cfg.DiscordAppID,
		GuildID:           cfg.DiscordGuildID,
		AnnounceChannelID: cfg.AnnounceChannelID,
		IsAdmin:           cfg.IsAdmin,
	}, logger)
	if err != nil {
		return err
	}
	notificationSvc.AddPublisher(bot)
	notificationSvc.AddPublisher(bot.Announcer())

	// API server
	apiServer := httpapi.NewServer(workflowSvc, authSvc, sseHub, logger)
	httpServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		// No write timeout: operator event streams stay open.
		IdleTimeout: 60 * time.Second,
	}

	if err := bot.Open(); err != nil {
		return err
	}
	defer func() {
		if err := bot.Close(); err != nil {
			logger.Warn().Err(err).Msg("discord close failed")
		}
	}()

	// start server
	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serveErr:
		logger.Error().Err(err).Msg("http server failed")
		return err
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sseHub.Stop()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Warn().Err(err).Msg("http shutdown incomplete")
	}
	logger.Info().Int("abandoned_sessions", workflowSvc.ActiveSessions()).Msg("shutdown complete")
	return nil
}
