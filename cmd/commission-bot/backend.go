package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/execution-hub/commission-bot/internal/application/records"
	"github.com/execution-hub/commission-bot/internal/config"
	"github.com/execution-hub/commission-bot/internal/domain/submission"
	"github.com/execution-hub/commission-bot/internal/infrastructure/bolt"
	"github.com/execution-hub/commission-bot/internal/infrastructure/github"
	"github.com/execution-hub/commission-bot/internal/infrastructure/postgres"
)

func newLogger(level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

// openStore connects the configured backup backend. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (submission.DocumentStore, func(), error) {
	switch cfg.BackupBackend {
	case config.BackendGitHub:
		logger.Info().Str("repo", cfg.GitHubOwner+"/"+cfg.GitHubRepo).Str("branch", cfg.GitHubBranch).Msg("using github backup")
		return github.NewStore(cfg.GitHubToken, cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubBranch), func() {}, nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db error: %w", err)
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migration error: %w", err)
		}
		logger.Info().Msg("using postgres backup")
		return postgres.NewDocumentRepository(pool), pool.Close, nil

	case config.BackendBolt:
		store, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("path", cfg.BoltPath).Msg("using bolt backup")
		return store, func() { _ = store.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown BACKUP_BACKEND %q", cfg.BackupBackend)
}

func recordOptions(cfg *config.Config) records.Options {
	return records.Options{
		RecordsPath:  cfg.RecordsPath,
		SettingsPath: cfg.SettingsPath,
		Attempts:     cfg.SaveRetryAttempts,
		Delay:        cfg.SaveRetryDelay,
	}
}
