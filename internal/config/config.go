package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendGitHub   = "github"
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
)

// Config holds service configuration.
type Config struct {
	ServerAddr    string
	PublicBaseURL string
	LogLevel      string

	DiscordToken      string
	DiscordAppID      string
	DiscordGuildID    string
	AnnounceChannelID string
	AdminUserIDs      []string
	AnnounceCondition string
	OperatorKeyHash   string

	JotformAPIKey  string
	JotformBaseURL string

	BackupBackend string
	GitHubToken   string
	GitHubOwner   string
	GitHubRepo    string
	GitHubBranch  string
	RecordsPath   string
	SettingsPath  string
	DatabaseURL   string
	BoltPath      string

	DriveClientID     string
	DriveClientSecret string
	DriveRefreshToken string
	DriveRootFolderID string

	FormRetryAttempts int
	FormRetryDelays   []time.Duration
	SaveRetryAttempts int
	SaveRetryDelay    time.Duration
	RecheckDelay      time.Duration
}

// Load reads configuration. A .env file in the working directory is
// loaded first without overriding the real environment; an optional YAML
// file named by COMMISSION_BOT_CONFIG fills keys the environment leaves
// unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("COMMISSION_BOT_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDR", "0.0.0.0:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JOTFORM_BASE_URL", "https://api.jotform.com")
	v.SetDefault("BACKUP_BACKEND", BackendGitHub)
	v.SetDefault("GITHUB_BRANCH", "main")
	v.SetDefault("RECORDS_PATH", "data/records.json")
	v.SetDefault("SETTINGS_PATH", "data/fast_commission.json")
	v.SetDefault("BOLT_PATH", "commission-bot.db")
	v.SetDefault("FORM_RETRY_ATTEMPTS", 3)
	v.SetDefault("FORM_RETRY_DELAYS", "2s,4s,8s")
	v.SetDefault("SAVE_RETRY_ATTEMPTS", 3)
	v.SetDefault("SAVE_RETRY_DELAY", "1s")
	v.SetDefault("RECHECK_DELAY", "60s")
}

func fromViper(v *viper.Viper) (*Config, error) {
	formDelays, err := parseDurations(v.GetString("FORM_RETRY_DELAYS"))
	if err != nil {
		return nil, fmt.Errorf("FORM_RETRY_DELAYS: %w", err)
	}
	saveDelay, err := time.ParseDuration(v.GetString("SAVE_RETRY_DELAY"))
	if err != nil {
		return nil, fmt.Errorf("SAVE_RETRY_DELAY: %w", err)
	}
	recheck, err := time.ParseDuration(v.GetString("RECHECK_DELAY"))
	if err != nil {
		return nil, fmt.Errorf("RECHECK_DELAY: %w", err)
	}

	return &Config{
		ServerAddr:    v.GetString("SERVER_ADDR"),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		LogLevel:      v.GetString("LOG_LEVEL"),

		DiscordToken:      v.GetString("DISCORD_TOKEN"),
		DiscordAppID:      v.GetString("DISCORD_APP_ID"),
		DiscordGuildID:    v.GetString("DISCORD_GUILD_ID"),
		AnnounceChannelID: v.GetString("ANNOUNCE_CHANNEL_ID"),
		AdminUserIDs:      splitList(v.GetString("ADMIN_USER_IDS")),
		AnnounceCondition: v.GetString("ANNOUNCE_CONDITION"),
		OperatorKeyHash:   v.GetString("OPERATOR_KEY_HASH"),

		JotformAPIKey:  v.GetString("JOTFORM_API_KEY"),
		JotformBaseURL: v.GetString("JOTFORM_BASE_URL"),

		BackupBackend: strings.ToLower(v.GetString("BACKUP_BACKEND")),
		GitHubToken:   v.GetString("GITHUB_TOKEN"),
		GitHubOwner:   v.GetString("GITHUB_OWNER"),
		GitHubRepo:    v.GetString("GITHUB_REPO"),
		GitHubBranch:  v.GetString("GITHUB_BRANCH"),
		RecordsPath:   v.GetString("RECORDS_PATH"),
		SettingsPath:  v.GetString("SETTINGS_PATH"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		BoltPath:      v.GetString("BOLT_PATH"),

		DriveClientID:     v.GetString("DRIVE_CLIENT_ID"),
		DriveClientSecret: v.GetString("DRIVE_CLIENT_SECRET"),
		DriveRefreshToken: v.GetString("DRIVE_REFRESH_TOKEN"),
		DriveRootFolderID: v.GetString("DRIVE_ROOT_FOLDER_ID"),

		FormRetryAttempts: v.GetInt("FORM_RETRY_ATTEMPTS"),
		FormRetryDelays:   formDelays,
		SaveRetryAttempts: v.GetInt("SAVE_RETRY_ATTEMPTS"),
		SaveRetryDelay:    saveDelay,
		RecheckDelay:      recheck,
	}, nil
}

// ValidateStorage checks what every command touching the backup repository
// needs.
func (c *Config) ValidateStorage() error {
	var missing []string
	switch c.BackupBackend {
	case BackendGitHub:
		missing = appendMissing(missing, "GITHUB_TOKEN", c.GitHubToken)
		missing = appendMissing(missing, "GITHUB_OWNER", c.GitHubOwner)
		missing = appendMissing(missing, "GITHUB_REPO", c.GitHubRepo)
	case BackendPostgres:
		missing = appendMissing(missing, "DATABASE_URL", c.DatabaseURL)
	case BackendBolt:
		missing = appendMissing(missing, "BOLT_PATH", c.BoltPath)
	default:
		return fmt.Errorf("unknown BACKUP_BACKEND %q", c.BackupBackend)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Validate checks everything serve needs.
func (c *Config) Validate() error {
	if err := c.ValidateStorage(); err != nil {
		return err
	}
	var missing []string
	missing = appendMissing(missing, "DISCORD_TOKEN", c.DiscordToken)
	missing = appendMissing(missing, "JOTFORM_API_KEY", c.JotformAPIKey)
	missing = appendMissing(missing, "DRIVE_CLIENT_ID", c.DriveClientID)
	missing = appendMissing(missing, "DRIVE_CLIENT_SECRET", c.DriveClientSecret)
	missing = appendMissing(missing, "DRIVE_REFRESH_TOKEN", c.DriveRefreshToken)
	missing = appendMissing(missing, "DRIVE_ROOT_FOLDER_ID", c.DriveRootFolderID)
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.FormRetryAttempts < 1 || c.SaveRetryAttempts < 1 {
		return errors.New("retry attempts must be at least 1")
	}
	return nil
}

// IsAdmin reports whether userID is on the operator allowlist.
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// WebhookURL is where the form provider pushes completions, empty when no
// public URL is configured.
func (c *Config) WebhookURL() string {
	if c.PublicBaseURL == "" {
		return ""
	}
	return c.PublicBaseURL + "/webhooks/form"
}

func appendMissing(missing []string, key, val string) []string {
	if strings.TrimSpace(val) == "" {
		return append(missing, key)
	}
	return missing
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDurations(val string) ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range splitList(val) {
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
