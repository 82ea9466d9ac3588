package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp isolates Load from any .env in the package directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddr)
	assert.Equal(t, BackendGitHub, cfg.BackupBackend)
	assert.Equal(t, "data/records.json", cfg.RecordsPath)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, cfg.FormRetryDelays)
	assert.Equal(t, 3, cfg.FormRetryAttempts)
	assert.Equal(t, time.Second, cfg.SaveRetryDelay)
	assert.Equal(t, time.Minute, cfg.RecheckDelay)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ADMIN_USER_IDS", " 1, 2 ,,3")
	t.Setenv("BACKUP_BACKEND", "Postgres")
	t.Setenv("FORM_RETRY_DELAYS", "10ms,20ms")
	t.Setenv("PUBLIC_BASE_URL", "https://bot.example/")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, cfg.AdminUserIDs)
	assert.True(t, cfg.IsAdmin("2"))
	assert.False(t, cfg.IsAdmin("4"))
	assert.Equal(t, BackendPostgres, cfg.BackupBackend)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, cfg.FormRetryDelays)
	assert.Equal(t, "https://bot.example/webhooks/form", cfg.WebhookURL())
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GITHUB_OWNER=from-file\nGITHUB_REPO=backup\n"), 0o600))
	t.Setenv("GITHUB_OWNER", "from-env")
	t.Setenv("GITHUB_REPO", "")
	os.Unsetenv("GITHUB_REPO")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GitHubOwner)
	assert.Equal(t, "backup", cfg.GitHubRepo)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("RECHECK_DELAY: 5s\nJOTFORM_API_KEY: abc\n"), 0o600))
	t.Setenv("COMMISSION_BOT_CONFIG", path)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.RecheckDelay)
	assert.Equal(t, "abc", cfg.JotformAPIKey)
}

func TestLoad_BadDuration(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SAVE_RETRY_DELAY", "soon")

	_, err := Load()

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		BackupBackend:     BackendBolt,
		BoltPath:          "x.db",
		DiscordToken:      "t",
		JotformAPIKey:     "k",
		DriveClientID:     "id",
		DriveClientSecret: "secret",
		DriveRefreshToken: "refresh",
		DriveRootFolderID: "root",
		FormRetryAttempts: 3,
		SaveRetryAttempts: 3,
	}
	require.NoError(t, cfg.Validate())

	cfg.DiscordToken = ""
	assert.ErrorContains(t, cfg.Validate(), "DISCORD_TOKEN")

	gh := &Config{BackupBackend: BackendGitHub}
	assert.ErrorContains(t, gh.ValidateStorage(), "GITHUB_TOKEN, GITHUB_OWNER, GITHUB_REPO")

	unknown := &Config{BackupBackend: "s3"}
	assert.Error(t, unknown.ValidateStorage())
}
