package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 14*24*time.Hour, cfg.Loans.Period)
	assert.Equal(t, 48*time.Hour, cfg.Reminder.Lookahead)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bookhive.yaml")
	content := `
env: production
db:
  driver: sqlite
  sqlite_path: /var/lib/bookhive.db
loans:
  period: 168h
reminder:
  lookahead: 24h
auth:
  admin_emails: [root@bookhive.local]
import:
  rps: 5
  batch_size: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REMINDER_LOOKAHEAD", "72h")
	t.Setenv("ADMIN_EMAILS", "a@x.io, b@x.io")
	t.Setenv("OPENLIBRARY_USER_AGENT", "bookhive-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/var/lib/bookhive.db", cfg.DB.SQLitePath)
	assert.Equal(t, 7*24*time.Hour, cfg.Loans.Period)
	assert.Equal(t, 72*time.Hour, cfg.Reminder.Lookahead)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, cfg.Auth.AdminEmails)
	assert.Equal(t, "0 9 * * *", cfg.ReminderSchedule())
	assert.Equal(t, 5, cfg.Import.RPS)
	assert.Equal(t, 50, cfg.Import.BatchSize)
	assert.Equal(t, 2, cfg.Import.Concurrency)
	assert.Equal(t, "bookhive-test", cfg.Import.UserAgent)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOAN_PERIOD", "two weeks")

	_, err := Load()
	assert.ErrorContains(t, err, "LOAN_PERIOD")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	assert.ErrorContains(t, err, "JWT_SECRET")

	cfg.Auth.JWTSecret = "s"
	cfg.DB.Driver = "mongo"
	assert.ErrorContains(t, cfg.Validate(), "unknown DB_DRIVER")
}

func TestValidate_QueryTimeout(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_QUERY_TIMEOUT", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "DB_QUERY_TIMEOUT must be positive")

	cfg.DB.QueryTimeout = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "DB_QUERY_TIMEOUT")
}

func TestReminderSchedule(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "*/30 * * * * *", cfg.ReminderSchedule())

	cfg.Reminder.Schedule = "@hourly"
	assert.Equal(t, "@hourly", cfg.ReminderSchedule())
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, ".env")
	require.NoError(t, os.WriteFile(p, []byte("DB_DSN=from_file\n"), 0o644))

	t.Setenv("DB_DSN", "from_env")

	cwd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	loadEnvFiles()

	assert.Equal(t, "from_env", os.Getenv("DB_DSN"))
}
