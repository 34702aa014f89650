package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
db_path: /tmp/trackbot-test.db
listen_addr: ":9090"
webhook:
  token: shared-secret
bridge:
  base_url: http://bridge.local
  token: bridge-key
redmine:
  base_url: https://redmine.example.com
  timeout: 5s
  open_issues_limit: 10
wizard:
  date_window_days: 3
  default_comment: From the chat bot
  general_issues:
    - id: 1
      name: Education
    - id: 4
      name: Meetings
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/trackbot-test.db", cfg.DBPath)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "shared-secret", cfg.Webhook.Token)
	assert.Equal(t, "http://bridge.local", cfg.Bridge.BaseURL)
	assert.Equal(t, "https://redmine.example.com", cfg.Redmine.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Redmine.Timeout)
	assert.Equal(t, 10, cfg.Redmine.OpenIssuesLimit)
	assert.Equal(t, 3, cfg.Wizard.DateWindowDays)
	assert.Equal(t, "From the chat bot", cfg.Wizard.DefaultComment)
	require.Len(t, cfg.Wizard.GeneralIssues, 2)
	assert.Equal(t, int64(1), cfg.Wizard.GeneralIssues[0].ID)
	assert.Equal(t, "Education", cfg.Wizard.GeneralIssues[0].Name)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
redmine:
  base_url: https://redmine.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Redmine.Timeout)
	assert.Equal(t, 25, cfg.Redmine.OpenIssuesLimit)
	assert.Equal(t, 7, cfg.Wizard.DateWindowDays)
	assert.Contains(t, cfg.DBPath, "trackbot.db")
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
redmine:
  base_url: https://redmine.example.com
`)
	t.Setenv("TRACKBOT_LISTEN_ADDR", ":7070")
	t.Setenv("TRACKBOT_REDMINE_BASE_URL", "https://other.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "https://other.example.com", cfg.Redmine.BaseURL)
}

func TestLoad_MissingTrackerURL(t *testing.T) {
	path := writeConfig(t, "listen_addr: ':9000'\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redmine.base_url")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "listen_addr: [broken\n")

	_, err := Load(path)
	assert.Error(t, err)
}
