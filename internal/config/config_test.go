package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_PROVIDER", "LLM_MODEL", "LLM_API_KEY", "LLM_BASE_URL",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"HTTP_ADDR", "HISTORY_BACKEND", "HISTORY_PATH", "HISTORY_LABEL",
		"SKYBET_DB_PATH", "BOT_TOKEN", "ADMIN_TELEGRAM_ID", "MAX_IMAGE_BYTES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	assert.Equal(t, HistoryBackendFile, cfg.History.Backend)
	assert.Equal(t, DefaultHistoryPath, cfg.History.Path)
	assert.Equal(t, DefaultHistoryLabel, cfg.History.Label)
	assert.Equal(t, int64(DefaultMaxImageSize), cfg.MaxImageBytes)
	assert.False(t, cfg.BotEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "skybet.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[llm]
provider = "claude"
model = "claude-haiku-4-5"
api_key = "from-file"

[history]
backend = "sqlite"
label = "Rounds"

[server]
addr = ":9000"
`), 0600))

	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("ADMIN_TELEGRAM_ID", "1234")
	t.Setenv("BOT_TOKEN", "token")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, "claude-haiku-4-5", cfg.LLM.Model)
	assert.Equal(t, "from-file", cfg.LLM.APIKey)
	assert.Equal(t, HistoryBackendSQLite, cfg.History.Backend)
	assert.Equal(t, "Rounds", cfg.History.Label)
	assert.Equal(t, ":9100", cfg.Server.Addr)
	assert.Equal(t, int64(1234), cfg.Bot.AdminID)
	assert.True(t, cfg.BotEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ProviderKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "o-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "o-key", cfg.LLM.APIKey)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_TELEGRAM_ID", "not-a-number")
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "ADMIN_TELEGRAM_ID")

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[llm\n"), 0600))
	t.Setenv("ADMIN_TELEGRAM_ID", "")
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to parse TOML")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")

	cfg.LLM.APIKey = "k"
	cfg.LLM.Provider = "ollama"
	cfg.History.Backend = "redis"
	cfg.Bot.Token = "t"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported llm provider "ollama"`)
	assert.Contains(t, err.Error(), `unsupported history backend "redis"`)
	assert.Contains(t, err.Error(), "ADMIN_TELEGRAM_ID")
}

func TestWriteEnvFile_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), AppName, EnvFileName)

	require.NoError(t, WriteEnvFile(path, map[string]string{
		"LLM_PROVIDER": "claude",
		"LLM_API_KEY":  `sk "quoted" key`,
	}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	values, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "claude", values["LLM_PROVIDER"])
	assert.Equal(t, `sk "quoted" key`, values["LLM_API_KEY"])

	// Keys already exist (cleared) so Load would skip them
	require.NoError(t, godotenv.Overload(path))
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.False(t, cfg.NeedsSetup())
}
