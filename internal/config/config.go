// Package config loads skybet settings from config.env, an optional TOML file,
// and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	AppName     = "skybet"
	EnvFileName = "config.env"

	DefaultConfigFile   = "skybet.toml"
	DefaultHTTPAddr     = ":8080"
	DefaultHistoryPath  = "history.json"
	DefaultHistoryLabel = "Historical Data"
	DefaultDBPath       = "skybet.db"
	DefaultMaxImageSize = 10 * 1024 * 1024

	HistoryBackendFile   = "file"
	HistoryBackendSQLite = "sqlite"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type HistoryConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
	Label   string `toml:"label"`
}

type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

type BotConfig struct {
	Token   string `toml:"token"`
	AdminID int64  `toml:"admin_id"`
}

type Config struct {
	LLM           LLMConfig     `toml:"llm"`
	Server        ServerConfig  `toml:"server"`
	History       HistoryConfig `toml:"history"`
	Storage       StorageConfig `toml:"storage"`
	Bot           BotConfig     `toml:"bot"`
	MaxImageBytes int64         `toml:"max_image_bytes"`
}

// Dir returns the application's directory under the user config directory.
func Dir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configBase, AppName), nil
}

// EnvFilePath returns the path of config.env.
func EnvFilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, EnvFileName), nil
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
func LoadEnvFile() {
	configPath, err := EnvFilePath()
	if err != nil {
		return
	}
	_ = godotenv.Load(configPath)
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		LLM:           LLMConfig{Provider: "gemini"},
		Server:        ServerConfig{Addr: DefaultHTTPAddr},
		History:       HistoryConfig{Backend: HistoryBackendFile, Path: DefaultHistoryPath, Label: DefaultHistoryLabel},
		Storage:       StorageConfig{DBPath: DefaultDBPath},
		MaxImageBytes: DefaultMaxImageSize,
	}
}

// Load reads the TOML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv loads config.env, then the TOML file named by SKYBET_CONFIG.
func FromEnv() (*Config, error) {
	LoadEnvFile()
	path := os.Getenv("SKYBET_CONFIG")
	if path == "" {
		path = DefaultConfigFile
	}
	return Load(path)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	if c.LLM.APIKey == "" {
		if key := providerKeyVar(c.LLM.Provider); key != "" {
			c.LLM.APIKey = getenv(key)
		}
	}

	setString(&c.Server.Addr, "HTTP_ADDR")
	setString(&c.History.Backend, "HISTORY_BACKEND")
	setString(&c.History.Path, "HISTORY_PATH")
	setString(&c.History.Label, "HISTORY_LABEL")
	setString(&c.Storage.DBPath, "SKYBET_DB_PATH")
	setString(&c.Bot.Token, "BOT_TOKEN")

	if v := getenv("ADMIN_TELEGRAM_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
		c.Bot.AdminID = id
	}
	if v := getenv("MAX_IMAGE_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_IMAGE_BYTES: %w", err)
		}
		c.MaxImageBytes = n
	}
	return nil
}

// providerKeyVar returns the provider-specific API key variable.
func providerKeyVar(provider string) string {
	switch provider {
	case "gemini":
		return "GEMINI_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "claude":
		return "ANTHROPIC_API_KEY"
	}
	return ""
}

// Validate returns an error naming every missing or invalid setting.
func (c *Config) Validate() error {
	var problems []string
	switch c.LLM.Provider {
	case "gemini", "openai", "claude":
	default:
		problems = append(problems, fmt.Sprintf("unsupported llm provider %q", c.LLM.Provider))
	}
	if c.LLM.APIKey == "" {
		problems = append(problems, "LLM_API_KEY is not set")
	}
	switch c.History.Backend {
	case HistoryBackendFile, HistoryBackendSQLite:
	default:
		problems = append(problems, fmt.Sprintf("unsupported history backend %q", c.History.Backend))
	}
	if c.Bot.Token != "" && c.Bot.AdminID == 0 {
		problems = append(problems, "ADMIN_TELEGRAM_ID is required when BOT_TOKEN is set")
	}
	if c.MaxImageBytes <= 0 {
		problems = append(problems, "MAX_IMAGE_BYTES must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// BotEnabled reports whether the Telegram bot should run.
func (c *Config) BotEnabled() bool {
	return c.Bot.Token != ""
}

// NeedsSetup reports whether the first-run wizard should collect settings.
func (c *Config) NeedsSetup() bool {
	return c.LLM.APIKey == ""
}

// WriteEnvFile writes values to path in dotenv format with owner-only
// permissions, since the file holds secrets.
func WriteEnvFile(path string, values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	content, err := godotenv.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
