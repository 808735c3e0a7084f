package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/raine/skybet/internal/config"
)

const validateTimeout = 10 * time.Second

// Overridden in tests.
var (
	telegramAPIURL = "https://api.telegram.org"
	geminiAPIURL   = "https://generativelanguage.googleapis.com"
)

var (
	wizardTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).MarginBottom(1)
	wizardSuccess = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	wizardMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// isInteractiveTerminal reports whether stdin and stdout are both TTYs, which
// the setup wizard needs.
func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// wizardAnswers holds what the first-run form collects.
type wizardAnswers struct {
	Provider string
	APIKey   string
	BotToken string
	AdminID  string
}

// envValues maps the answers to config.env keys. Telegram keys are written
// only with a bot token.
func (a wizardAnswers) envValues() map[string]string {
	values := map[string]string{
		"LLM_PROVIDER": a.Provider,
		"LLM_API_KEY":  strings.TrimSpace(a.APIKey),
	}
	if token := strings.TrimSpace(a.BotToken); token != "" {
		values["BOT_TOKEN"] = token
		values["ADMIN_TELEGRAM_ID"] = strings.TrimSpace(a.AdminID)
	}
	return values
}

func (a *wizardAnswers) validateAPIKey(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("API key is required")
	}
	// Only Gemini keys are checked online
	if a.Provider == "gemini" {
		return validateGeminiKey(s)
	}
	return nil
}

func (a *wizardAnswers) validateAdminID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		if strings.TrimSpace(a.BotToken) != "" {
			return errors.New("user ID is required when a bot token is set")
		}
		return nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err != nil || id <= 0 {
		return errors.New("must be a positive number")
	}
	return nil
}

func (a *wizardAnswers) form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model provider").
				Options(
					huh.NewOption("Google Gemini", "gemini"),
					huh.NewOption("OpenAI", "openai"),
					huh.NewOption("Anthropic Claude", "claude"),
				).
				Value(&a.Provider),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("API Key").
				Description("Key for the selected provider").
				EchoMode(huh.EchoModePassword).
				Value(&a.APIKey).
				Validate(a.validateAPIKey),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram Bot Token (optional)").
				Description("From @BotFather → /newbot. Leave empty to run the HTTP API only.").
				Value(&a.BotToken).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return validateTelegramToken(strings.TrimSpace(s))
				}),
			huh.NewInput().
				Title("Your Telegram User ID").
				Description("Bot admin. Message @userinfobot to get your ID.").
				Value(&a.AdminID).
				Validate(a.validateAdminID),
		),
	).WithTheme(huh.ThemeBase16())
}

// runSetupWizard asks for the missing settings and saves them to config.env.
// It returns false when the user aborts or saving fails.
func runSetupWizard() bool {
	fmt.Println()
	fmt.Println(wizardTitle.Render("🚀 skybet - First-time Setup"))

	answers := &wizardAnswers{Provider: "gemini"}
	if err := answers.form().Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("\nSetup cancelled.")
		} else {
			fmt.Printf("\nError: %v\n", err)
		}
		return false
	}

	configPath, err := saveAnswers(*answers)
	if err != nil {
		fmt.Printf("\nError saving configuration: %v\n", err)
		return false
	}

	fmt.Println()
	fmt.Println(wizardSuccess.Render("✓ Configuration saved"))
	fmt.Println(wizardMuted.Render("  " + configPath))
	fmt.Println()
	return true
}

// saveAnswers writes config.env and exports the values to this process so
// the following config load sees them.
func saveAnswers(a wizardAnswers) (string, error) {
	configPath, err := config.EnvFilePath()
	if err != nil {
		return "", err
	}
	values := a.envValues()
	if err := config.WriteEnvFile(configPath, values); err != nil {
		return "", err
	}
	for k, v := range values {
		if err := os.Setenv(k, v); err != nil {
			return "", fmt.Errorf("failed to set %s: %w", k, err)
		}
	}
	return configPath, nil
}

func newValidationClient() *resty.Client {
	return resty.New().SetTimeout(validateTimeout)
}

// validateTelegramToken calls getMe with the token.
func validateTelegramToken(token string) error {
	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description,omitempty"`
	}
	_, err := newValidationClient().R().
		SetResult(&result).
		SetError(&result).
		Get(fmt.Sprintf("%s/bot%s/getMe", telegramAPIURL, token))
	if err != nil {
		return errors.New("connection failed - check your internet")
	}
	if !result.OK {
		if result.Description != "" {
			return errors.New(result.Description)
		}
		return errors.New("token rejected by Telegram")
	}
	return nil
}

// validateGeminiKey lists models with the key; any 4xx means the key is bad.
func validateGeminiKey(key string) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	res, err := newValidationClient().R().
		SetQueryParam("key", key).
		SetError(&apiErr).
		Get(geminiAPIURL + "/v1beta/models")
	if err != nil {
		return errors.New("connection failed - check your internet")
	}

	switch code := res.StatusCode(); {
	case code == http.StatusOK:
		return nil
	case code >= 400 && code < 500:
		if apiErr.Error.Message != "" {
			return errors.New(apiErr.Error.Message)
		}
		return fmt.Errorf("API key rejected (HTTP %d)", code)
	default:
		return fmt.Errorf("unexpected response (HTTP %d)", code)
	}
}

// waitOnWindows keeps a double-clicked console window open so the user can
// read the last message.
func waitOnWindows() {
	if runtime.GOOS != "windows" {
		return
	}
	fmt.Println("\nPress Enter to exit...")
	fmt.Scanln()
}

// fatalWithWait logs the error and exits, pausing first on Windows.
func fatalWithWait(format string, args ...any) {
	log.Error().Msgf(format, args...)
	waitOnWindows()
	os.Exit(1)
}
