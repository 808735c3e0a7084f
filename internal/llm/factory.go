package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/raine/skybet/internal/config"
)

// NewCompleter creates the Completer for the configured provider.
func NewCompleter(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "gemini", "":
		return NewGeminiCompleter(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		return NewOpenAICompleter(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "claude":
		return NewClaudeCompleter(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
