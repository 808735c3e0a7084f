package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

const (
	defaultClaudeModel     = "claude-sonnet-4-5"
	claudeMaxTokens        = 4096
	claudeInputPerMillion  = 3.00
	claudeOutputPerMillion = 15.00
)

// ClaudeCompleter uses Anthropic's messages API.
type ClaudeCompleter struct {
	client *anthropic.Client
	model  string
}

// NewClaudeCompleter creates a new Claude-based completer.
func NewClaudeCompleter(apiKey, model, baseURL string) *ClaudeCompleter {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultClaudeModel
	}
	return &ClaudeCompleter{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// Complete implements Completer. Images precede the text.
func (c *ClaudeCompleter) Complete(ctx context.Context, prompt Prompt) (*Completion, error) {
	content := make([]anthropic.MessageContent, 0, len(prompt.Images)+1)
	for _, img := range prompt.Images {
		content = append(content, anthropic.NewImageMessageContent(
			anthropic.NewMessageContentSource(anthropic.MessagesContentSourceTypeBase64, img.MIMEType, img.Base64()),
		))
	}
	content = append(content, anthropic.NewTextMessageContent(prompt.Text))

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: content,
			},
		},
		MaxTokens: claudeMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	var sb strings.Builder
	for _, part := range resp.Content {
		if part.Text != nil {
			sb.WriteString(*part.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("no response content from Claude")
	}

	usage := Usage{
		InputTokens:  int64(resp.Usage.InputTokens),
		OutputTokens: int64(resp.Usage.OutputTokens),
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	usage.CostUSD = calculateCost(usage.InputTokens, usage.OutputTokens, claudeInputPerMillion, claudeOutputPerMillion)

	return &Completion{Text: sb.String(), Model: c.model, Usage: usage}, nil
}
