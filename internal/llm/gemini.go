package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion      = 0.30
	geminiOutputPricePerMillion     = 2.50
	geminiLiteInputPricePerMillion  = 0.075
	geminiLiteOutputPricePerMillion = 0.30
)

// GeminiCompleter uses Google's Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGeminiCompleter creates a new Gemini-based completer. An empty model
// selects the default.
func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

// Complete implements Completer. Images follow the prompt text.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt Prompt) (*Completion, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt.Text),
	}
	for _, img := range prompt.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img.Data, MIMEType: img.MIMEType},
		})
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	var config *genai.GenerateContentConfig
	if prompt.JSON {
		config = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	// Calculate usage and cost
	usage := Usage{}
	if result.UsageMetadata != nil {
		inPrice, outPrice := geminiPricing(g.model)
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = calculateCost(usage.InputTokens, usage.OutputTokens, inPrice, outPrice)
	}

	return &Completion{Text: result.Text(), Model: g.model, Usage: usage}, nil
}

func geminiPricing(model string) (float64, float64) {
	if strings.Contains(model, "lite") {
		return geminiLiteInputPricePerMillion, geminiLiteOutputPricePerMillion
	}
	return geminiInputPricePerMillion, geminiOutputPricePerMillion
}

func calculateCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}
