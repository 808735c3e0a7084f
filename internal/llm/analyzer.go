package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/raine/skybet/internal/imagedata"
	"github.com/rs/zerolog/log"
)

// maxImages caps the images sent per call (Telegram's album limit).
const maxImages = 10

var errNoInput = errors.New("no images or text provided")

// PromptAnalyzer implements Analyzer on top of a Completer. Replies are
// coerced, validated against a JSON schema and decoded.
type PromptAnalyzer struct {
	completer Completer
}

// NewPromptAnalyzer creates an Analyzer that sends prompts through completer.
func NewPromptAnalyzer(completer Completer) *PromptAnalyzer {
	return &PromptAnalyzer{completer: completer}
}

// AnalyzeRounds implements Analyzer.
func (a *PromptAnalyzer) AnalyzeRounds(ctx context.Context, req RoundsRequest) (*RoundAnalysis, error) {
	if len(req.Images) == 0 && req.Text == "" {
		return nil, errNoInput
	}

	completion, err := a.complete(ctx, "rounds", Prompt{
		Text:   buildRoundsPrompt(req),
		Images: limitImages(req.Images),
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	fields, err := coerceRounds(completion.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rounds response: %w", err)
	}
	if err := roundsSchema.Validate(fields); err != nil {
		return nil, fmt.Errorf("rounds response does not match schema: %w", err)
	}

	var result RoundAnalysis
	if err := decodeInto(fields, &result); err != nil {
		return nil, fmt.Errorf("failed to decode rounds response: %w", err)
	}
	result.SchemaVersion = SchemaVersion
	result.ID = uuid.NewString()
	result.Usage = completion.Usage
	result.Disclaimer = Disclaimer
	if result.Suggestions == nil {
		result.Suggestions = []BetSuggestion{}
	}
	return &result, nil
}

// AnalyzeFairness implements Analyzer.
func (a *PromptAnalyzer) AnalyzeFairness(ctx context.Context, req FairnessRequest) (*FairnessSignal, error) {
	if len(req.Images) == 0 && req.Text == "" {
		return nil, errNoInput
	}

	completion, err := a.complete(ctx, "fairness", Prompt{
		Text:   buildFairnessPrompt(req),
		Images: limitImages(req.Images),
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}

	fields, err := coerceFairness(completion.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fairness response: %w", err)
	}
	if err := fairnessSchema.Validate(fields); err != nil {
		return nil, fmt.Errorf("fairness response does not match schema: %w", err)
	}

	var signal FairnessSignal
	if err := decodeInto(fields, &signal); err != nil {
		return nil, fmt.Errorf("failed to decode fairness response: %w", err)
	}
	signal.ID = uuid.NewString()
	signal.Usage = completion.Usage
	signal.Disclaimer = Disclaimer
	return &signal, nil
}

func (a *PromptAnalyzer) complete(ctx context.Context, kind string, prompt Prompt) (*Completion, error) {
	completion, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("kind", kind).
		Str("model", completion.Model).
		Int("imageCount", len(prompt.Images)).
		Int64("inputTokens", completion.Usage.InputTokens).
		Int64("outputTokens", completion.Usage.OutputTokens).
		Float64("costUSD", completion.Usage.CostUSD).
		Msg("vision llm call")

	return completion, nil
}

func limitImages(images []imagedata.Image) []imagedata.Image {
	if len(images) > maxImages {
		return images[:maxImages]
	}
	return images
}
