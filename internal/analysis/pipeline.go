// Package analysis runs the two-step screenshot analysis: a preliminary model
// call reads the round history, the extracted multipliers are merged into the
// persisted history, and a second call sees the full history.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/raine/skybet/internal/history"
	"github.com/raine/skybet/internal/imagedata"
	"github.com/raine/skybet/internal/llm"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNoInput means neither an image nor text was supplied.
	ErrNoInput = errors.New("at least one image or text is required")
	// ErrAnalysisFailed wraps any failure of the model calls.
	ErrAnalysisFailed = errors.New("analysis failed")
)

// Input is what a user submits.
type Input struct {
	Images []imagedata.Image
	Text   string
}

func (in Input) empty() bool {
	return len(in.Images) == 0 && strings.TrimSpace(in.Text) == ""
}

// Pipeline wires an Analyzer to the history ledger.
type Pipeline struct {
	analyzer llm.Analyzer
	ledger   *history.Ledger
}

// NewPipeline creates a Pipeline.
func NewPipeline(analyzer llm.Analyzer, ledger *history.Ledger) *Pipeline {
	return &Pipeline{analyzer: analyzer, ledger: ledger}
}

// Ledger returns the history ledger used by the pipeline.
func (p *Pipeline) Ledger() *history.Ledger {
	return p.ledger
}

// Rounds analyzes round-history screenshots. The returned analysis carries the
// merged history. Either model call failing yields ErrAnalysisFailed and no
// result.
func (p *Pipeline) Rounds(ctx context.Context, in Input) (*llm.RoundAnalysis, error) {
	if in.empty() {
		return nil, ErrNoInput
	}
	text := strings.TrimSpace(in.Text)

	preliminary, err := p.analyzer.AnalyzeRounds(ctx, llm.RoundsRequest{Images: in.Images, Text: text})
	if err != nil {
		log.Error().Err(err).Str("step", "preliminary").Msg("round analysis failed")
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	merged := p.ledger.Merge(ctx, preliminary.ExtractedData)

	req := llm.RoundsRequest{Images: in.Images, Text: text}
	if len(merged) > 0 {
		req.History = history.Format(p.ledger.Label(), merged)
	}

	final, err := p.analyzer.AnalyzeRounds(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("step", "history").Msg("round analysis failed")
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	if final.ExtractedData == "" {
		final.ExtractedData = preliminary.ExtractedData
	}
	final.History = merged
	final.Usage = addUsage(preliminary.Usage, final.Usage)

	log.Info().
		Str("id", final.ID).
		Int("images", len(in.Images)).
		Int("historySize", len(merged)).
		Int("suggestions", len(final.Suggestions)).
		Msg("round analysis complete")

	return final, nil
}

// Fairness analyzes a "Provably Fair" screenshot with a single model call.
func (p *Pipeline) Fairness(ctx context.Context, in Input) (*llm.FairnessSignal, error) {
	if in.empty() {
		return nil, ErrNoInput
	}

	signal, err := p.analyzer.AnalyzeFairness(ctx, llm.FairnessRequest{Images: in.Images, Text: strings.TrimSpace(in.Text)})
	if err != nil {
		log.Error().Err(err).Msg("fairness analysis failed")
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	return signal, nil
}

func addUsage(a, b llm.Usage) llm.Usage {
	return llm.Usage{
		InputTokens:  a.InputTokens + b.InputTokens,
		OutputTokens: a.OutputTokens + b.OutputTokens,
		TotalTokens:  a.TotalTokens + b.TotalTokens,
		CostUSD:      a.CostUSD + b.CostUSD,
	}
}
