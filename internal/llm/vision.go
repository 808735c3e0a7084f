package llm

import (
	"context"

	"github.com/raine/skybet/internal/imagedata"
)

// SchemaVersion is the version of the RoundAnalysis layout returned to callers.
const SchemaVersion = 1

// Disclaimer accompanies every analysis and signal.
const Disclaimer = "This content is generated by a language model. Game rounds are independent " +
	"random events; nothing here predicts future outcomes. Do not bet money you cannot afford to lose."

// Risk levels accepted for suggestions and signals.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64   `json:"inputTokens"`
	OutputTokens int64   `json:"outputTokens"`
	TotalTokens  int64   `json:"totalTokens"`
	CostUSD      float64 `json:"costUSD"`
}

// BetSuggestion is one suggested cash-out position.
type BetSuggestion struct {
	Position    string  `json:"position"`
	Yield       string  `json:"yield"`
	Probability float64 `json:"probability"`
	Risk        string  `json:"risk"`
}

// RoundAnalysis is the result of a round-history analysis.
type RoundAnalysis struct {
	SchemaVersion int             `json:"schemaVersion"`
	ID            string          `json:"id"`
	Analysis      string          `json:"analysis"`
	Suggestions   []BetSuggestion `json:"suggestions"`
	Predictions   []float64       `json:"predictions,omitempty"`
	ExtractedData string          `json:"extractedData"`
	History       []string        `json:"history"`
	Usage         Usage           `json:"usage"`
	Disclaimer    string          `json:"disclaimer"`
}

// FairnessSignal is the result of a "Provably Fair" screenshot analysis.
type FairnessSignal struct {
	ID              string `json:"id"`
	AnalysisDetails string `json:"analysisDetails"`
	SignalTime      string `json:"signalTime"`
	TimeRange       string `json:"timeRange"`
	Duration        string `json:"duration"`
	ExpectedTarget  string `json:"expectedTarget"`
	RiskLevel       string `json:"riskLevel"`
	Usage           Usage  `json:"usage"`
	Disclaimer      string `json:"disclaimer"`
}

// RoundsRequest is the input of a round-history analysis. History is the
// formatted history string and is omitted from the prompt when empty.
type RoundsRequest struct {
	Images  []imagedata.Image
	Text    string
	History string
}

// FairnessRequest is the input of a fairness signal analysis.
type FairnessRequest struct {
	Images []imagedata.Image
	Text   string
}

// Analyzer produces analyses from screenshots and text.
type Analyzer interface {
	AnalyzeRounds(ctx context.Context, req RoundsRequest) (*RoundAnalysis, error)
	AnalyzeFairness(ctx context.Context, req FairnessRequest) (*FairnessSignal, error)
}

// Prompt is a single multimodal request to a model.
type Prompt struct {
	Text   string
	Images []imagedata.Image
	// JSON asks the provider for a JSON-only response where supported.
	JSON bool
}

// Completion is a model's raw reply.
type Completion struct {
	Text  string
	Model string
	Usage Usage
}

// Completer sends one prompt to a model provider.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (*Completion, error)
}
