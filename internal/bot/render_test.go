package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raine/skybet/internal/llm"
	"github.com/raine/skybet/internal/report"
)

func TestRenderRounds_EscapesModelText(t *testing.T) {
	out := renderRounds(&llm.RoundAnalysis{
		Analysis:    "Rounds look *random* and seeds_are fine.",
		Suggestions: []llm.BetSuggestion{{Position: "2`x", Risk: "medium", Yield: "x2"}},
		Disclaimer:  "Not advice.",
	})

	assert.Contains(t, out, `Rounds look \*random\* and seeds\_are fine.`)
	assert.Contains(t, out, "🟡 `2'x` medium risk, yield x2")
	assert.NotContains(t, out, "Predicted next rounds")
	assert.NotContains(t, out, "*History*")
	assert.True(t, strings.HasSuffix(out, "_Not advice._"))
}

func TestRenderRounds_HistoryPreviewShowsLatest(t *testing.T) {
	values := make([]string, 25)
	for i := range values {
		values[i] = string(rune('a' + i))
	}
	out := renderRounds(&llm.RoundAnalysis{History: values})

	assert.Contains(t, out, "*History* (25 rounds): fx, gx")
	assert.NotContains(t, out, "ex,")
	assert.Contains(t, out, "yx\n")
}

func TestRenderSignal_SkipsEmptyFields(t *testing.T) {
	out := renderSignal(&llm.FairnessSignal{RiskLevel: "Low", ExpectedTarget: "1.5x", Disclaimer: "d"})

	assert.True(t, strings.HasPrefix(out, "🟢 *Risk: Low*"))
	assert.Contains(t, out, "*Expected target:* 1.5x")
	assert.NotContains(t, out, "Signal time")
	assert.NotContains(t, out, "Duration")
}

func TestRiskIcon(t *testing.T) {
	assert.Equal(t, "🔴", riskIcon("HIGH"))
	assert.Equal(t, "⚪", riskIcon("extreme"))
}

func TestRenderStats(t *testing.T) {
	out := renderStats(report.Summarize([]string{"1", "3", "12"}))
	assert.Contains(t, out, "Rounds: 3 (3 readable)")
	assert.Contains(t, out, "Mean: 5.33x")
	assert.Contains(t, out, "Min / max: 1.00x / 12.00x")
	assert.Contains(t, out, "At least 2x: 2")
	assert.Contains(t, out, "At least 10x: 1")
}
