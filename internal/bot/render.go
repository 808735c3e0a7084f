package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/raine/skybet/internal/history"
	"github.com/raine/skybet/internal/llm"
	"github.com/raine/skybet/internal/report"
)

// historyPreview is how many of the most recent multipliers an analysis reply shows.
const historyPreview = 20

var riskIcons = map[string]string{
	llm.RiskLow:    "🟢",
	llm.RiskMedium: "🟡",
	llm.RiskHigh:   "🔴",
}

func riskIcon(risk string) string {
	for level, icon := range riskIcons {
		if strings.EqualFold(risk, level) {
			return icon
		}
	}
	return "⚪"
}

// renderRounds formats a round analysis as Telegram Markdown.
func renderRounds(a *llm.RoundAnalysis) string {
	var b strings.Builder

	for _, section := range report.Segment(a.Analysis, report.DefaultHeaders) {
		if section.Title != "" {
			fmt.Fprintf(&b, "*%s*\n", escapeMarkdown(section.Title))
		}
		if section.Content != "" {
			b.WriteString(escapeMarkdown(section.Content))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(a.Suggestions) > 0 {
		b.WriteString("*Suggested positions*\n")
		for _, s := range a.Suggestions {
			fmt.Fprintf(&b, "%s `%s` %s risk", riskIcon(s.Risk), escapeCode(s.Position), escapeMarkdown(s.Risk))
			if s.Probability > 0 {
				fmt.Fprintf(&b, ", %s%%", strconv.FormatFloat(s.Probability, 'f', -1, 64))
			}
			if s.Yield != "" {
				fmt.Fprintf(&b, ", yield %s", escapeMarkdown(s.Yield))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(a.Predictions) > 0 {
		values := make([]string, len(a.Predictions))
		for i, p := range a.Predictions {
			values[i] = strconv.FormatFloat(p, 'f', 2, 64) + "x"
		}
		fmt.Fprintf(&b, "*Predicted next rounds:* %s\n\n", strings.Join(values, ", "))
	}

	if len(a.History) > 0 {
		recent := a.History
		if len(recent) > historyPreview {
			recent = recent[len(recent)-historyPreview:]
		}
		fmt.Fprintf(&b, "*History* (%s): %s\n\n",
			roundCount(len(a.History)),
			escapeMarkdown(strings.TrimPrefix(history.Format("", recent), ": ")))
	}

	fmt.Fprintf(&b, "_%s_", escapeMarkdown(a.Disclaimer))
	return b.String()
}

// renderSignal formats a fairness signal as Telegram Markdown.
func renderSignal(s *llm.FairnessSignal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *Risk: %s*\n\n", riskIcon(s.RiskLevel), escapeMarkdown(s.RiskLevel))

	rows := []struct{ label, value string }{
		{"Signal time", s.SignalTime},
		{"Time range", s.TimeRange},
		{"Duration", s.Duration},
		{"Expected target", s.ExpectedTarget},
	}
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		fmt.Fprintf(&b, "*%s:* %s\n", row.label, escapeMarkdown(row.value))
	}

	if s.AnalysisDetails != "" {
		b.WriteString("\n")
		b.WriteString(escapeMarkdown(s.AnalysisDetails))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n_%s_", escapeMarkdown(s.Disclaimer))
	return b.String()
}

// renderHistory formats the recorded multipliers. An empty history renders as
// MsgHistoryEmpty.
func renderHistory(label string, values []string) string {
	if len(values) == 0 {
		return MsgHistoryEmpty
	}
	return fmt.Sprintf(MsgHistoryHeader, escapeMarkdown(label), roundCount(len(values))) +
		"\n" + escapeMarkdown(strings.TrimPrefix(history.Format("", values), ": "))
}

func renderStats(s report.Stats) string {
	return formatReplyText(MsgStats, s.Count, s.Parsed, s.Mean, s.Median, s.Min, s.Max, s.StdDev, s.Above2x, s.Above10x)
}

// escapeCode strips backticks, which cannot be escaped inside a code span.
func escapeCode(text string) string {
	return strings.ReplaceAll(text, "`", "'")
}

func roundCount(n int) string {
	if n == 1 {
		return "1 round"
	}
	return fmt.Sprintf("%d rounds", n)
}
