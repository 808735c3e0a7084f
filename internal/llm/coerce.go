package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// extractJSONObject extracts a JSON object from text that may contain markdown
// code blocks or other formatting. Returns the extracted JSON string or an error.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}

func parseObject(text string) (gjson.Result, error) {
	raw, err := extractJSONObject(text)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.Valid(raw) {
		return gjson.Result{}, fmt.Errorf("response is not valid JSON: %s", raw)
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return gjson.Result{}, fmt.Errorf("response root must be a JSON object")
	}
	return parsed, nil
}

// coerceRounds maps a model reply onto the RoundAnalysis field layout.
// Older replies used suggestedBetPositions (either a list or prose) and
// predictedNextRounds; both are accepted.
func coerceRounds(text string) (map[string]any, error) {
	parsed, err := parseObject(text)
	if err != nil {
		return nil, err
	}

	analysis := strings.TrimSpace(parsed.Get("analysis").String())
	suggestions := []any{}

	src := parsed.Get("suggestions")
	if !src.Exists() {
		src = parsed.Get("suggestedBetPositions")
	}
	switch {
	case src.IsArray():
		src.ForEach(func(_, v gjson.Result) bool {
			suggestions = append(suggestions, coerceSuggestion(v))
			return true
		})
	case src.Type == gjson.String:
		if prose := strings.TrimSpace(src.String()); prose != "" {
			if analysis != "" {
				analysis += "\n\n"
			}
			analysis += prose
		}
	}

	out := map[string]any{
		"analysis":      analysis,
		"suggestions":   suggestions,
		"extractedData": parsed.Get("extractedData").String(),
	}

	preds := parsed.Get("predictions")
	if !preds.Exists() {
		preds = parsed.Get("predictedNextRounds")
	}
	if preds.IsArray() {
		values := []any{}
		preds.ForEach(func(_, v gjson.Result) bool {
			values = append(values, coerceNumber(v, "x"))
			return true
		})
		out["predictions"] = values
	}

	return out, nil
}

func coerceSuggestion(v gjson.Result) any {
	if !v.IsObject() {
		return v.Value()
	}
	s := map[string]any{
		"position": strings.TrimSpace(v.Get("position").String()),
		"yield":    strings.TrimSpace(v.Get("yield").String()),
		"risk":     riskLevel(v.Get("risk").String()),
	}
	if p := v.Get("probability"); p.Exists() && p.Type != gjson.Null {
		s["probability"] = coerceNumber(p, "%")
	}
	return s
}

// coerceNumber returns numbers as float64 and numeric strings (optionally
// carrying suffix) as their value. Anything else is returned unchanged so
// schema validation reports it.
func coerceNumber(v gjson.Result, suffix string) any {
	switch v.Type {
	case gjson.Number:
		return v.Float()
	case gjson.String:
		s := strings.TrimSpace(v.String())
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, strings.ToUpper(suffix)), suffix))
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return v.Value()
}

// normalizeRisk maps "low", "LOW risk" and similar onto Low, Medium or High,
// keeping any trailing text.
func normalizeRisk(risk string) string {
	risk = strings.TrimSpace(risk)
	lower := strings.ToLower(risk)
	for _, level := range []string{RiskLow, RiskMedium, RiskHigh} {
		if strings.HasPrefix(lower, strings.ToLower(level)) {
			return level + risk[len(level):]
		}
	}
	return risk
}

// riskLevel reduces risk to the bare level when it starts with one, so
// "Low risk" becomes Low.
func riskLevel(risk string) string {
	risk = normalizeRisk(risk)
	for _, level := range []string{RiskLow, RiskMedium, RiskHigh} {
		if strings.HasPrefix(risk, level) {
			return level
		}
	}
	return risk
}

func coerceFairness(text string) (map[string]any, error) {
	parsed, err := parseObject(text)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for _, field := range []string{"analysisDetails", "signalTime", "timeRange", "duration", "expectedTarget", "riskLevel"} {
		v := parsed.Get(field)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		out[field] = strings.TrimSpace(v.String())
	}
	if risk, ok := out["riskLevel"].(string); ok {
		out["riskLevel"] = normalizeRisk(risk)
	}
	return out, nil
}

// decodeInto converts a validated map into the result type.
func decodeInto(v map[string]any, dst any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
