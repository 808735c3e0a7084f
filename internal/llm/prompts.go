package llm

import "strings"

const roundsPrompt = `You are reviewing screenshots of the round history of a crash-style multiplier game (such as Aviator).

1. Read every multiplier visible in the images and any data the user typed, and copy it verbatim into "extractedData" (for example "Round History: 1.23x, 4.5x, 10x").
2. Describe what the recent rounds look like in "analysis". Use these headings on their own lines where they apply: Betting Suggestion, Trend Analysis, Gap Analysis, Probability, Predicted Next Rounds, Risk Assessment, Summary.
3. List cash-out positions in "suggestions". Each has "position" (e.g. "2.00x"), "yield" (e.g. "100%"), "probability" (a number from 0 to 100) and "risk" ("Low", "Medium" or "High").
4. Optionally give up to 10 speculative multipliers in "predictions" as plain numbers.

Rounds are independent random events. Say so in the Risk Assessment section and label every forward-looking statement as speculative. Never claim certainty.

Respond ONLY with a JSON object with the fields analysis, suggestions, predictions and extractedData. No markdown or other text.`

const fairnessPrompt = `You are reviewing a "Provably Fair" details screenshot from a crash-style multiplier game.

1. Extract the round ID, time, multiplier, seeds and hash exactly as shown, as a structured block of text in "analysisDetails".
2. Produce a speculative signal record:
   - "signalTime": the time zone label taken from the image, or "Signal Time (Local)" if none is shown.
   - "timeRange": a one-minute window that lies after the latest time in the image, e.g. "19:21:45 – 19:22:45".
   - "duration": "1 minute".
   - "expectedTarget": the target multiplier, e.g. "10x+".
   - "riskLevel": "Low", "Medium" or "High" followed by a short justification in parentheses that cites data from the image.

Seeds and hashes only let a player verify a round after it happened; they do not reveal future rounds. State in the justification that the signal is speculative.

Respond ONLY with a JSON object with the fields analysisDetails, signalTime, timeRange, duration, expectedTarget and riskLevel.`

func buildRoundsPrompt(req RoundsRequest) string {
	var sb strings.Builder
	sb.WriteString(roundsPrompt)
	if text := strings.TrimSpace(req.Text); text != "" {
		sb.WriteString("\n\nData provided by the user:\n")
		sb.WriteString(text)
	}
	if req.History != "" {
		sb.WriteString("\n\nPreviously recorded multipliers, oldest first:\n")
		sb.WriteString(req.History)
	}
	return sb.String()
}

func buildFairnessPrompt(req FairnessRequest) string {
	if text := strings.TrimSpace(req.Text); text != "" {
		return fairnessPrompt + "\n\nData provided by the user:\n" + text
	}
	return fairnessPrompt
}
