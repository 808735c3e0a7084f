// Package report turns analysis results and history into presentable pieces.
package report

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultHeaders are the section headings the analysis prompt asks for.
var DefaultHeaders = []string{
	"Betting Suggestion",
	"Trend Analysis",
	"Gap Analysis",
	"Probability",
	"Predicted Next Rounds",
	"Risk Assessment",
	"Summary",
}

// Section is a titled slice of an analysis. The lead section has no title.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// leading markdown: headings, bullets, numbering, bold/italic openers
var markerPattern = regexp.MustCompile(`^(?:\s*(?:#{1,6}|[-*+•]|\d+[.)]|\*\*|__)\s*)*`)

// Segment splits text into sections at lines that begin with one of headers
// (case-insensitive, markdown markers ignored). If no header is found the whole
// text is returned as a single untitled section.
func Segment(text string, headers []string) []Section {
	var sections []Section
	var current *Section
	var lead []string
	var body []string
	found := false

	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(strings.Join(body, "\n"))
			sections = append(sections, *current)
		}
		body = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if title, rest, ok := matchHeader(line, headers); ok {
			if !found {
				if lc := strings.TrimSpace(strings.Join(lead, "\n")); lc != "" {
					sections = append(sections, Section{Content: lc})
				}
				found = true
			}
			flush()
			current = &Section{Title: title}
			if rest != "" {
				body = append(body, rest)
			}
			continue
		}
		if found {
			body = append(body, line)
		} else {
			lead = append(lead, line)
		}
	}

	if !found {
		return []Section{{Content: strings.TrimSpace(text)}}
	}
	flush()
	return sections
}

// matchHeader reports whether line opens a section. The header must be
// followed by nothing, a colon, a dash or closing emphasis, so prose such as
// "Probability of a 2x round" stays content.
func matchHeader(line string, headers []string) (title, rest string, ok bool) {
	stripped := strings.TrimSpace(markerPattern.ReplaceAllString(line, ""))
	lower := strings.ToLower(stripped)
	for _, h := range headers {
		if !strings.HasPrefix(lower, strings.ToLower(h)) {
			continue
		}
		after := stripped[len(h):]
		if plural := strings.TrimPrefix(after, "s"); len(plural) < len(after) && endsHeader(plural) {
			after = plural
		}
		if !endsHeader(after) {
			continue
		}
		return h, strings.TrimSpace(strings.TrimLeft(after, headerDelims)), true
	}
	return "", "", false
}

const headerDelims = ":*_-– "

func endsHeader(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s)
	return strings.ContainsRune(headerDelims, r)
}

// RiskBadge maps a risk level to a badge variant.
func RiskBadge(risk string) string {
	switch strings.ToLower(strings.TrimSpace(risk)) {
	case "low":
		return "secondary"
	case "medium":
		return "default"
	case "high":
		return "destructive"
	default:
		return "outline"
	}
}
