// File: services/intelligence/cleanup.go
package ai

import (
	"regexp"
	"strings"
)

var (
	emphasisPattern  = regexp.MustCompile(`\*+`)
	blankRunPattern  = regexp.MustCompile(`\n{3,}`)
	listItemPattern  = regexp.MustCompile(`(?m)^\s*(\d+)\.\s+`)
	bookingKeywords  = []string{"consult", "see a doctor", "specialist", "appointment", "physician"}
	diagnosisCue     = regexp.MustCompile(`(?i)diagnosis|assessment`)
	recommendCue     = regexp.MustCompile(`(?i)recommend|suggest|advise`)
)

// CleanResponse normalizes model output for chat display: markdown emphasis
// is stripped, numbered-list items keep a uniform "N. " prefix, and runs of
// blank lines collapse to one.
func CleanResponse(text string) string {
	out := emphasisPattern.ReplaceAllString(text, "")
	out = listItemPattern.ReplaceAllString(out, "$1. ")
	out = blankRunPattern.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// SuggestsBooking reports whether the assistant's reply hints that the
// patient should book a doctor, based on a fixed keyword set.
func SuggestsBooking(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range bookingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ExtractDiagnosis pulls the first sentence around a diagnosis cue, or ""
// when the reply carries none.
func ExtractDiagnosis(content string) string {
	return extractSentence(content, diagnosisCue)
}

// ExtractRecommendations pulls the first sentence around a recommendation
// cue, or "" when the reply carries none.
func ExtractRecommendations(content string) string {
	return extractSentence(content, recommendCue)
}

func extractSentence(content string, cue *regexp.Regexp) string {
	loc := cue.FindStringIndex(content)
	if loc == nil {
		return ""
	}
	end := strings.Index(content[loc[0]:], ".")
	if end < 0 {
		return strings.TrimSpace(content[loc[0]:])
	}
	return strings.TrimSpace(content[loc[0] : loc[0]+end+1])
}
