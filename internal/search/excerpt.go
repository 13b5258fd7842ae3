package search

import (
	"strings"

	"github.com/memvault/memvault/internal/constants"
)

// Excerpt picks a maxLength-rune window of text to show for a result. With
// no query it is simply the head of the text. With a query, a window slides
// across the text in fixed steps and the first window containing the most
// distinct query words wins; ties keep the earliest window. Ellipses mark
// truncation on either side.
func Excerpt(text, query string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = constants.DefaultExcerptChars
	}

	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	words := queryWords(query)
	if len(words) == 0 {
		return string(runes[:maxLength]) + "..."
	}

	bestStart, bestScore := 0, -1
	for start := 0; start+maxLength <= len(runes); start += constants.ExcerptWindowStep {
		window := strings.ToLower(string(runes[start : start+maxLength]))
		score := 0
		for _, w := range words {
			if strings.Contains(window, w) {
				score++
			}
		}
		if score > bestScore {
			bestStart, bestScore = start, score
		}
	}

	excerpt := string(runes[bestStart : bestStart+maxLength])
	if bestStart > 0 {
		excerpt = "..." + excerpt
	}
	if bestStart+maxLength < len(runes) {
		excerpt = excerpt + "..."
	}
	return excerpt
}

// queryWords lower-cases and whitespace-splits the query, dropping
// duplicates so repeated words cannot inflate a window's score.
func queryWords(query string) []string {
	seen := map[string]bool{}
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if !seen[w] {
			seen[w] = true
			words = append(words, w)
		}
	}
	return words
}
