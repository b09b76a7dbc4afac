// Package chunker splits page text into bounded word-count chunks.
package chunker

import "strings"

// Words splits text on whitespace, discarding empty tokens, and groups
// consecutive tokens into chunks of maxWords words. Every chunk except
// the last holds exactly maxWords tokens; the last holds the remainder.
// Empty or all-whitespace input yields nil. No chunk is ever empty.
func Words(text string, maxWords int) []string {
	if maxWords < 1 {
		maxWords = 1
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
