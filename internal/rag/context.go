package rag

import (
	"fmt"
	"strings"

	"milestone-rag/internal/models"
	"milestone-rag/internal/vectorstore"
)

const (
	defaultScoreThreshold = 0.50
	defaultContextChars   = 700
	defaultMemoryChars    = 2500
	defaultMemoryTurns    = 5
)

// Assembler builds the bounded prompt passed to generation. Total
// prompt size stays within the two character budgets plus template
// overhead plus the query itself.
type Assembler struct {
	scoreThreshold float32
	contextChars   int
	memoryChars    int
	memoryTurns    int
}

func NewAssembler(scoreThreshold float32, contextChars, memoryChars, memoryTurns int) *Assembler {
	if scoreThreshold <= 0 {
		scoreThreshold = defaultScoreThreshold
	}
	if contextChars <= 0 {
		contextChars = defaultContextChars
	}
	if memoryChars <= 0 {
		memoryChars = defaultMemoryChars
	}
	if memoryTurns <= 0 {
		memoryTurns = defaultMemoryTurns
	}
	return &Assembler{
		scoreThreshold: scoreThreshold,
		contextChars:   contextChars,
		memoryChars:    memoryChars,
		memoryTurns:    memoryTurns,
	}
}

// Prompt is an assembled generation prompt plus the human-readable
// references behind it.
type Prompt struct {
	Text       string
	References []string
}

// Build drops matches below the score threshold, truncates retrieved
// context and recent memory to their character budgets and
// interpolates both into the answer template. Context keeps its
// prefix because earlier matches rank higher; memory keeps its suffix
// because recency matters more there.
func (a *Assembler) Build(matches []vectorstore.Match, memory *ChatMemory, query string) Prompt {
	var contextBuilder strings.Builder
	var references []string
	for _, m := range matches {
		if m.Score < a.scoreThreshold {
			continue
		}
		fmt.Fprintf(&contextBuilder, "[%s] %s\n", m.Topic.Title, m.Topic.Content)
		references = append(references, fmt.Sprintf("[%.2f%%] %s", m.Score*100, m.Topic.Source))
	}

	context := truncateHead(contextBuilder.String(), a.contextChars)
	history := truncateTail(strings.Join(memory.Recent(a.memoryTurns), "\n"), a.memoryChars)

	return Prompt{
		Text:       fmt.Sprintf(models.PromptTemplate, context, history, query),
		References: references,
	}
}

// truncateHead keeps the first limit characters, marking the cut.
func truncateHead(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + models.Ellipsis
}

// truncateTail keeps the last limit characters.
func truncateTail(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
