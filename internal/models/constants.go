package models

const (
	// TimeoutMarker is appended to answers cut off by the generation deadline.
	TimeoutMarker = " [Timed out]"

	// Ellipsis marks a truncated context buffer.
	Ellipsis = "..."
)

var PromptTemplate = `You are a helpful assistant specialized in Milestone Systems documentation.

Context:
%s

Previous conversation:
%s

Rules:
- Use the context to answer.
- If the user refers to earlier conversation, use memory.
- If you don't know, say you don't know.
- Keep answers short.

User question: %s

Answer:
`
