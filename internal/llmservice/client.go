// Package llmservice is the streaming chat port and its Ollama
// implementation.
package llmservice

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"milestone-rag/internal/config"
)

// Streamer produces an incremental token stream for a prompt.
// Implementations must stop promptly and release the underlying
// stream when ctx is cancelled.
type Streamer interface {
	GenerateStream(ctx context.Context, prompt string, onFragment func(string)) error
}

// OllamaStreamer streams chat completions from an Ollama server.
type OllamaStreamer struct {
	llm *ollama.LLM
}

func NewOllamaStreamer(cfg *config.LLMConfig) (*OllamaStreamer, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return &OllamaStreamer{llm: llm}, nil
}

// GenerateStream sends the prompt and forwards each text fragment as
// it arrives. The response body is closed by the client on every exit
// path, including cancellation.
func (s *OllamaStreamer) GenerateStream(ctx context.Context, prompt string, onFragment func(string)) error {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	_, err := s.llm.GenerateContent(ctx, messages,
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			if len(chunk) > 0 {
				onFragment(string(chunk))
			}
			return nil
		}))
	return err
}
