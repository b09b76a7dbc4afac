package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"milestone-rag/internal/llmservice"
	"milestone-rag/internal/models"
)

const (
	defaultAnswerTimeout = 250 * time.Second
	defaultWarmupTimeout = 10 * time.Second

	// throwaway prompt that forces the chat model to load
	warmupPrompt = "Reply with the single word: ready"
)

// Controller drives one cancellable generation stream at a time.
type Controller struct {
	streamer      llmservice.Streamer
	timeout       time.Duration
	warmupTimeout time.Duration
	logger        zerolog.Logger
}

func NewController(streamer llmservice.Streamer, timeout, warmupTimeout time.Duration, logger zerolog.Logger) *Controller {
	if timeout <= 0 {
		timeout = defaultAnswerTimeout
	}
	if warmupTimeout <= 0 {
		warmupTimeout = defaultWarmupTimeout
	}
	return &Controller{
		streamer:      streamer,
		timeout:       timeout,
		warmupTimeout: warmupTimeout,
		logger:        logger,
	}
}

// Generate streams an answer for the prompt. Each fragment is
// forwarded to onFragment as it arrives and accumulated into the
// returned answer. If the deadline elapses mid-stream the partial
// answer is returned with the timeout marker appended and timedOut
// true; a timed-out answer is still a valid answer.
func (c *Controller) Generate(ctx context.Context, prompt string, onFragment func(string)) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var answer strings.Builder
	err := c.streamer.GenerateStream(ctx, prompt, func(fragment string) {
		answer.WriteString(fragment)
		if onFragment != nil {
			onFragment(fragment)
		}
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return answer.String() + models.TimeoutMarker, true, nil
		}
		return "", false, fmt.Errorf("generation failed: %w", err)
	}
	return answer.String(), false, nil
}

// Warmup issues one fire-and-forget generation so the model is loaded
// before the first real question. It runs under its own short
// deadline and its failure is never surfaced.
func (c *Controller) Warmup(ctx context.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(ctx, c.warmupTimeout)
		defer cancel()
		if err := c.streamer.GenerateStream(ctx, warmupPrompt, func(string) {}); err != nil {
			c.logger.Debug().Err(err).Msg("Warmup request failed")
		}
	}()
}
