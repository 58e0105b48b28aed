package generation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"google.golang.org/genai"

	"github.com/tubepro/studio/internal/config"
	"github.com/tubepro/studio/internal/domain"
)

// GeminiStreamer implements Streamer over the Gemini API.
type GeminiStreamer struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini creates a Gemini-backed streamer.
func NewGemini(ctx context.Context, cfg config.GenerationConfig) (*GeminiStreamer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiStreamer{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// Stream issues the generation request and yields text chunks in arrival
// order. The per-request timeout bounds the whole stream; expiry and any
// transport failure surface as domain.ErrStreamRead.
func (g *GeminiStreamer) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		streamCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		genCfg := &genai.GenerateContentConfig{}
		if req.System != "" {
			genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
		}
		contents := []*genai.Content{
			genai.NewContentFromText(req.Prompt, genai.RoleUser),
		}

		for resp, err := range g.client.Models.GenerateContentStream(streamCtx, g.model, contents, genCfg) {
			if err != nil {
				if errors.Is(streamCtx.Err(), context.DeadlineExceeded) {
					yield("", fmt.Errorf("%w: generation timed out after %s", domain.ErrStreamRead, g.timeout))
					return
				}
				yield("", fmt.Errorf("%w: %v", domain.ErrStreamRead, err))
				return
			}

			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}
