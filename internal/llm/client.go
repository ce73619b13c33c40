package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Config holds the settings for the completion client.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client wraps a langchaingo model behind the two calls the pipeline
// needs: plain completion and completion decoded into a JSON target.
type Client struct {
	model       llms.Model
	modelName   string
	temperature float64
	maxTokens   int
}

// New creates a completion client backed by the OpenAI API. The caller is
// expected to skip construction entirely when no API key is configured;
// the pipeline treats a nil client as "run in fallback mode".
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	model, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai model: %w", err)
	}

	log.Debug().
		Str("model", cfg.Model).
		Float64("temperature", cfg.Temperature).
		Msg("Completion client initialized")

	return &Client{
		model:       model,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.modelName
}

// Complete issues a single completion request and returns the raw text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	opts := []llms.CallOption{
		llms.WithTemperature(c.temperature),
	}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	return llms.GenerateFromSinglePrompt(ctx, c.model, prompt, opts...)
}

// CompleteInto issues a completion request and decodes the response into
// target. The response is stripped of surrounding prose and repaired before
// decoding, so mildly malformed model output still parses. A response with
// no recoverable JSON is an error; the caller decides how to degrade.
func (c *Client) CompleteInto(ctx context.Context, prompt string, target interface{}) error {
	raw, err := c.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("completion request failed: %w", err)
	}

	payload := ExtractJSON(raw)
	if payload == "" {
		return fmt.Errorf("no JSON found in model response (%d bytes)", len(raw))
	}

	repaired, repairedApplied, err := RepairJSON(payload)
	if err != nil {
		return fmt.Errorf("model response is not valid JSON: %w", err)
	}
	if repairedApplied {
		log.Debug().
			Int("original_bytes", len(payload)).
			Int("repaired_bytes", len(repaired)).
			Msg("Repaired malformed JSON in model response")
	}

	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("failed to decode model response: %w", err)
	}
	return nil
}
