package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxAttempts = 3
	backoffBase = time.Second
)

// LlmMeta records provenance for one successful structured generation.
type LlmMeta struct {
	ModelName    string `json:"modelName"`
	PromptHash   string `json:"promptHash,omitempty"`
	ResponseHash string `json:"responseHash,omitempty"`
	LatencyMs    int64  `json:"latencyMs"`
	RetryCount   int    `json:"retryCount"` // zero-based index of the winning attempt
}

// Result pairs a validated payload with its generation metadata.
type Result[T any] struct {
	Data T
	Meta LlmMeta
}

// GenerationError reports that every attempt at a structured generation
// failed. The last attempt's error is preserved for unwrapping.
type GenerationError struct {
	Attempts int
	LastErr  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("genai: generation failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *GenerationError) Unwrap() error { return e.LastErr }

// Options tunes a single structured generation call.
type Options struct {
	Grounded    bool
	Model       string
	Temperature float64
}

// Option mutates Options.
type Option func(*Options)

// WithGrounded asks the model to cite sources for factual claims.
func WithGrounded() Option {
	return func(o *Options) { o.Grounded = true }
}

// WithModel overrides the default model for this call.
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// WithTemperature overrides the default sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = t }
}

// GenerateStructured prompts g for a JSON object matching schema and
// decodes it into T. Up to three attempts are made; transport failures,
// undecodable responses, and schema violations all count as failed
// attempts, with 1s then 2s backoff between them. Fenced or chatty
// responses get a repair pass before being declared unparseable.
func GenerateStructured[T any](ctx context.Context, g Generator, model, prompt string, schema Schema[T], opts ...Option) (*Result[T], error) {
	options := Options{Model: model, Temperature: 0.7}
	for _, opt := range opts {
		opt(&options)
	}

	start := time.Now()
	promptHash := HashString(prompt)
	system := buildSystemPrompt(schema.Render(), options.Grounded)

	log := zap.L().With(
		zap.String("schema", schema.Name),
		zap.String("model", options.Model),
		zap.String("prompt_hash", promptHash),
	)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := backoffBase << (attempt - 1)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		resp, err := g.GenerateText(ctx, TextRequest{
			Model:       options.Model,
			System:      system,
			Prompt:      prompt,
			Temperature: options.Temperature,
			TopP:        0.95,
			TopK:        40,
			MaxTokens:   8192,
		})
		if err != nil {
			lastErr = err
			log.Warn("genai: generation attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		var data T
		if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Text)), &data); err != nil {
			// Repair pass: strip fences and surrounding prose, then retry the parse.
			if repairErr := json.Unmarshal([]byte(CleanJSON(resp.Text)), &data); repairErr != nil {
				lastErr = repairErr
				log.Warn("genai: response not parseable", zap.Int("attempt", attempt+1), zap.Error(repairErr))
				continue
			}
		}

		if schema.Check != nil {
			if err := schema.Check(&data); err != nil {
				lastErr = err
				log.Warn("genai: response failed validation", zap.Int("attempt", attempt+1), zap.Error(err))
				continue
			}
		}

		meta := LlmMeta{
			ModelName:    options.Model,
			PromptHash:   promptHash,
			ResponseHash: HashJSON(data),
			LatencyMs:    time.Since(start).Milliseconds(),
			RetryCount:   attempt,
		}
		log.Debug("genai: generation succeeded",
			zap.Int64("latency_ms", meta.LatencyMs),
			zap.Int("retry_count", meta.RetryCount),
		)
		return &Result[T]{Data: data, Meta: meta}, nil
	}

	log.Error("genai: all generation attempts failed", zap.Error(lastErr))
	return nil, &GenerationError{Attempts: maxAttempts, LastErr: lastErr}
}

func buildSystemPrompt(schemaText string, grounded bool) string {
	var b strings.Builder
	b.WriteString(`You are a JSON generation assistant. You must respond ONLY with valid JSON that matches the provided schema. Do not include any markdown formatting, code blocks, or explanations.

Schema to follow:
`)
	b.WriteString(schemaText)
	b.WriteString(`
Requirements:
1. Return ONLY valid JSON
2. Do not wrap in code blocks or markdown
3. Ensure all fields match the schema exactly
4. Use exact enum values if specified
5. Do not add extra fields`)
	if grounded {
		b.WriteString("\n6. Include citations and sources for factual claims when possible")
	}
	return b.String()
}

// CleanJSON strips markdown fences and any prose around the outermost
// JSON object so a near-miss response can still be parsed.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
