// Package genai wraps the Anthropic messages API behind a small text
// generation interface and layers schema-validated JSON generation on top.
package genai

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Generator defines the raw text generation operation the pipeline uses.
type Generator interface {
	GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error)
}

// TextRequest is our own request type for GenerateText.
type TextRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	TopP        float64
	TopK        int64
	MaxTokens   int64
}

// TextResponse is our own response type from GenerateText.
type TextResponse struct {
	Text       string
	Model      string
	StopReason string
}

// TransportError marks a failure talking to the model provider, as
// opposed to a bad or unparseable response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "genai: transport: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// sdkClient implements Generator using the official anthropic-sdk-go.
type sdkClient struct {
	client  sdk.Client
	limiter *rate.Limiter
}

// ClientOption configures the SDK-backed generator.
type ClientOption func(*sdkClient)

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *sdkClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient creates a Generator backed by the Anthropic SDK.
func NewClient(apiKey string, opts ...ClientOption) Generator {
	c := &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *sdkClient) GenerateText(ctx context.Context, req TextRequest) (*TextResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "genai: rate limit wait")
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(req.Model),
		MaxTokens:   maxTokens,
		Temperature: sdk.Float(req.Temperature),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.TopP > 0 {
		params.TopP = sdk.Float(req.TopP)
	}
	if req.TopK > 0 {
		params.TopK = sdk.Int(req.TopK)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return nil, eris.New("genai: empty response")
	}

	return &TextResponse{
		Text:       b.String(),
		Model:      string(msg.Model),
		StopReason: string(msg.StopReason),
	}, nil
}
