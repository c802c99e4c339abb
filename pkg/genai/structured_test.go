package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

var widgetSchema = Schema[widget]{
	Name: "widget",
	Fields: []Field{
		{Name: "name", Type: "string", Required: true},
		{Name: "price", Type: "number", Required: true, Desc: "non-negative"},
	},
	Check: func(w *widget) error {
		if w.Name == "" {
			return Invalid("widget", "name", "missing")
		}
		if w.Price < 0 {
			return Invalid("widget", "price", "negative")
		}
		return nil
	},
}

// scriptedGenerator returns each scripted step in order; a step is either
// a response text or an error.
type scriptedGenerator struct {
	steps []scriptedStep
	calls int
	reqs  []TextRequest
}

type scriptedStep struct {
	text string
	err  error
}

func (g *scriptedGenerator) GenerateText(_ context.Context, req TextRequest) (*TextResponse, error) {
	g.reqs = append(g.reqs, req)
	step := g.steps[g.calls]
	g.calls++
	if step.err != nil {
		return nil, step.err
	}
	return &TextResponse{Text: step.text, Model: req.Model}, nil
}

func TestGenerateStructured(t *testing.T) {
	t.Parallel()

	t.Run("clean response first try", func(t *testing.T) {
		t.Parallel()
		gen := &scriptedGenerator{steps: []scriptedStep{
			{text: `{"name":"gizmo","price":9.5}`},
		}}

		res, err := GenerateStructured(context.Background(), gen, "test-model", "make a widget", widgetSchema)
		require.NoError(t, err)
		assert.Equal(t, "gizmo", res.Data.Name)
		assert.Equal(t, 9.5, res.Data.Price)
		assert.Equal(t, 0, res.Meta.RetryCount)
		assert.Equal(t, "test-model", res.Meta.ModelName)
		assert.NotEmpty(t, res.Meta.PromptHash)
		assert.NotEmpty(t, res.Meta.ResponseHash)
	})

	t.Run("fenced response repaired without a retry", func(t *testing.T) {
		t.Parallel()
		gen := &scriptedGenerator{steps: []scriptedStep{
			{text: "```json\n{\"name\":\"gizmo\",\"price\":1}\n```"},
		}}

		res, err := GenerateStructured(context.Background(), gen, "test-model", "p", widgetSchema)
		require.NoError(t, err)
		assert.Equal(t, "gizmo", res.Data.Name)
		assert.Equal(t, 0, res.Meta.RetryCount)
	})

	t.Run("transport errors retried", func(t *testing.T) {
		t.Parallel()
		gen := &scriptedGenerator{steps: []scriptedStep{
			{err: &TransportError{Err: errors.New("connection reset")}},
			{err: &TransportError{Err: errors.New("connection reset")}},
			{text: `{"name":"gizmo","price":2}`},
		}}

		res, err := GenerateStructured(context.Background(), gen, "test-model", "p", widgetSchema)
		require.NoError(t, err)
		assert.Equal(t, 3, gen.calls)
		assert.Equal(t, 2, res.Meta.RetryCount)
	})

	t.Run("validation failure counts as failed attempt", func(t *testing.T) {
		t.Parallel()
		gen := &scriptedGenerator{steps: []scriptedStep{
			{text: `{"name":"gizmo","price":-4}`},
			{text: `{"name":"gizmo","price":4}`},
		}}

		res, err := GenerateStructured(context.Background(), gen, "test-model", "p", widgetSchema)
		require.NoError(t, err)
		assert.Equal(t, 2, gen.calls)
		assert.Equal(t, 1, res.Meta.RetryCount)
	})

	t.Run("all attempts exhausted", func(t *testing.T) {
		t.Parallel()
		gen := &scriptedGenerator{steps: []scriptedStep{
			{text: "not json at all"},
			{text: "still not json"},
			{text: "nope"},
		}}

		_, err := GenerateStructured(context.Background(), gen, "test-model", "p", widgetSchema)
		require.Error(t, err)

		var genErr *GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, 3, genErr.Attempts)
		assert.Equal(t, 3, gen.calls)
	})

	t.Run("request carries sampling defaults", func(t *testing.T) {
		t.Parallel()
		gen := &scriptedGenerator{steps: []scriptedStep{
			{text: `{"name":"gizmo","price":1}`},
		}}

		_, err := GenerateStructured(context.Background(), gen, "test-model", "p", widgetSchema)
		require.NoError(t, err)
		require.Len(t, gen.reqs, 1)
		req := gen.reqs[0]
		assert.Equal(t, 0.7, req.Temperature)
		assert.Equal(t, 0.95, req.TopP)
		assert.Equal(t, int64(40), req.TopK)
		assert.Equal(t, int64(8192), req.MaxTokens)
		assert.Contains(t, req.System, "Return ONLY valid JSON")
		assert.Contains(t, req.System, `Object "widget"`)
		assert.NotContains(t, req.System, "citations")
	})

	t.Run("grounded adds citation requirement", func(t *testing.T) {
		t.Parallel()
		gen := &scriptedGenerator{steps: []scriptedStep{
			{text: `{"name":"gizmo","price":1}`},
		}}

		_, err := GenerateStructured(context.Background(), gen, "test-model", "p", widgetSchema, WithGrounded())
		require.NoError(t, err)
		assert.Contains(t, gen.reqs[0].System, "Include citations and sources")
	})

	t.Run("temperature override", func(t *testing.T) {
		t.Parallel()
		gen := &scriptedGenerator{steps: []scriptedStep{
			{text: `{"name":"gizmo","price":1}`},
		}}

		_, err := GenerateStructured(context.Background(), gen, "test-model", "p", widgetSchema, WithTemperature(0.2))
		require.NoError(t, err)
		assert.Equal(t, 0.2, gen.reqs[0].Temperature)
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		gen := &scriptedGenerator{steps: []scriptedStep{
			{err: &TransportError{Err: errors.New("down")}},
		}}
		cancel()

		_, err := GenerateStructured(ctx, gen, "test-model", "p", widgetSchema)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, gen.calls)
	})
}

func TestCleanJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object untouched", `{"a":1}`, `{"a":1}`},
		{"json fence stripped", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence stripped", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose stripped", `Here you go: {"a":1} hope that helps`, `{"a":1}`},
		{"whitespace trimmed", "  {\"a\":1}  \n", `{"a":1}`},
		{"no object left as-is", "no braces here", "no braces here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}

func TestSchemaRender(t *testing.T) {
	t.Parallel()

	out := widgetSchema.Render()
	assert.Contains(t, out, `Object "widget" with fields:`)
	assert.Contains(t, out, "- name: string (required)")
	assert.Contains(t, out, "- price: number (required) // non-negative")
}

func TestHashStringStable(t *testing.T) {
	t.Parallel()

	a := HashString("same input")
	b := HashString("same input")
	c := HashString("different input")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
