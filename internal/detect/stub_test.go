package detect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubDetector(t *testing.T) {
	t.Parallel()

	t.Run("version", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "stub-v1", NewStub().Version())
	})

	t.Run("output within bounds", func(t *testing.T) {
		t.Parallel()
		d := NewStubSeeded(42)

		for i := 0; i < 50; i++ {
			out, err := d.Detect(context.Background(), nil)
			require.NoError(t, err)

			assert.Equal(t, "stub-v1", out.ModelVersion)
			assert.GreaterOrEqual(t, len(out.SummaryLabels), 2)
			assert.LessOrEqual(t, len(out.SummaryLabels), 4)
			assert.NotEmpty(t, out.RawBoxes)

			for _, label := range out.SummaryLabels {
				assert.Contains(t, stubVocabulary, label.Label)
				assert.GreaterOrEqual(t, label.Count, 1)
				assert.LessOrEqual(t, label.Count, 5)
				assert.GreaterOrEqual(t, label.ConfidenceMean, 0.65)
				assert.Less(t, label.ConfidenceMean, 0.95)
			}
			for _, box := range out.RawBoxes {
				assert.Contains(t, stubVocabulary, box.Label)
				assert.GreaterOrEqual(t, box.Confidence, 0.65)
				assert.Less(t, box.Confidence, 0.95)
				assert.Greater(t, box.Width, 0.0)
				assert.Greater(t, box.Height, 0.0)
			}
		}
	})

	t.Run("seeded detector is reproducible", func(t *testing.T) {
		t.Parallel()
		a, err := NewStubSeeded(7).Detect(context.Background(), nil)
		require.NoError(t, err)
		b, err := NewStubSeeded(7).Detect(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}
