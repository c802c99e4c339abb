package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reclaimworks/assay-cli/internal/model"
)

func TestParseText(t *testing.T) {
	t.Parallel()

	t.Run("dash quantity", func(t *testing.T) {
		t.Parallel()
		items := ParseText("Intel Core i7 laptops - 10")
		require.Len(t, items, 1)
		assert.Equal(t, "Intel Core i7 laptops", items[0].RawLabel)
		assert.Equal(t, 10.0, items[0].Quantity)
		assert.Equal(t, "count", items[0].Unit)
		assert.Equal(t, model.ConfidenceHigh, items[0].Confidence)
	})

	t.Run("dash quantity with unit", func(t *testing.T) {
		t.Parallel()
		items := ParseText("mixed cables - 2.5 kg")
		require.Len(t, items, 1)
		assert.Equal(t, "mixed cables", items[0].RawLabel)
		assert.Equal(t, 2.5, items[0].Quantity)
		assert.Equal(t, "kg", items[0].Unit)
	})

	t.Run("leading quantity", func(t *testing.T) {
		t.Parallel()
		items := ParseText("5 iPhones")
		require.Len(t, items, 1)
		assert.Equal(t, "iPhones", items[0].RawLabel)
		assert.Equal(t, 5.0, items[0].Quantity)
		assert.Equal(t, "count", items[0].Unit)
	})

	t.Run("mixed segments split on commas", func(t *testing.T) {
		t.Parallel()
		items := ParseText("5 iPhones, old batteries - 3")
		require.Len(t, items, 2)
		assert.Equal(t, "iPhones", items[0].RawLabel)
		assert.Equal(t, 5.0, items[0].Quantity)
		assert.Equal(t, "old batteries", items[1].RawLabel)
		assert.Equal(t, 3.0, items[1].Quantity)
	})

	t.Run("splits on newlines and semicolons", func(t *testing.T) {
		t.Parallel()
		items := ParseText("laptops - 2\nmonitors - 4; 6 routers")
		require.Len(t, items, 3)
		assert.Equal(t, "monitors", items[1].RawLabel)
		assert.Equal(t, "routers", items[2].RawLabel)
	})

	t.Run("unmatched segments dropped", func(t *testing.T) {
		t.Parallel()
		items := ParseText("assorted junk, laptops - 2, more junk")
		require.Len(t, items, 1)
		assert.Equal(t, "laptops", items[0].RawLabel)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, ParseText(""))
		assert.Empty(t, ParseText("  ,  ;  \n "))
	})
}
