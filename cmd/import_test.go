package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImportRow(t *testing.T) {
	t.Parallel()

	t.Run("item quantity unit", func(t *testing.T) {
		t.Parallel()
		row, ok := parseImportRow([]string{"mixed cables", "2.5", "kg"})
		require.True(t, ok)
		assert.Equal(t, "mixed cables", row.Item)
		assert.Equal(t, 2.5, row.Quantity)
		assert.Equal(t, "kg", row.Unit)
	})

	t.Run("unit optional", func(t *testing.T) {
		t.Parallel()
		row, ok := parseImportRow([]string{"laptops", "10"})
		require.True(t, ok)
		assert.Equal(t, "laptops", row.Item)
		assert.Empty(t, row.Unit)
	})

	t.Run("header row skipped", func(t *testing.T) {
		t.Parallel()
		_, ok := parseImportRow([]string{"item", "quantity", "unit"})
		assert.False(t, ok)
	})

	t.Run("too few cells skipped", func(t *testing.T) {
		t.Parallel()
		_, ok := parseImportRow([]string{"laptops"})
		assert.False(t, ok)
	})

	t.Run("zero quantity skipped", func(t *testing.T) {
		t.Parallel()
		_, ok := parseImportRow([]string{"laptops", "0"})
		assert.False(t, ok)
	})
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"item,quantity,unit\nlaptops,10,\nmixed cables,2.5,kg\n,5,\n"), 0o644))

	rows, err := readCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "laptops", rows[0].Item)
	assert.Equal(t, 10.0, rows[0].Quantity)
	assert.Equal(t, "mixed cables", rows[1].Item)
	assert.Equal(t, "kg", rows[1].Unit)
}
