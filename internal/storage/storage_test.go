package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewLocalWithFs(afero.NewMemMapFs(), "/data")

	t.Run("put get delete round trip", func(t *testing.T) {
		key := "batches/b1/images/pile.jpg"
		require.NoError(t, s.Put(ctx, key, []byte("jpeg bytes")))

		data, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg bytes"), data)

		require.NoError(t, s.Delete(ctx, key))
		_, err = s.Get(ctx, key)
		assert.Error(t, err)
	})

	t.Run("put overwrites", func(t *testing.T) {
		key := "batches/b2/images/x.png"
		require.NoError(t, s.Put(ctx, key, []byte("one")))
		require.NoError(t, s.Put(ctx, key, []byte("two")))

		data, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), data)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "nope")
		assert.Error(t, err)
	})
}

func TestImageKey(t *testing.T) {
	t.Parallel()

	key := ImageKey("batch-1", "/tmp/uploads/pile of stuff.jpg")
	assert.True(t, strings.HasPrefix(key, "batches/batch-1/images/"))
	assert.True(t, strings.HasSuffix(key, "-pile of stuff.jpg"))
	assert.NotContains(t, key, "/tmp")
}
