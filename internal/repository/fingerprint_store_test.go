package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xllucky21/xllucky/pkg/cache"
)

func TestCacheFingerprintStore(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(cache.WithFileDir(t.TempDir()))
	require.NoError(t, err)
	store := NewCacheFingerprintStore(fc)

	fp, err := store.Load(ctx, "lof")
	require.NoError(t, err)
	assert.Equal(t, "", fp)

	require.NoError(t, store.Save(ctx, "lof", "0123456789abcdef"))
	fp, err = store.Load(ctx, "lof")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", fp)

	other, err := store.Load(ctx, "daily")
	require.NoError(t, err)
	assert.Equal(t, "", other)
}
