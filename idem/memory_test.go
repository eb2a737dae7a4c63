package idem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunhan/payidem/errx"
)

func TestMemoryStore(t *testing.T) {
	store, err := newMemoryStore("test:", 100)
	require.NoError(t, err)
	ctx := t.Context()

	t.Run("基本读写删", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, store.Set(ctx, "k1", []byte("v1"), time.Hour))

		got, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		existed, err := store.Delete(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, existed)

		_, err = store.Get(ctx, "k1")
		assert.ErrorIs(t, err, ErrNotFound)

		existed, err = store.Delete(ctx, "k1")
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("覆盖写", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k2", []byte("old"), time.Hour))
		require.NoError(t, store.Set(ctx, "k2", []byte("new"), time.Hour))

		got, err := store.Get(ctx, "k2")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), got)
	})

	t.Run("返回值是副本", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k3", []byte("abc"), time.Hour))

		got, err := store.Get(ctx, "k3")
		require.NoError(t, err)
		got[0] = 'X'

		again, err := store.Get(ctx, "k3")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})

	t.Run("上下文取消", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.Get(cancelled, "k2")
		assert.True(t, errx.Is(err, context.Canceled))

		err = store.Set(cancelled, "k4", []byte("v"), time.Hour)
		assert.True(t, errx.Is(err, context.Canceled))
	})

	t.Run("TTL 过期", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "ephemeral", []byte("v"), 20*time.Millisecond))

		got, err := store.Get(ctx, "ephemeral")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)

		time.Sleep(60 * time.Millisecond)

		_, err = store.Get(ctx, "ephemeral")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
