package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
		require.NoError(t, err)
		defer func() { _ = client.Close() }()

		require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
		got, err := mr.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("Error_InvalidURL", func(t *testing.T) {
		client, err := Connect(context.Background(), "http://localhost:6379")
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "failed to parse redis url")
	})

	t.Run("Error_Unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		client, err := Connect(context.Background(), "redis://"+addr+"/0")
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "failed to ping redis")
	})
}
