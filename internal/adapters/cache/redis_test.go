package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnectParsesURL(t *testing.T) {
	client, err := Connect(context.Background(), "redis://:secret@cache.internal:6380/3")
	require.NoError(t, err)
	defer client.Close()

	opts := client.Options()
	require.Equal(t, "cache.internal:6380", opts.Addr)
	require.Equal(t, 3, opts.DB)
	require.Equal(t, "secret", opts.Password)
}

func TestConnectFallsBackToAddress(t *testing.T) {
	client, err := Connect(context.Background(), "localhost:6379")
	require.NoError(t, err)
	defer client.Close()
	require.Equal(t, "localhost:6379", client.Options().Addr)
}

func TestConnectRejectsMalformedURL(t *testing.T) {
	_, err := Connect(context.Background(), "redis://host:notaport")
	require.Error(t, err)
}

func TestKeyPrefix(t *testing.T) {
	c := NewRedisCache(nil, "pp:")
	require.Equal(t, "pp:portal:x", c.key("portal:x"))
	require.Equal(t, "portal:x", NewRedisCache(nil, "").key("portal:x"))
}
