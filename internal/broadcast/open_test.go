package broadcast

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemory(t *testing.T) {
	bus, err := Open(BackendMemory, RedisConfig{}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	assert.IsType(t, &MemoryBus{}, bus)
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	bus, err := Open(BackendRedis, RedisConfig{Addr: mr.Addr(), ChannelPrefix: "test"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	assert.IsType(t, &RedisBus{}, bus)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("kafka", RedisConfig{}, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown broadcast backend")

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = Open(BackendRedis, RedisConfig{Addr: addr}, zerolog.Nop())
	assert.Error(t, err)
}
