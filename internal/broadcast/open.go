package broadcast

import (
	"fmt"

	"github.com/rs/zerolog"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Open builds the bus named by backend. The memory bus only reaches
// observers in this process.
func Open(backend string, redisCfg RedisConfig, logger zerolog.Logger) (Bus, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryBus(redisCfg.Buffer), nil
	case BackendRedis:
		bus, err := NewRedisBus(redisCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("opening redis bus: %w", err)
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unknown broadcast backend %q", backend)
	}
}
