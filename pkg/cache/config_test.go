package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithRedisPool(t *testing.T) {
	cfg := defaultRedisConfig()
	WithRedisPool(32, 4)(cfg)
	assert.Equal(t, 32, cfg.PoolSize)
	assert.Equal(t, 4, cfg.MinIdleConns)

	// non-positive size keeps the current pool size
	WithRedisPool(0, 0)(cfg)
	assert.Equal(t, 32, cfg.PoolSize)
	assert.Equal(t, 0, cfg.MinIdleConns)
}
