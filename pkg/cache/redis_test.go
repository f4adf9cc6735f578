package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/stellarfs-api/pkg/config"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "stellarfs:view:files", Key("view", "files"))
	assert.Equal(t, "stellarfs:", Key())
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "cache.local:6380", Addr(config.RedisConfig{Host: "cache.local", Port: 6380}))
}
