package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBurstThenThrottle(t *testing.T) {
	kl := NewKeyedLimiter(60, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, kl.Allow("10.0.0.1"), "attempt %d should pass within burst", i)
	}
	assert.False(t, kl.Allow("10.0.0.1"), "burst exhausted")
}

func TestKeysAreIndependent(t *testing.T) {
	kl := NewKeyedLimiter(60, 1)

	assert.True(t, kl.Allow("10.0.0.1"))
	assert.False(t, kl.Allow("10.0.0.1"))
	assert.True(t, kl.Allow("10.0.0.2"))
}
