package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedLimiter throttles per client key (the login handlers key by IP).
// Idle entries are dropped by a background sweep.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewKeyedLimiter(perMinute, burst int) *KeyedLimiter {
	kl := &KeyedLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
	go kl.cleanupStaleEntries()
	return kl
}

func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	e, ok := kl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(kl.limit, kl.burst)}
		kl.limiters[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter.Allow()
}

func (kl *KeyedLimiter) cleanupStaleEntries() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-30 * time.Minute)
		kl.mu.Lock()
		for key, e := range kl.limiters {
			if e.lastSeen.Before(cutoff) {
				delete(kl.limiters, key)
			}
		}
		kl.mu.Unlock()
	}
}
