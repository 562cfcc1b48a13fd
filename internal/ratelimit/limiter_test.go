package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Window(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	l := NewLimiter(2, time.Second)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("alice"))
	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))

	// Window elapses; the next call resets it lazily.
	clock = clock.Add(time.Second)
	assert.True(t, l.Allow("alice"))
	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))
}

func TestLimiter_ActorsAreIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))
	assert.True(t, l.Allow("bob"))
}

func TestLimiter_ConcurrentCallersNeverExceedLimit(t *testing.T) {
	const limit = 10
	const callers = 100

	l := NewLimiter(limit, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("alice") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, allowed)
}
