package workspace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := newRateLimiter(3, time.Second)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow(), "4th op inside the window must be refused")

	// Advance past the window: old stamps slide out.
	now = now.Add(1100 * time.Millisecond)
	assert.True(t, rl.Allow())
}

func TestRateLimiterPartialSlide(t *testing.T) {
	now := time.Unix(2000, 0)
	rl := newRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow()) // t=0
	now = now.Add(600 * time.Millisecond)
	assert.True(t, rl.Allow()) // t=0.6
	assert.False(t, rl.Allow())

	// t=1.2: the first stamp left the window, the second is still inside.
	now = now.Add(600 * time.Millisecond)
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
}

func TestRateLimiterConcurrentAccess(t *testing.T) {
	rl := newRateLimiter(50, time.Second)
	done := make(chan int)
	for g := 0; g < 10; g++ {
		go func() {
			granted := 0
			for i := 0; i < 10; i++ {
				if rl.Allow() {
					granted++
				}
			}
			done <- granted
		}()
	}
	total := 0
	for g := 0; g < 10; g++ {
		total += <-done
	}
	assert.Equal(t, 50, total)
}
