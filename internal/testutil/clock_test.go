package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqClock_StartsAtZero(t *testing.T) {
	clock := NewSeqClock()
	assert.Equal(t, 0, clock.Current())
}

func TestSeqClock_NextIncrementsMonotonically(t *testing.T) {
	clock := NewSeqClock()

	assert.Equal(t, 1, clock.Next())
	assert.Equal(t, 1, clock.Current())

	assert.Equal(t, 2, clock.Next())
	assert.Equal(t, 3, clock.Next())
	assert.Equal(t, 3, clock.Current())
}

func TestSeqClock_Reset(t *testing.T) {
	clock := NewSeqClock()

	clock.Next()
	clock.Next()
	clock.Reset()
	assert.Equal(t, 0, clock.Current())
	assert.Equal(t, 1, clock.Next())
}

func TestSeqClock_ThreadSafe(t *testing.T) {
	clock := NewSeqClock()
	const numGoroutines = 100

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Next()
		}()
	}
	wg.Wait()

	assert.Equal(t, numGoroutines, clock.Current())
}
