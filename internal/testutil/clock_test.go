package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtEpoch(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Ticks())
	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, int64(1), clock.Ticks())
}

func TestDeterministicClock_AdvancesOneSecond(t *testing.T) {
	clock := NewDeterministicClock()
	first := clock.Now()
	second := clock.Now()
	assert.Equal(t, time.Second, second.Sub(first))
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Now()
	clock.Now()
	clock.Reset()
	assert.Equal(t, int64(0), clock.Ticks())
	assert.Equal(t, Epoch, clock.Now())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const goroutines = 50
	const calls = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	seen := make(chan time.Time, goroutines*calls)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range calls {
				seen <- clock.Now()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[time.Time]bool{}
	for ts := range seen {
		require.False(t, unique[ts], "duplicate instant %v", ts)
		unique[ts] = true
	}
	assert.Len(t, unique, goroutines*calls)
}

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("scenario")
	assert.Equal(t, "scenario-1", ids.Next())
	assert.Equal(t, "scenario-2", ids.Next())

	assert.Equal(t, "build-1", NewSequentialIDs("").Next())
}

func TestFixed(t *testing.T) {
	gen := Fixed("abc")
	assert.Equal(t, "abc", gen())
	assert.Equal(t, "abc", gen())
}
