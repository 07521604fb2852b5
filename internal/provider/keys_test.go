package provider

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRing_RoundRobin(t *testing.T) {
	keys := []string{"k1", "k2", "k3"}
	ring, err := NewKeyRing(keys)
	require.NoError(t, err)

	// N consecutive calls return each key exactly once, in pool order.
	for i, want := range keys {
		assert.Equal(t, want, ring.Next(), "call %d", i)
	}
	// The (N+1)-th call wraps to the first.
	assert.Equal(t, "k1", ring.Next())
}

func TestKeyRing_Empty(t *testing.T) {
	_, err := NewKeyRing(nil)
	require.Error(t, err)
}

func TestKeyRing_SingleKey(t *testing.T) {
	ring, err := NewKeyRing([]string{"only"})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		assert.Equal(t, "only", ring.Next())
	}
}

func TestKeyRing_ConcurrentFairness(t *testing.T) {
	keys := []string{"a", "b", "c", "d"}
	ring, err := NewKeyRing(keys)
	require.NoError(t, err)

	const perKey = 250
	total := perKey * len(keys)

	var mu sync.Mutex
	counts := make(map[string]int)
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k := ring.Next()
			mu.Lock()
			counts[k]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Atomic cursor: every draw lands in the pool and the distribution is
	// exactly even when the call count is a multiple of the pool size.
	require.Len(t, counts, len(keys))
	for _, k := range keys {
		assert.Equal(t, perKey, counts[k], "key %s", k)
	}
}
