package counter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValue(t *testing.T) {
	var c Counter
	assert.Equal(t, int64(0), c.Value())
}

func TestIncrementByOne(t *testing.T) {
	c := New(0)
	for i := int64(1); i <= 100; i++ {
		require.Equal(t, i, c.Increment())
		require.Equal(t, i, c.Value())
	}
}

func TestDecrementClampedAtZero(t *testing.T) {
	c := New(3)
	assert.Equal(t, int64(2), c.DecrementClamped())
	assert.Equal(t, int64(1), c.DecrementClamped())
	assert.Equal(t, int64(0), c.DecrementClamped())

	// Further decrements stay at the floor
	for i := 0; i < 10; i++ {
		assert.Equal(t, int64(0), c.DecrementClamped())
	}
	assert.Equal(t, int64(0), c.Value())
}

func TestDecrementClampsNegativeStart(t *testing.T) {
	c := New(-5)
	assert.Equal(t, int64(0), c.DecrementClamped())
	assert.Equal(t, int64(0), c.Value())
}

func TestReset(t *testing.T) {
	c := New(7)
	c.Reset(30)
	assert.Equal(t, int64(30), c.Value())
	c.Reset(0)
	assert.Equal(t, int64(0), c.Value())
}

func TestTryReserve(t *testing.T) {
	c := New(0)
	require.True(t, c.TryReserve(30))
	assert.Equal(t, int64(30), c.Value())

	// Window still open
	assert.False(t, c.TryReserve(30))
	assert.Equal(t, int64(30), c.Value())

	for i := 0; i < 29; i++ {
		c.DecrementClamped()
	}
	assert.False(t, c.TryReserve(30), "one tick left in the window")

	c.DecrementClamped()
	assert.True(t, c.TryReserve(30))
}

func TestConcurrentDecrementNeverNegative(t *testing.T) {
	c := New(500)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				if v := c.DecrementClamped(); v < 0 {
					t.Errorf("counter went negative: %d", v)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(0), c.Value())
}

func TestConcurrentTryReserveSingleWinner(t *testing.T) {
	c := New(0)
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.TryReserve(30) {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
}

func TestConcurrentIncrement(t *testing.T) {
	c := New(0)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				c.Increment()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), c.Value())
}
