package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_WaitReturnsAtZero(t *testing.T) {
	c := NewCounter()
	c.Init(100)

	var wg sync.WaitGroup
	seen := make([]int, 0, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Done(func(remaining int) { seen = append(seen, remaining) })
		}()
	}

	require.NoError(t, c.Wait(context.Background()))
	wg.Wait()

	assert.Equal(t, 0, c.Remaining())
	require.Len(t, seen, 100)
	for i, r := range seen {
		assert.Equal(t, 99-i, r, "remaining must strictly count down")
	}
}

func TestCounter_InitZero(t *testing.T) {
	c := NewCounter()
	c.Init(0)
	assert.NoError(t, c.Wait(context.Background()))
}

func TestCounter_WaitCancelled(t *testing.T) {
	c := NewCounter()
	c.Init(1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	assert.ErrorIs(t, c.Wait(ctx), context.Canceled)
	assert.Equal(t, 1, c.Remaining())
}

func TestCounter_Misuse(t *testing.T) {
	assert.Panics(t, func() { NewCounter().Done(nil) }, "uninitialized")

	c := NewCounter()
	c.Init(1)
	c.Done(nil)
	assert.Panics(t, func() { c.Done(nil) }, "underflow")

	assert.Panics(t, func() { NewCounter().Init(-1) })
}
