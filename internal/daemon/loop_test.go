package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	loop := NewLoop(8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(cancel)
	return loop, cancel
}

func TestLoopRunsInOrder(t *testing.T) {
	loop, _ := startLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, loop.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, loop.Call(func() error { return nil }))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoopCallReturnsError(t *testing.T) {
	loop, _ := startLoop(t)
	want := errors.New("boom")
	assert.Equal(t, want, loop.Call(func() error { return want }))
}

func TestLoopSerializesConcurrentCallers(t *testing.T) {
	loop, _ := startLoop(t)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = loop.Call(func() error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	require.NoError(t, loop.Call(func() error { return nil }))
	assert.Equal(t, 50, counter)
}

func TestLoopRecoversPanics(t *testing.T) {
	loop, _ := startLoop(t)
	loop.Post(func() { panic("bad closure") })
	assert.NoError(t, loop.Call(func() error { return nil }))
}

func TestLoopStopped(t *testing.T) {
	loop, cancel := startLoop(t)
	cancel()

	select {
	case <-loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.False(t, loop.Post(func() {}))
	assert.ErrorIs(t, loop.Call(func() error { return nil }), ErrLoopStopped)
	loop.Dispatch(func() {})
}
