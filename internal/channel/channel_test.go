package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_SendRecv(t *testing.T) {
	ctx := context.Background()
	c := New[int](4)
	assert.Equal(t, 4, c.Cap())

	for i := range 3 {
		require.NoError(t, c.Send(ctx, i))
	}
	assert.Equal(t, 3, c.Len())

	v, err := c.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	assert.Equal(t, []int{1, 2}, c.Drain(nil))
	assert.Empty(t, c.Drain(nil))
}

func TestChannel_CloseKeepsBufferedItems(t *testing.T) {
	ctx := context.Background()
	c := New[string](2)
	require.NoError(t, c.Send(ctx, "a"))
	c.Close()
	c.Close()
	assert.True(t, c.Closed())

	assert.ErrorIs(t, c.Send(ctx, "b"), ErrClosed)

	v, err := c.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	_, err = c.Recv(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestChannel_CloseUnblocksSenders(t *testing.T) {
	ctx := context.Background()
	c := New[int](1)
	require.NoError(t, c.Send(ctx, 0))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Send(ctx, i+1)
		}()
	}

	time.Sleep(10 * time.Millisecond)
	c.Close()
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, ErrClosed)
	}
	assert.Equal(t, 1, c.Len())
}

func TestChannel_ContextCancel(t *testing.T) {
	c := New[int](1)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Send(ctx, 1))
	cancel()

	assert.ErrorIs(t, c.Send(ctx, 2), context.Canceled)

	empty := New[int](1)
	_, err := empty.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChannel_SendRacingClose(t *testing.T) {
	ctx := context.Background()
	for range 100 {
		c := New[int](1)
		require.NoError(t, c.Send(ctx, 1))

		errs := make(chan error, 1)
		go func() { errs <- c.Send(ctx, 2) }()

		c.Close()
		v, err := c.Recv(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, v)

		assert.ErrorIs(t, <-errs, ErrClosed)
	}
}
