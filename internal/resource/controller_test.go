package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(50))
	require.NoError(t, c.AcquireMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	assert.ErrorIs(t, c.AcquireMemory(20), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	require.NoError(t, c.AcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	ctx := context.Background()

	assert.NoError(t, c.AcquireMemory(1<<40))
	c.ReleaseMemory(1)
	assert.Zero(t, c.MemoryUsage())
	assert.NoError(t, c.AcquireLoad(ctx))
	c.ReleaseLoad()
	assert.NoError(t, c.AcquireIO(ctx, 1<<30))
	assert.Equal(t, Config{}, c.Config())
}

func TestController_Loads(t *testing.T) {
	c := NewController(Config{MaxConcurrentLoads: 1})
	ctx := context.Background()

	require.NoError(t, c.AcquireLoad(ctx))

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireLoad(short), context.DeadlineExceeded)

	c.ReleaseLoad()
	require.NoError(t, c.AcquireLoad(ctx))
	c.ReleaseLoad()
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	ctx := context.Background()

	// The initial burst covers one second of budget.
	require.NoError(t, c.AcquireIO(ctx, 1<<19))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, c.AcquireIO(cancelled, 1<<20))
}
