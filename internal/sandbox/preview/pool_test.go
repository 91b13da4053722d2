package preview

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAcquireRelease(t *testing.T) {
	p := NewPool(2, 20*time.Millisecond)
	ctx := context.Background()

	r1, err := p.Acquire(ctx)
	require.NoError(t, err)
	r2, err := p.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, PoolStats{Size: 2, InUse: 2}, p.Stats())

	_, err = p.Acquire(ctx)
	assert.ErrorIs(t, err, ErrBusy)

	r1()
	r1()
	assert.Equal(t, 1, p.Stats().InUse)

	r3, err := p.Acquire(ctx)
	require.NoError(t, err)
	r2()
	r3()
	assert.Equal(t, 0, p.Stats().InUse)
}

func TestPoolAcquireCancelled(t *testing.T) {
	p := NewPool(1, time.Second)
	release, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoolClosed(t *testing.T) {
	p := NewPool(1, time.Second)
	p.Close()
	_, err := p.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.True(t, p.Stats().Closed)
}

func TestHarnessClosedRejectsRuns(t *testing.T) {
	h := NewHarness(Config{}, nil, nil)
	h.Close()
	_, err := h.Run(context.Background(), Request{Source: `function setup() { createCanvas(10, 10) }`})
	assert.ErrorIs(t, err, ErrPoolClosed)
}
