package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsAllSubmittedTasks(t *testing.T) {
	p := New(4)
	defer p.Shutdown()

	var n int64
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		require.NoError(t, p.Submit(ctx, func() { atomic.AddInt64(&n, 1) }))
	}
	p.Shutdown()
	assert.Equal(t, int64(50), atomic.LoadInt64(&n))
}

func TestPool_SubmitAfterShutdownFails(t *testing.T) {
	p := New(1)
	p.Shutdown()
	err := p.Submit(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrPoolShutdown)
}

func TestPool_SubmitRespectsContextCancellation(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	// Fill the single worker and its buffer so the next Submit must block.
	block := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func() { <-block }))
	for i := 0; i < p.Workers()*2; i++ {
		_ = p.Submit(context.Background(), func() { <-block })
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(block)
}

func TestPool_DefaultsWorkerCountWhenNonPositive(t *testing.T) {
	p := New(0)
	defer p.Shutdown()
	assert.Greater(t, p.Workers(), 0)
}
