// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_SpacesCalls(t *testing.T) {
	p := NewPacer(40 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(ctx))
	}
	// First call is immediate, the next two wait one interval each.
	assert.GreaterOrEqual(t, time.Since(start), 75*time.Millisecond)
}

func TestPacer_SharedAcrossGoroutines(t *testing.T) {
	p := NewPacer(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Wait(ctx))
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 85*time.Millisecond)
}

func TestPacer_Disabled(t *testing.T) {
	for _, p := range []*Pacer{nil, NewPacer(0), NewPacer(-time.Second)} {
		start := time.Now()
		for i := 0; i < 100; i++ {
			require.NoError(t, p.Wait(context.Background()))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	}
}

func TestPacer_ContextCancelled(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Wait(ctx))

	cancel()
	assert.Error(t, p.Wait(ctx))
}
