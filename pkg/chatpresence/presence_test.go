package chatpresence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepalive_PingsAndPauses(t *testing.T) {
	var mu sync.Mutex
	var states []string

	set := func(ctx context.Context, state string) error {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
		return nil
	}

	k := Start(context.Background(), set)
	time.Sleep(PingInterval + 300*time.Millisecond)
	k.Stop(context.Background())

	mu.Lock()
	defer mu.Unlock()
	// Al menos el composing inicial, un ping y el paused final
	require.GreaterOrEqual(t, len(states), 3)
	assert.Equal(t, "composing", states[0])
	assert.Equal(t, "paused", states[len(states)-1])
}

func TestKeepalive_StopIsIdempotent(t *testing.T) {
	var mu sync.Mutex
	paused := 0

	set := func(ctx context.Context, state string) error {
		mu.Lock()
		if state == "paused" {
			paused++
		}
		mu.Unlock()
		return nil
	}

	k := Start(context.Background(), set)
	k.Stop(context.Background())
	k.Stop(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, paused)
}
