package msgworker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test 1: Pool debe despachar jobs sin bloquear el caller
func TestPool_DispatchNonBlocking(t *testing.T) {
	pool := NewPool(2, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	start := time.Now()
	pool.Dispatch(Job{
		InstanceID: "test",
		RemoteJID:  "5511999999999@s.whatsapp.net",
		Handler: func(ctx context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 10*time.Millisecond, "Dispatch debe ser no bloqueante")
}

// Test 2: Jobs del mismo chat deben procesarse secuencialmente (orden garantizado)
func TestPool_SameChatSequentialProcessing(t *testing.T) {
	pool := NewPool(4, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var results []int
	var mu sync.Mutex

	instanceID := "inst1"
	remoteJID := "5511888888888@s.whatsapp.net"

	for i := 1; i <= 5; i++ {
		val := i
		pool.Dispatch(Job{
			InstanceID: instanceID,
			RemoteJID:  remoteJID,
			Handler: func(ctx context.Context) error {
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				results = append(results, val)
				mu.Unlock()
				return nil
			},
		})
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	require.Equal(t, []int{1, 2, 3, 4, 5}, results, "Jobs del mismo chat deben procesarse en orden")
}

// Test 3: Jobs de distintos chats pueden procesarse en paralelo
func TestPool_DifferentChatsParallelProcessing(t *testing.T) {
	pool := NewPool(4, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	var activeCount int32

	for i := 0; i < 4; i++ {
		chatID := string(rune('A' + i))
		pool.Dispatch(Job{
			InstanceID: "inst1",
			RemoteJID:  chatID,
			Handler: func(ctx context.Context) error {
				atomic.AddInt32(&activeCount, 1)
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&activeCount, -1)
				return nil
			},
		})
	}

	time.Sleep(10 * time.Millisecond)

	active := atomic.LoadInt32(&activeCount)
	assert.GreaterOrEqual(t, active, int32(2), "Distintos chats deben procesarse en paralelo")
}

// Test 4: Graceful shutdown debe completar jobs en curso
func TestPool_GracefulShutdown(t *testing.T) {
	pool := NewPool(2, 10)
	ctx, cancel := context.WithCancel(context.Background())

	pool.Start(ctx)

	var completed int32

	for i := 0; i < 2; i++ {
		pool.Dispatch(Job{
			InstanceID: "inst1",
			RemoteJID:  string(rune('A' + i)),
			Handler: func(ctx context.Context) error {
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt32(&completed, 1)
				return nil
			},
		})
	}

	time.Sleep(10 * time.Millisecond)

	cancel()
	pool.Stop()

	completedCount := atomic.LoadInt32(&completed)
	assert.Equal(t, int32(2), completedCount, "Jobs en curso deben completarse en shutdown")
}

// Test 5: Hash consistente - mismo chat siempre al mismo worker
func TestPool_ConsistentHashing(t *testing.T) {
	pool := NewPool(4, 100)

	instanceID := "inst1"
	remoteJID := "5511777777777@s.whatsapp.net"

	shard1 := pool.shardForChat(instanceID, remoteJID)
	shard2 := pool.shardForChat(instanceID, remoteJID)
	shard3 := pool.shardForChat(instanceID, remoteJID)

	assert.Equal(t, shard1, shard2)
	assert.Equal(t, shard2, shard3)
}

// Test 6: TryDispatch reporta backpressure cuando la cola se llena
func TestPool_TryDispatchBackpressure(t *testing.T) {
	pool := NewPool(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	defer pool.Stop()

	block := make(chan struct{})
	slow := func(ctx context.Context) error {
		<-block
		return nil
	}

	// Primero ocupa el worker, segundo llena la cola
	pool.Dispatch(Job{InstanceID: "i", RemoteJID: "a", Handler: slow})
	time.Sleep(10 * time.Millisecond)
	pool.Dispatch(Job{InstanceID: "i", RemoteJID: "a", Handler: slow})

	accepted := pool.TryDispatch(Job{InstanceID: "i", RemoteJID: "a", Handler: slow})
	assert.False(t, accepted, "cola llena debe rechazar el job")

	close(block)
}
