package chatpresence

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PingInterval is how often the composing state is re-posted to the bridge
// while a reply is being prepared. WhatsApp drops the typing indicator after
// a few seconds of silence, so the keepalive re-arms it.
const PingInterval = 1200 * time.Millisecond

// SetStateFunc posts a presence state ("composing" or "paused") for a chat.
type SetStateFunc func(ctx context.Context, state string) error

// Keepalive re-posts composing presence on a fixed interval until stopped.
// Stop always emits a final paused state.
type Keepalive struct {
	set      SetStateFunc
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// Start posts composing immediately and keeps re-posting every PingInterval.
func Start(ctx context.Context, set SetStateFunc) *Keepalive {
	k := &Keepalive{
		set:    set,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(k.done)
		if err := set(ctx, "composing"); err != nil {
			logrus.Debugf("[PRESENCE] composing ping failed: %v", err)
		}
		ticker := time.NewTicker(PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-k.stopCh:
				return
			case <-ticker.C:
				if err := set(ctx, "composing"); err != nil {
					logrus.Debugf("[PRESENCE] composing ping failed: %v", err)
				}
			}
		}
	}()

	return k
}

// Stop halts the keepalive and posts paused. Safe to call more than once.
func (k *Keepalive) Stop(ctx context.Context) {
	k.stopOnce.Do(func() {
		close(k.stopCh)
		<-k.done
		if err := k.set(ctx, "paused"); err != nil {
			logrus.Debugf("[PRESENCE] paused failed: %v", err)
		}
	})
}
