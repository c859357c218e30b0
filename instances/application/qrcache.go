package application

import (
	"context"
	"sync"
	"time"

	"github.com/AzielCF/az-hub/infrastructure/valkey"
	"github.com/sirupsen/logrus"
)

// DefaultQRTTL matches the bridge's QR refresh cycle with some slack.
const DefaultQRTTL = 60 * time.Second

// QRCache stores the last QR image per session for the UI, transiently.
type QRCache interface {
	Put(ctx context.Context, sessionID, qr string)
	Get(ctx context.Context, sessionID string) string
	Delete(ctx context.Context, sessionID string)
}

// --- Valkey-backed cache ---

type valkeyQRCache struct {
	client *valkey.Client
	ttl    time.Duration
}

func NewValkeyQRCache(client *valkey.Client, ttl time.Duration) QRCache {
	if ttl <= 0 {
		ttl = DefaultQRTTL
	}
	return &valkeyQRCache{client: client, ttl: ttl}
}

func (c *valkeyQRCache) Put(ctx context.Context, sessionID, qr string) {
	if err := c.client.SetEx(ctx, c.client.Key("qr", sessionID), qr, c.ttl); err != nil {
		logrus.Warnf("[QR-CACHE] Put %s failed: %v", sessionID, err)
	}
}

func (c *valkeyQRCache) Get(ctx context.Context, sessionID string) string {
	val, err := c.client.Get(ctx, c.client.Key("qr", sessionID))
	if err != nil {
		logrus.Warnf("[QR-CACHE] Get %s failed: %v", sessionID, err)
		return ""
	}
	return val
}

func (c *valkeyQRCache) Delete(ctx context.Context, sessionID string) {
	_ = c.client.Del(ctx, c.client.Key("qr", sessionID))
}

// --- In-memory fallback (single process, sin Valkey configurado) ---

type memoryQREntry struct {
	qr        string
	expiresAt time.Time
}

type memoryQRCache struct {
	mu      sync.Mutex
	entries map[string]memoryQREntry
	ttl     time.Duration
}

func NewMemoryQRCache() QRCache {
	return &memoryQRCache{
		entries: make(map[string]memoryQREntry),
		ttl:     DefaultQRTTL,
	}
}

func (c *memoryQRCache) Put(_ context.Context, sessionID, qr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[sessionID] = memoryQREntry{qr: qr, expiresAt: time.Now().Add(c.ttl)}
}

func (c *memoryQRCache) Get(_ context.Context, sessionID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[sessionID]
	if !ok {
		return ""
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, sessionID)
		return ""
	}
	return entry.qr
}

func (c *memoryQRCache) Delete(_ context.Context, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
}
