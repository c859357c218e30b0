package application

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/AzielCF/az-hub/bridge"
	coreconfig "github.com/AzielCF/az-hub/core/config"
	"github.com/AzielCF/az-hub/instances/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInstanceRepo implementa el repositorio en memoria para los tests.
type fakeInstanceRepo struct {
	mu        sync.Mutex
	bySession map[string]*domain.Instance
	webhooks  map[string]*domain.WebhookConfig
}

func newFakeInstanceRepo(instances ...*domain.Instance) *fakeInstanceRepo {
	repo := &fakeInstanceRepo{
		bySession: map[string]*domain.Instance{},
		webhooks:  map[string]*domain.WebhookConfig{},
	}
	for _, i := range instances {
		repo.bySession[i.SessionID] = i
	}
	return repo
}

func (f *fakeInstanceRepo) Create(ctx context.Context, i *domain.Instance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i.ID == "" {
		i.ID = "inst_" + i.SessionID
	}
	f.bySession[i.SessionID] = i
	return nil
}

func (f *fakeInstanceRepo) GetByID(ctx context.Context, id string) (*domain.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.bySession {
		if i.ID == id {
			return i, nil
		}
	}
	return nil, pkgError.NotFoundError("instance not found")
}

func (f *fakeInstanceRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.bySession[sessionID]; ok {
		return i, nil
	}
	return nil, pkgError.NotFoundError("instance not found")
}

func (f *fakeInstanceRepo) GetByToken(ctx context.Context, token string) (*domain.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.bySession {
		if i.Token == token && token != "" {
			return i, nil
		}
	}
	return nil, pkgError.NotFoundError("instance not found")
}

func (f *fakeInstanceRepo) Update(ctx context.Context, i *domain.Instance) error {
	return f.Create(ctx, i)
}

func (f *fakeInstanceRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sid, i := range f.bySession {
		if i.ID == id {
			delete(f.bySession, sid)
		}
	}
	return nil
}

func (f *fakeInstanceRepo) ListByOwner(ctx context.Context, tenantID string) ([]*domain.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Instance
	for _, i := range f.bySession {
		if i.TenantID == tenantID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeInstanceRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Instance
	for _, i := range f.bySession {
		out = append(out, i)
	}
	return out, nil
}

func (f *fakeInstanceRepo) CountByOwner(ctx context.Context, tenantID string) (int, error) {
	list, _ := f.ListByOwner(ctx, tenantID)
	return len(list), nil
}

func (f *fakeInstanceRepo) UpdateStatusFields(ctx context.Context, sessionID string, fields domain.StatusFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.bySession[sessionID]
	if !ok {
		return pkgError.NotFoundError("instance not found")
	}
	if fields.Status != nil {
		i.Status = *fields.Status
	}
	if fields.Token != nil {
		i.Token = *fields.Token
	}
	if fields.Phone != nil {
		i.PhoneConnected = *fields.Phone
	}
	i.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeInstanceRepo) GetWebhookConfig(ctx context.Context, instanceID string) (*domain.WebhookConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cfg, ok := f.webhooks[instanceID]; ok {
		return cfg, nil
	}
	return nil, pkgError.NotFoundError("webhook config not found")
}

func (f *fakeInstanceRepo) SaveWebhookConfig(ctx context.Context, cfg *domain.WebhookConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.webhooks[cfg.InstanceID] = cfg
	return nil
}

func newTestBridge(t *testing.T, sessions []map[string]any, started *[]string) *bridge.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/sessions":
			_ = json.NewEncoder(w).Encode(sessions)
		case r.Method == http.MethodPost && r.URL.Path == "/sessions/start":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if started != nil {
				*started = append(*started, body["sessionId"])
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		}
	}))
	t.Cleanup(server.Close)

	cfg := &coreconfig.Config{}
	cfg.Bridge.BaseURL = server.URL
	cfg.Bridge.AdminKey = "admin-key"
	cfg.Bridge.TimeoutSec = 5
	cfg.Bridge.MediaTimeout = 5
	cfg.Bridge.RetryAttempts = 1
	cfg.Bridge.RetryBackoffMs = 1
	return bridge.NewClient(cfg)
}

func TestSweep_SyncsPresentSessions(t *testing.T) {
	repo := newFakeInstanceRepo(&domain.Instance{
		ID: "i1", SessionID: "sess_a", Status: domain.StatusQRScanned,
	})
	client := newTestBridge(t, []map[string]any{
		{"sessionId": "sess_a", "status": "open", "token": "tok-1", "me": map[string]any{"id": "5511999@s.whatsapp.net"}},
	}, nil)

	rec := NewReconciler(repo, client, ReconcilerOptions{SleepPerInstance: time.Millisecond})
	stats, err := rec.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Updated)
	inst, _ := repo.GetBySessionID(context.Background(), "sess_a")
	assert.Equal(t, domain.StatusConnected, inst.Status)
	assert.Equal(t, "tok-1", inst.Token)
}

func TestSweep_ZombieDetection(t *testing.T) {
	// Conectada localmente pero ausente del bridge: zombi.
	repo := newFakeInstanceRepo(&domain.Instance{
		ID: "i1", SessionID: "sess_gone", Status: domain.StatusConnected,
		Token: "stale-token", PhoneConnected: "5511999",
	})
	client := newTestBridge(t, []map[string]any{}, nil)

	rec := NewReconciler(repo, client, ReconcilerOptions{SleepPerInstance: time.Millisecond})
	stats, err := rec.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Zombies)
	inst, _ := repo.GetBySessionID(context.Background(), "sess_gone")
	assert.Equal(t, domain.StatusDisconnected, inst.Status)
	assert.Empty(t, inst.Token, "el token viejo se limpia")
	assert.Empty(t, inst.PhoneConnected)
}

func TestSweep_StartIfMissing(t *testing.T) {
	repo := newFakeInstanceRepo(&domain.Instance{
		ID: "i1", SessionID: "sess_off", Status: domain.StatusDisconnected,
	})
	var started []string
	client := newTestBridge(t, []map[string]any{}, &started)

	rec := NewReconciler(repo, client, ReconcilerOptions{StartIfMissing: true, SleepPerInstance: time.Millisecond})
	stats, err := rec.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Started)
	assert.Equal(t, []string{"sess_off"}, started)
}

func TestSyncToken_PersistsBridgeState(t *testing.T) {
	repo := newFakeInstanceRepo(&domain.Instance{
		ID: "i1", TenantID: "t1", SessionID: "sess_a", Status: domain.StatusDisconnected,
	})
	client := newTestBridge(t, []map[string]any{
		{"sessionId": "sess_a", "status": "open", "sessionToken": "tok-new"},
	}, nil)

	sm := NewSessionManager(repo, nil, nil, client, nil)
	token, ok := sm.SyncToken(context.Background(), "sess_a")

	assert.True(t, ok)
	assert.Equal(t, "tok-new", token)
	inst, _ := repo.GetBySessionID(context.Background(), "sess_a")
	assert.Equal(t, "tok-new", inst.Token)
	assert.Equal(t, domain.StatusConnected, inst.Status)
}

func TestSyncToken_UnknownSession(t *testing.T) {
	repo := newFakeInstanceRepo()
	client := newTestBridge(t, []map[string]any{}, nil)

	sm := NewSessionManager(repo, nil, nil, client, nil)
	token, ok := sm.SyncToken(context.Background(), "sess_missing")

	assert.False(t, ok)
	assert.Empty(t, token)
}
