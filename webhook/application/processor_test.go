package application

import (
	"context"
	"sync"
	"testing"
	"time"

	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	messagesDomain "github.com/AzielCF/az-hub/messages/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/msgworker"
	tenantsDomain "github.com/AzielCF/az-hub/tenants/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeInstances struct {
	mu       sync.Mutex
	instance *instancesDomain.Instance
	webhook  *instancesDomain.WebhookConfig
	updates  []instancesDomain.StatusFields
}

func (f *fakeInstances) Create(ctx context.Context, i *instancesDomain.Instance) error { return nil }
func (f *fakeInstances) GetByID(ctx context.Context, id string) (*instancesDomain.Instance, error) {
	return f.instance, nil
}
func (f *fakeInstances) GetBySessionID(ctx context.Context, sessionID string) (*instancesDomain.Instance, error) {
	if f.instance != nil && f.instance.SessionID == sessionID {
		return f.instance, nil
	}
	return nil, pkgError.NotFoundError("instance not found")
}
func (f *fakeInstances) GetByToken(ctx context.Context, token string) (*instancesDomain.Instance, error) {
	return nil, pkgError.NotFoundError("instance not found")
}
func (f *fakeInstances) Update(ctx context.Context, i *instancesDomain.Instance) error { return nil }
func (f *fakeInstances) Delete(ctx context.Context, id string) error                   { return nil }
func (f *fakeInstances) ListByOwner(ctx context.Context, tenantID string) ([]*instancesDomain.Instance, error) {
	return nil, nil
}
func (f *fakeInstances) List(ctx context.Context, filter instancesDomain.ListFilter) ([]*instancesDomain.Instance, error) {
	return nil, nil
}
func (f *fakeInstances) CountByOwner(ctx context.Context, tenantID string) (int, error) {
	return 0, nil
}
func (f *fakeInstances) UpdateStatusFields(ctx context.Context, sessionID string, fields instancesDomain.StatusFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, fields)
	if fields.Status != nil {
		f.instance.Status = *fields.Status
	}
	if fields.Token != nil {
		f.instance.Token = *fields.Token
	}
	if fields.Phone != nil {
		f.instance.PhoneConnected = *fields.Phone
	}
	return nil
}
func (f *fakeInstances) GetWebhookConfig(ctx context.Context, instanceID string) (*instancesDomain.WebhookConfig, error) {
	if f.webhook == nil {
		return nil, pkgError.NotFoundError("webhook config not found")
	}
	return f.webhook, nil
}
func (f *fakeInstances) SaveWebhookConfig(ctx context.Context, cfg *instancesDomain.WebhookConfig) error {
	return nil
}

type fakeTenants struct{ tenant *tenantsDomain.Tenant }

func (f *fakeTenants) Create(ctx context.Context, t *tenantsDomain.Tenant) error { return nil }
func (f *fakeTenants) GetByID(ctx context.Context, id string) (*tenantsDomain.Tenant, error) {
	return f.tenant, nil
}
func (f *fakeTenants) Update(ctx context.Context, t *tenantsDomain.Tenant) error { return nil }
func (f *fakeTenants) Delete(ctx context.Context, id string) error               { return nil }
func (f *fakeTenants) List(ctx context.Context) ([]*tenantsDomain.Tenant, error) {
	return nil, nil
}

type fakeMessages struct {
	mu    sync.Mutex
	saved []*messagesDomain.Message
}

func (f *fakeMessages) Save(ctx context.Context, m *messagesDomain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, prev := range f.saved {
		if prev.WAMID == m.WAMID && prev.InstanceID == m.InstanceID {
			return nil
		}
	}
	f.saved = append(f.saved, m)
	return nil
}
func (f *fakeMessages) Recent(ctx context.Context, instanceID, remoteJID string, limit int) ([]messagesDomain.HistoryEntry, error) {
	return nil, nil
}
func (f *fakeMessages) List(ctx context.Context, instanceID, remoteJID string, limit, offset int) ([]*messagesDomain.Message, error) {
	return nil, nil
}
func (f *fakeMessages) DeleteByInstance(ctx context.Context, instanceID string) error { return nil }

type planOK bool

func (p planOK) IsPlanValid(*tenantsDomain.Tenant) bool { return bool(p) }

type fakeEngine struct {
	mu     sync.Mutex
	events []*InboundMessage
	seen   chan struct{}
}

func (f *fakeEngine) HandleInbound(ctx context.Context, instance *instancesDomain.Instance, inbound *InboundMessage) {
	f.mu.Lock()
	f.events = append(f.events, inbound)
	f.mu.Unlock()
	if f.seen != nil {
		f.seen <- struct{}{}
	}
}

type fakeHealer struct{ calls int }

func (f *fakeHealer) SyncToken(ctx context.Context, sessionID string) (string, bool) {
	f.calls++
	return "healed", true
}

// --- helpers ---

func newProcessor(t *testing.T, instances *fakeInstances, engine *fakeEngine, planValid bool, healer *fakeHealer) *Processor {
	t.Helper()
	pool := msgworker.NewPool(2, 16)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	return NewProcessor(ProcessorDeps{
		Instances: instances,
		Tenants:   &fakeTenants{tenant: &tenantsDomain.Tenant{ID: "t1", PlanID: "p1"}},
		Messages:  &fakeMessages{},
		Plans:     planOK(planValid),
		Healer:    healer,
		Engine:    engine,
		Pool:      pool,
	})
}

func connectedInstance() *instancesDomain.Instance {
	return &instancesDomain.Instance{
		ID: "i1", TenantID: "t1", SessionID: "sess_a",
		Status: instancesDomain.StatusDisconnected,
	}
}

// --- tests ---

func TestProcess_UnknownSessionIgnored(t *testing.T) {
	p := newProcessor(t, &fakeInstances{}, nil, true, nil)
	res := p.Process(context.Background(), "message", "sess_missing", map[string]any{})
	assert.Equal(t, StatusIgnored, res.Status)
	assert.Equal(t, 404, res.Code)
}

func TestProcess_PlanExpiredSkipsState(t *testing.T) {
	instances := &fakeInstances{instance: connectedInstance()}
	p := newProcessor(t, instances, nil, false, nil)

	res := p.Process(context.Background(), "connection.update", "sess_a", map[string]any{"status": "open"})
	assert.Equal(t, StatusPlanExpired, res.Status)
	assert.Equal(t, 200, res.Code)
	assert.Empty(t, instances.updates, "con plan vencido no se toca el estado")
}

func TestProcess_SessionUpdateNormalizesStatus(t *testing.T) {
	instances := &fakeInstances{instance: connectedInstance()}
	instances.instance.Token = "tok"
	p := newProcessor(t, instances, nil, true, nil)

	res := p.Process(context.Background(), "connection.update", "sess_a", map[string]any{
		"status": "open",
		"me":     map[string]any{"id": "5511999:12@s.whatsapp.net"},
	})

	require.Equal(t, StatusProcessed, res.Status)
	require.Len(t, instances.updates, 1)
	assert.Equal(t, instancesDomain.StatusConnected, instances.instance.Status)
	assert.Equal(t, "5511999", instances.instance.PhoneConnected, "el teléfono se corta antes de ':'")
}

func TestProcess_ConnectedWithoutTokenTriggersHeal(t *testing.T) {
	instances := &fakeInstances{instance: connectedInstance()}
	healer := &fakeHealer{}
	p := newProcessor(t, instances, nil, true, healer)

	p.Process(context.Background(), "connection.update", "sess_a", map[string]any{"status": "open"})
	assert.Equal(t, 1, healer.calls)
}

func TestProcess_QRWithoutConnectionMarksQRScanned(t *testing.T) {
	instances := &fakeInstances{instance: connectedInstance()}
	p := newProcessor(t, instances, nil, true, &fakeHealer{})

	p.Process(context.Background(), "qr", "sess_a", map[string]any{"qrCode": "data:image/png;base64,xxx"})
	assert.Equal(t, instancesDomain.StatusQRScanned, instances.instance.Status)
}

func TestProcess_MessagePersistsAndTriggersEngine(t *testing.T) {
	instances := &fakeInstances{instance: connectedInstance()}
	engine := &fakeEngine{seen: make(chan struct{}, 1)}
	p := newProcessor(t, instances, engine, true, nil)

	res := p.Process(context.Background(), "message", "sess_a", map[string]any{
		"key": map[string]any{
			"remoteJid": "5511999@s.whatsapp.net",
			"id":        "WAMID-1",
			"fromMe":    false,
		},
		"message": map[string]any{"conversation": "hola"},
	})
	require.Equal(t, StatusProcessed, res.Status)

	select {
	case <-engine.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("el motor nunca recibió el evento")
	}
	engine.mu.Lock()
	defer engine.mu.Unlock()
	require.Len(t, engine.events, 1)
	assert.Equal(t, "hola", engine.events[0].Content)
}

func TestProcess_OwnMessagesSkipEngine(t *testing.T) {
	instances := &fakeInstances{instance: connectedInstance()}
	engine := &fakeEngine{}
	p := newProcessor(t, instances, engine, true, nil)

	p.Process(context.Background(), "message", "sess_a", map[string]any{
		"key": map[string]any{
			"remoteJid": "5511999@s.whatsapp.net",
			"id":        "WAMID-2",
			"fromMe":    true,
		},
		"message": map[string]any{"conversation": "respuesta propia"},
	})

	time.Sleep(50 * time.Millisecond)
	engine.mu.Lock()
	defer engine.mu.Unlock()
	assert.Empty(t, engine.events, "los mensajes propios no disparan el bot")
}

func TestShouldForward_FlagGating(t *testing.T) {
	cfg := &instancesDomain.WebhookConfig{URL: "https://example.com/hook", SendMessages: true}

	assert.True(t, ShouldForward(cfg, "message"))
	assert.False(t, ShouldForward(cfg, "presence"), "send_presence apagado")
	assert.True(t, ShouldForward(cfg, "connection.update"), "connection.update siempre pasa")
	assert.False(t, ShouldForward(&instancesDomain.WebhookConfig{}, "message"), "sin URL no hay fan-out")
}
