package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	messagesDomain "github.com/AzielCF/az-hub/messages/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	tenantsDomain "github.com/AzielCF/az-hub/tenants/domain"
	"github.com/AzielCF/az-hub/ui/rest/middleware"
	webhookApp "github.com/AzielCF/az-hub/webhook/application"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookKey = "hub-hook-key"

// --- fakes ---

type hookInstances struct {
	instance *instancesDomain.Instance
	updates  []instancesDomain.StatusFields
}

func (f *hookInstances) Create(ctx context.Context, i *instancesDomain.Instance) error { return nil }
func (f *hookInstances) GetByID(ctx context.Context, id string) (*instancesDomain.Instance, error) {
	return f.instance, nil
}
func (f *hookInstances) GetBySessionID(ctx context.Context, sessionID string) (*instancesDomain.Instance, error) {
	if f.instance != nil && f.instance.SessionID == sessionID {
		return f.instance, nil
	}
	return nil, pkgError.NotFoundError("instance not found")
}
func (f *hookInstances) GetByToken(ctx context.Context, token string) (*instancesDomain.Instance, error) {
	return nil, pkgError.NotFoundError("instance not found")
}
func (f *hookInstances) Update(ctx context.Context, i *instancesDomain.Instance) error { return nil }
func (f *hookInstances) Delete(ctx context.Context, id string) error                   { return nil }
func (f *hookInstances) ListByOwner(ctx context.Context, tenantID string) ([]*instancesDomain.Instance, error) {
	return nil, nil
}
func (f *hookInstances) List(ctx context.Context, filter instancesDomain.ListFilter) ([]*instancesDomain.Instance, error) {
	return nil, nil
}
func (f *hookInstances) CountByOwner(ctx context.Context, tenantID string) (int, error) {
	return 0, nil
}
func (f *hookInstances) UpdateStatusFields(ctx context.Context, sessionID string, fields instancesDomain.StatusFields) error {
	f.updates = append(f.updates, fields)
	if fields.Status != nil {
		f.instance.Status = *fields.Status
	}
	return nil
}
func (f *hookInstances) GetWebhookConfig(ctx context.Context, instanceID string) (*instancesDomain.WebhookConfig, error) {
	return nil, pkgError.NotFoundError("no webhook config")
}
func (f *hookInstances) SaveWebhookConfig(ctx context.Context, cfg *instancesDomain.WebhookConfig) error {
	return nil
}

type hookTenants struct {
	tenant *tenantsDomain.Tenant
}

func (f *hookTenants) Create(ctx context.Context, t *tenantsDomain.Tenant) error { return nil }
func (f *hookTenants) GetByID(ctx context.Context, id string) (*tenantsDomain.Tenant, error) {
	if f.tenant != nil && f.tenant.ID == id {
		return f.tenant, nil
	}
	return nil, pkgError.NotFoundError("tenant not found")
}
func (f *hookTenants) Update(ctx context.Context, t *tenantsDomain.Tenant) error { return nil }
func (f *hookTenants) Delete(ctx context.Context, id string) error               { return nil }
func (f *hookTenants) List(ctx context.Context) ([]*tenantsDomain.Tenant, error) {
	return nil, nil
}

type hookMessages struct {
	saved []*messagesDomain.Message
}

func (f *hookMessages) Save(ctx context.Context, m *messagesDomain.Message) error {
	f.saved = append(f.saved, m)
	return nil
}
func (f *hookMessages) Recent(ctx context.Context, instanceID, remoteJID string, limit int) ([]messagesDomain.HistoryEntry, error) {
	return nil, nil
}
func (f *hookMessages) List(ctx context.Context, instanceID, remoteJID string, limit, offset int) ([]*messagesDomain.Message, error) {
	return nil, nil
}
func (f *hookMessages) DeleteByInstance(ctx context.Context, instanceID string) error { return nil }

type hookPlans struct{ valid bool }

func (f hookPlans) IsPlanValid(tenant *tenantsDomain.Tenant) bool { return f.valid }

// --- helpers ---

func newWebhookTestApp(planValid bool) (*fiber.App, *hookInstances, *hookMessages) {
	instances := &hookInstances{instance: &instancesDomain.Instance{
		ID:        "inst-1",
		TenantID:  "tenant-1",
		SessionID: "sess-abc123",
		Status:    instancesDomain.StatusDisconnected,
	}}
	tenants := &hookTenants{tenant: &tenantsDomain.Tenant{ID: "tenant-1", ModuleAPI: true}}
	messages := &hookMessages{}

	processor := webhookApp.NewProcessor(webhookApp.ProcessorDeps{
		Instances: instances,
		Tenants:   tenants,
		Messages:  messages,
		Plans:     hookPlans{valid: planValid},
	})

	app := fiber.New()
	app.Use(middleware.Recovery())
	group := app.Group("/webhook", middleware.AdminAuth(testWebhookKey))
	InitRestWebhook(group, processor)
	return app, instances, messages
}

func postFrame(t *testing.T, app *fiber.App, apiKey, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook/node", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var parsed map[string]any
	_ = json.Unmarshal(raw, &parsed)
	return res.StatusCode, parsed
}

// --- tests ---

func TestWebhookIngestRejectsBadAPIKey(t *testing.T) {
	app, _, _ := newWebhookTestApp(true)

	code, body := postFrame(t, app, "wrong-key", `{"type":"message","sessionId":"sess-abc123","data":{}}`)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "AUTH_DENIED", body["code"])

	code, _ = postFrame(t, app, "", `{"type":"message","sessionId":"sess-abc123","data":{}}`)
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestWebhookIngestRequiresSessionAndType(t *testing.T) {
	app, _, _ := newWebhookTestApp(true)

	code, body := postFrame(t, app, testWebhookKey, `{"type":"message","data":{}}`)
	assert.Equal(t, fiber.StatusBadGateway, code)
	assert.Equal(t, "WEBHOOK_ERROR", body["code"])

	code, body = postFrame(t, app, testWebhookKey, `{"sessionId":"sess-abc123","data":{}}`)
	assert.Equal(t, fiber.StatusBadGateway, code)
	assert.Equal(t, "WEBHOOK_ERROR", body["code"])
}

func TestWebhookIngestIgnoresUnknownSession(t *testing.T) {
	app, _, _ := newWebhookTestApp(true)

	code, body := postFrame(t, app, testWebhookKey, `{"type":"message","sessionId":"sess-nope","data":{}}`)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, webhookApp.StatusIgnored, body["status"])
}

func TestWebhookIngestIgnoresExpiredPlan(t *testing.T) {
	app, instances, messages := newWebhookTestApp(false)

	frame := `{"type":"message","sessionId":"sess-abc123","data":{"key":{"id":"wamid.1","remoteJid":"123@s.whatsapp.net"},"message":{"conversation":"hola"}}}`
	code, body := postFrame(t, app, testWebhookKey, frame)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, webhookApp.StatusPlanExpired, body["status"])
	assert.Empty(t, messages.saved)
	assert.Empty(t, instances.updates)
}

func TestWebhookIngestProcessesSessionUpdate(t *testing.T) {
	app, instances, _ := newWebhookTestApp(true)

	frame := `{"type":"connection.update","sessionId":"sess-abc123","data":{"status":"CONNECTED","me":{"id":"5215512345678:12"},"token":"tok-new"}}`
	code, body := postFrame(t, app, testWebhookKey, frame)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, webhookApp.StatusProcessed, body["status"])

	require.Len(t, instances.updates, 1)
	update := instances.updates[0]
	require.NotNil(t, update.Status)
	assert.Equal(t, instancesDomain.StatusConnected, *update.Status)
	require.NotNil(t, update.Token)
	assert.Equal(t, "tok-new", *update.Token)
	require.NotNil(t, update.Phone)
	assert.Equal(t, "5215512345678", *update.Phone)
}
