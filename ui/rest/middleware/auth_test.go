package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	tenantsDomain "github.com/AzielCF/az-hub/tenants/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authInstances struct {
	instance *instancesDomain.Instance
}

func (f *authInstances) Create(ctx context.Context, i *instancesDomain.Instance) error { return nil }
func (f *authInstances) GetByID(ctx context.Context, id string) (*instancesDomain.Instance, error) {
	return f.instance, nil
}
func (f *authInstances) GetBySessionID(ctx context.Context, sessionID string) (*instancesDomain.Instance, error) {
	return f.instance, nil
}
func (f *authInstances) GetByToken(ctx context.Context, token string) (*instancesDomain.Instance, error) {
	if f.instance != nil && f.instance.Token == token {
		return f.instance, nil
	}
	return nil, pkgError.NotFoundError("instance not found")
}
func (f *authInstances) Update(ctx context.Context, i *instancesDomain.Instance) error { return nil }
func (f *authInstances) Delete(ctx context.Context, id string) error                   { return nil }
func (f *authInstances) ListByOwner(ctx context.Context, tenantID string) ([]*instancesDomain.Instance, error) {
	return nil, nil
}
func (f *authInstances) List(ctx context.Context, filter instancesDomain.ListFilter) ([]*instancesDomain.Instance, error) {
	return nil, nil
}
func (f *authInstances) CountByOwner(ctx context.Context, tenantID string) (int, error) {
	return 0, nil
}
func (f *authInstances) UpdateStatusFields(ctx context.Context, sessionID string, fields instancesDomain.StatusFields) error {
	return nil
}
func (f *authInstances) GetWebhookConfig(ctx context.Context, instanceID string) (*instancesDomain.WebhookConfig, error) {
	return nil, pkgError.NotFoundError("no webhook config")
}
func (f *authInstances) SaveWebhookConfig(ctx context.Context, cfg *instancesDomain.WebhookConfig) error {
	return nil
}

type authTenants struct {
	tenant *tenantsDomain.Tenant
}

func (f *authTenants) Create(ctx context.Context, t *tenantsDomain.Tenant) error { return nil }
func (f *authTenants) GetByID(ctx context.Context, id string) (*tenantsDomain.Tenant, error) {
	if f.tenant != nil && f.tenant.ID == id {
		return f.tenant, nil
	}
	return nil, pkgError.NotFoundError("tenant not found")
}
func (f *authTenants) Update(ctx context.Context, t *tenantsDomain.Tenant) error { return nil }
func (f *authTenants) Delete(ctx context.Context, id string) error               { return nil }
func (f *authTenants) List(ctx context.Context) ([]*tenantsDomain.Tenant, error) { return nil, nil }

type authPlans struct{ valid bool }

func (f authPlans) IsPlanValid(tenant *tenantsDomain.Tenant) bool { return f.valid }

func newAuthTestApp(moduleAPI, planValid bool) *fiber.App {
	instances := &authInstances{instance: &instancesDomain.Instance{
		ID:        "inst-1",
		TenantID:  "tenant-1",
		SessionID: "sess-abc123",
		Token:     "instance-token",
	}}
	tenants := &authTenants{tenant: &tenantsDomain.Tenant{ID: "tenant-1", ModuleAPI: moduleAPI}}

	app := fiber.New()
	api := app.Group("/api", InstanceAuth(instances, tenants, authPlans{valid: planValid}))
	api.Get("/whoami", func(c *fiber.Ctx) error {
		instance := InstanceFromCtx(c)
		tenant := TenantFromCtx(c)
		if instance == nil || tenant == nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"instance": instance.ID, "tenant": tenant.ID})
	})
	return app
}

func getWhoami(t *testing.T, app *fiber.App, authHeader string) int {
	t.Helper()
	req := httptest.NewRequest("GET", "/api/whoami", nil)
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()
	return res.StatusCode
}

func TestInstanceAuthRejectsMissingToken(t *testing.T) {
	app := newAuthTestApp(true, true)
	assert.Equal(t, fiber.StatusUnauthorized, getWhoami(t, app, ""))
	assert.Equal(t, fiber.StatusUnauthorized, getWhoami(t, app, "Basic abc"))
}

func TestInstanceAuthRejectsUnknownToken(t *testing.T) {
	app := newAuthTestApp(true, true)
	assert.Equal(t, fiber.StatusUnauthorized, getWhoami(t, app, "Bearer not-a-token"))
}

func TestInstanceAuthRejectsInvalidPlan(t *testing.T) {
	app := newAuthTestApp(true, false)
	assert.Equal(t, fiber.StatusForbidden, getWhoami(t, app, "Bearer instance-token"))
}

func TestInstanceAuthRejectsDisabledAPIModule(t *testing.T) {
	app := newAuthTestApp(false, true)
	assert.Equal(t, fiber.StatusForbidden, getWhoami(t, app, "Bearer instance-token"))
}

func TestInstanceAuthResolvesInstanceAndTenant(t *testing.T) {
	app := newAuthTestApp(true, true)
	assert.Equal(t, fiber.StatusOK, getWhoami(t, app, "Bearer instance-token"))
}

func TestAdminAuthChecksSharedKey(t *testing.T) {
	app := fiber.New()
	admin := app.Group("/admin", AdminAuth("secret-key"))
	admin.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	req = httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("x-api-key", "secret-key")
	res, err = app.Test(req, -1)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}
