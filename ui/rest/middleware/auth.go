package middleware

import (
	"strings"

	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/utils"
	tenantsDomain "github.com/AzielCF/az-hub/tenants/domain"
	"github.com/gofiber/fiber/v2"
)

// Claves bajo las que el middleware deja la instancia y el tenant resueltos
// para los handlers northbound.
const (
	LocalInstance = "auth_instance"
	LocalTenant   = "auth_tenant"
)

// PlanChecker is the slice of the plan service the auth layer needs.
type PlanChecker interface {
	IsPlanValid(tenant *tenantsDomain.Tenant) bool
}

// InstanceAuth resuelve el bearer a una instancia y exige tenant con plan
// vigente y módulo API habilitado. Todo lo northbound pasa por acá.
func InstanceAuth(instances instancesDomain.InstanceRepository, tenants tenantsDomain.TenantRepository, plans PlanChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(utils.ResponseData{
				Status:  fiber.StatusUnauthorized,
				Code:    "AUTH_DENIED",
				Message: "missing bearer token",
			})
		}

		instance, err := instances.GetByToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(utils.ResponseData{
				Status:  fiber.StatusUnauthorized,
				Code:    "AUTH_DENIED",
				Message: "unknown instance token",
			})
		}

		tenant, err := tenants.GetByID(c.UserContext(), instance.TenantID)
		if err != nil || !plans.IsPlanValid(tenant) {
			return c.Status(fiber.StatusForbidden).JSON(utils.ResponseData{
				Status:  fiber.StatusForbidden,
				Code:    pkgError.PlanDeniedError("").ErrCode(),
				Message: "tenant plan is not valid",
			})
		}
		if !tenant.ModuleAPI {
			return c.Status(fiber.StatusForbidden).JSON(utils.ResponseData{
				Status:  fiber.StatusForbidden,
				Code:    pkgError.PlanDeniedError("").ErrCode(),
				Message: "API module is not enabled for this account",
			})
		}

		c.Locals(LocalInstance, instance)
		c.Locals(LocalTenant, tenant)
		return c.Next()
	}
}

// AdminAuth protege las rutas de administración (incluido el webhook del
// bridge) con la API key compartida.
func AdminAuth(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" || c.Get("x-api-key") != apiKey {
			return c.Status(fiber.StatusUnauthorized).JSON(utils.ResponseData{
				Status:  fiber.StatusUnauthorized,
				Code:    "AUTH_DENIED",
				Message: "invalid api key",
			})
		}
		return c.Next()
	}
}

// InstanceFromCtx recupera la instancia dejada por InstanceAuth.
func InstanceFromCtx(c *fiber.Ctx) *instancesDomain.Instance {
	instance, _ := c.Locals(LocalInstance).(*instancesDomain.Instance)
	return instance
}

// TenantFromCtx recupera el tenant dejado por InstanceAuth.
func TenantFromCtx(c *fiber.Ctx) *tenantsDomain.Tenant {
	tenant, _ := c.Locals(LocalTenant).(*tenantsDomain.Tenant)
	return tenant
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
