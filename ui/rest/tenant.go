package rest

import (
	"time"

	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/utils"
	tenantsApp "github.com/AzielCF/az-hub/tenants/application"
	tenantsDomain "github.com/AzielCF/az-hub/tenants/domain"
	"github.com/AzielCF/az-hub/validations"
	"github.com/gofiber/fiber/v2"
)

// Tenant administra cuentas y planes comerciales.
type Tenant struct {
	Tenants tenantsDomain.TenantRepository
	Plans   tenantsDomain.PlanRepository
	Service *tenantsApp.PlanService
}

func InitRestTenant(router fiber.Router, tenants tenantsDomain.TenantRepository, plans tenantsDomain.PlanRepository, service *tenantsApp.PlanService) Tenant {
	rest := Tenant{Tenants: tenants, Plans: plans, Service: service}
	router.Post("/tenants", rest.Create)
	router.Get("/tenants", rest.List)
	router.Get("/tenants/:id", rest.Get)
	router.Put("/tenants/:id", rest.Update)
	router.Delete("/tenants/:id", rest.Delete)
	router.Post("/tenants/:id/plan", rest.AssignPlan)

	router.Post("/plans", rest.CreatePlan)
	router.Get("/plans", rest.ListPlans)
	return rest
}

func (handler *Tenant) Create(c *fiber.Ctx) error {
	var request CreateTenantRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	tenant := &tenantsDomain.Tenant{
		Name:            request.Name,
		Email:           request.Email,
		Phone:           request.Phone,
		ModuleAPI:       request.ModuleAPI,
		ModuleScheduler: request.ModuleScheduler,
		ModuleChatbot:   request.ModuleChatbot,
	}
	utils.PanicIfNeeded(validations.ValidateTenant(c.UserContext(), tenant))
	utils.PanicIfNeeded(handler.Tenants.Create(c.UserContext(), tenant))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tenant created",
		Results: tenant,
	})
}

func (handler *Tenant) List(c *fiber.Ctx) error {
	tenants, err := handler.Tenants.List(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tenants retrieved",
		Results: tenants,
	})
}

func (handler *Tenant) Get(c *fiber.Ctx) error {
	tenant, err := handler.Tenants.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tenant retrieved",
		Results: fiber.Map{
			"tenant":     tenant,
			"plan_valid": handler.Service.IsPlanValid(tenant),
		},
	})
}

func (handler *Tenant) Update(c *fiber.Ctx) error {
	tenant, err := handler.Tenants.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	var request CreateTenantRequest
	err = c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	if request.Name != "" {
		tenant.Name = request.Name
	}
	if request.Email != "" {
		tenant.Email = request.Email
	}
	if request.Phone != "" {
		tenant.Phone = request.Phone
	}
	tenant.ModuleAPI = request.ModuleAPI
	tenant.ModuleScheduler = request.ModuleScheduler
	tenant.ModuleChatbot = request.ModuleChatbot
	utils.PanicIfNeeded(validations.ValidateTenant(c.UserContext(), tenant))
	utils.PanicIfNeeded(handler.Tenants.Update(c.UserContext(), tenant))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tenant updated",
		Results: tenant,
	})
}

func (handler *Tenant) Delete(c *fiber.Ctx) error {
	err := handler.Tenants.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Tenant deleted",
	})
}

func (handler *Tenant) AssignPlan(c *fiber.Ctx) error {
	var request AssignPlanRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)
	if request.PlanID == "" {
		panic(pkgError.ValidationError("plan_id is required"))
	}

	tenant, err := handler.Tenants.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)
	plan, err := handler.Plans.GetByID(c.UserContext(), request.PlanID)
	utils.PanicIfNeeded(err)

	err = handler.Service.AssignPlan(c.UserContext(), tenant, plan, time.Now().UTC())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Plan assigned",
		Results: tenant,
	})
}

func (handler *Tenant) CreatePlan(c *fiber.Ctx) error {
	var request CreatePlanRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	plan := &tenantsDomain.Plan{
		Name:                 request.Name,
		MaxInstances:         request.MaxInstances,
		MaxChatbots:          request.MaxChatbots,
		MonthlyConversations: request.MonthlyConversations,
		DurationKind:         tenantsDomain.DurationKind(request.DurationKind),
		DurationValue:        request.DurationValue,
	}
	utils.PanicIfNeeded(validations.ValidatePlan(c.UserContext(), plan))
	utils.PanicIfNeeded(handler.Plans.Create(c.UserContext(), plan))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Plan created",
		Results: plan,
	})
}

func (handler *Tenant) ListPlans(c *fiber.Ctx) error {
	plans, err := handler.Plans.List(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Plans retrieved",
		Results: plans,
	})
}
