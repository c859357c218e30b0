package rest

import (
	botDomain "github.com/AzielCF/az-hub/botengine/domain"
	"github.com/AzielCF/az-hub/bridge"
	dispatchApp "github.com/AzielCF/az-hub/dispatch/application"
	dispatchDomain "github.com/AzielCF/az-hub/dispatch/domain"
	instancesApp "github.com/AzielCF/az-hub/instances/application"
	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	mediaApp "github.com/AzielCF/az-hub/media/application"
	messagesDomain "github.com/AzielCF/az-hub/messages/domain"
	tenantsApp "github.com/AzielCF/az-hub/tenants/application"
	tenantsDomain "github.com/AzielCF/az-hub/tenants/domain"
	"github.com/AzielCF/az-hub/ui/rest/middleware"
	webhookApp "github.com/AzielCF/az-hub/webhook/application"
	webhookDomain "github.com/AzielCF/az-hub/webhook/domain"
	"github.com/gofiber/fiber/v2"
)

// AppDeps reúne todo lo que la superficie REST necesita. El cableado
// real vive en cmd; acá solo se montan rutas.
type AppDeps struct {
	AdminKey      string // x-api-key del panel admin
	WebhookAPIKey string // x-api-key que manda el bridge

	Bridge   *bridge.Client
	Sessions *instancesApp.SessionManager

	Instances instancesDomain.InstanceRepository
	Tenants   tenantsDomain.TenantRepository
	Plans     tenantsDomain.PlanRepository
	Messages  messagesDomain.MessageRepository
	ErrorLogs webhookDomain.ErrorLogRepository

	PlanService *tenantsApp.PlanService
	Processor   *webhookApp.Processor
	Media       *mediaApp.MediaService

	Templates      dispatchDomain.TemplateRepository
	ContactGroups  dispatchDomain.GroupRepository
	Campaigns      *dispatchApp.CampaignService
	DispatchWorker *dispatchApp.Worker

	BotConfigs  botDomain.ConfigRepository
	BotContacts botDomain.ContactRepository
	BotCatalog  botDomain.MediaCatalogRepository
}

// InitRestApp monta las tres superficies: admin (x-api-key), northbound
// (bearer de instancia) y el webhook de ingreso del bridge.
func InitRestApp(app fiber.Router, deps AppDeps) {
	InitRestHealth(app, deps.Bridge)

	// Ingreso de eventos del bridge.
	webhookGroup := app.Group("/webhook", middleware.AdminAuth(deps.WebhookAPIKey))
	InitRestWebhook(webhookGroup, deps.Processor)

	// Panel de administración.
	admin := app.Group("/admin", middleware.AdminAuth(deps.AdminKey))
	InitRestTenant(admin, deps.Tenants, deps.Plans, deps.PlanService)
	InitRestInstance(admin, deps.Sessions, deps.Instances)
	InitRestMedia(admin, deps.Media)
	InitRestDispatch(admin, deps.Templates, deps.ContactGroups, deps.Campaigns, deps.DispatchWorker)
	InitRestBot(admin, deps.BotConfigs, deps.BotContacts, deps.BotCatalog, deps.Instances, deps.PlanService)
	InitRestMonitoring(admin, deps.ErrorLogs)

	// API northbound por instancia.
	api := app.Group("/api", middleware.InstanceAuth(deps.Instances, deps.Tenants, deps.PlanService))
	InitRestMessage(api, deps.Bridge)
	InitRestChat(api, deps.Bridge)
	InitRestGroup(api, deps.Bridge)
	InitRestProfile(api, deps.Bridge)
	InitRestHistory(api, deps.Messages)
}
