package rest

import (
	"time"

	botDomain "github.com/AzielCF/az-hub/botengine/domain"
	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/timeutils"
	"github.com/AzielCF/az-hub/pkg/utils"
	tenantsApp "github.com/AzielCF/az-hub/tenants/application"
	"github.com/AzielCF/az-hub/validations"
	"github.com/gofiber/fiber/v2"
)

// Bot administra la configuración de chatbots, sus contactos y el
// catálogo de medios accesible por la IA.
type Bot struct {
	Configs   botDomain.ConfigRepository
	Contacts  botDomain.ContactRepository
	Catalog   botDomain.MediaCatalogRepository
	Instances instancesDomain.InstanceRepository
	Plans     *tenantsApp.PlanService
}

func InitRestBot(router fiber.Router, configs botDomain.ConfigRepository, contacts botDomain.ContactRepository, catalog botDomain.MediaCatalogRepository, instances instancesDomain.InstanceRepository, plans *tenantsApp.PlanService) Bot {
	rest := Bot{Configs: configs, Contacts: contacts, Catalog: catalog, Instances: instances, Plans: plans}

	router.Post("/chatbots", rest.Create)
	router.Get("/chatbots", rest.List)
	router.Get("/chatbots/:id", rest.Get)
	router.Put("/chatbots/:id", rest.Update)
	router.Delete("/chatbots/:id", rest.Delete)

	router.Get("/chatbots/:id/contacts", rest.ListContacts)
	router.Put("/chatbots/:id/contacts/:jid", rest.UpdateContact)

	router.Get("/chatbots/:id/catalog", rest.ListCatalog)
	router.Post("/chatbots/:id/catalog", rest.AddCatalogEntry)
	router.Put("/chatbots/:id/catalog/:entryId", rest.UpdateCatalogEntry)
	router.Delete("/chatbots/:id/catalog/:entryId", rest.RemoveCatalogEntry)
	return rest
}

func (handler *Bot) Create(c *fiber.Ctx) error {
	var request UpsertChatbotRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)
	if request.InstanceID == "" {
		panic(pkgError.ValidationError("instance_id is required"))
	}

	instance, err := handler.Instances.GetByID(c.UserContext(), request.InstanceID)
	utils.PanicIfNeeded(err)

	tenant, err := handler.Plans.GetTenant(c.UserContext(), instance.TenantID)
	utils.PanicIfNeeded(err)
	if !tenant.ModuleChatbot {
		panic(pkgError.PlanDeniedError("chatbot module is not enabled for this account"))
	}
	allowed, err := handler.Plans.CanCreateChatbot(c.UserContext(), tenant)
	utils.PanicIfNeeded(err)
	if !allowed {
		panic(pkgError.PlanDeniedError("chatbot limit reached for the current plan"))
	}

	if existing, err := handler.Configs.GetByInstance(c.UserContext(), instance.ID); err == nil && existing != nil {
		panic(pkgError.ConflictError("instance already has a chatbot"))
	}

	cfg := &botDomain.ChatbotConfig{
		TenantID:   instance.TenantID,
		InstanceID: instance.ID,
	}
	applyChatbotRequest(cfg, &request)
	utils.PanicIfNeeded(validations.ValidateChatbotConfig(c.UserContext(), cfg))
	utils.PanicIfNeeded(handler.Configs.Create(c.UserContext(), cfg))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Chatbot created",
		Results: cfg,
	})
}

func (handler *Bot) List(c *fiber.Ctx) error {
	configs, err := handler.Configs.ListByOwner(c.UserContext(), requiredTenantID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Chatbots retrieved",
		Results: configs,
	})
}

func (handler *Bot) Get(c *fiber.Ctx) error {
	cfg, err := handler.Configs.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Chatbot retrieved",
		Results: cfg,
	})
}

func (handler *Bot) Update(c *fiber.Ctx) error {
	cfg, err := handler.Configs.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	var request UpsertChatbotRequest
	err = c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	applyChatbotRequest(cfg, &request)
	utils.PanicIfNeeded(validations.ValidateChatbotConfig(c.UserContext(), cfg))
	utils.PanicIfNeeded(handler.Configs.Update(c.UserContext(), cfg))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Chatbot updated",
		Results: cfg,
	})
}

func (handler *Bot) Delete(c *fiber.Ctx) error {
	err := handler.Configs.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Chatbot deleted",
	})
}

// applyChatbotRequest vuelca el request sobre la config. Los punteros
// distinguen "no enviado" de "apagar"; los strings vacíos no pisan.
func applyChatbotRequest(cfg *botDomain.ChatbotConfig, request *UpsertChatbotRequest) {
	if request.Active != nil {
		cfg.Active = *request.Active
	}
	if request.TriggerOnUnknown != nil {
		cfg.TriggerOnUnknown = *request.TriggerOnUnknown
	}
	if request.RespondInGroups != nil {
		cfg.RespondInGroups = *request.RespondInGroups
	}
	if request.AllowMedia != nil {
		cfg.AllowMedia = *request.AllowMedia
	}
	if request.SimulateTyping != nil {
		cfg.SimulateTyping = *request.SimulateTyping
	}

	if request.CompanyName != "" {
		cfg.CompanyName = request.CompanyName
	}
	if request.WebsiteURL != "" {
		cfg.CompanyWebsite = request.WebsiteURL
	}
	if request.Personality != "" {
		cfg.Persona = request.Personality
	}
	if request.Tone != "" {
		cfg.Tone = request.Tone
	}
	if request.Segment != "" {
		cfg.Segment = request.Segment
	}
	if request.Summary != "" {
		cfg.BusinessSummary = request.Summary
	}
	if request.OpeningHours != "" {
		cfg.BusinessHours = request.OpeningHours
	}
	if request.BusinessContext != "" {
		cfg.ContextInfo = request.BusinessContext
	}
	if request.Skills != "" {
		cfg.Skills = request.Skills
	}
	if request.Extras != "" {
		cfg.Extras = request.Extras
	}
	if request.InternalNotes != "" {
		cfg.InternalNotes = request.InternalNotes
	}

	if request.Provider != "" {
		cfg.Provider = botDomain.ProviderKind(request.Provider)
	}
	if request.Model != "" {
		cfg.Model = request.Model
	}
	if request.APIKey != "" {
		cfg.APIKey = request.APIKey
	}

	if request.TypingMinMs > 0 {
		cfg.TypingMinMs = request.TypingMinMs
	}
	if request.TypingMaxMs > 0 {
		cfg.TypingMaxMs = request.TypingMaxMs
	}
	if request.HistoryLimit > 0 {
		cfg.HistoryLimit = request.HistoryLimit
		cfg.UseHistory = true
	}
	if request.ConversationsLimit > 0 {
		cfg.ConversationsLimit = request.ConversationsLimit
	}
	if request.TokenLimit > 0 {
		cfg.TokenLimit = request.TokenLimit
	}
	if request.Periodicity != "" {
		cfg.Periodicity = timeutils.PeriodKind(request.Periodicity)
	}

	if request.Transfers != nil {
		transfers := make([]botDomain.TransferTarget, 0, len(request.Transfers))
		for _, t := range request.Transfers {
			transfers = append(transfers, botDomain.TransferTarget{
				Label:  t.Label,
				Number: t.Number,
				Active: t.Active,
			})
		}
		cfg.Transfers = transfers
	}
}

// --- Contactos ---

func (handler *Bot) ListContacts(c *fiber.Ctx) error {
	contacts, err := handler.Contacts.ListByConfig(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Contacts retrieved",
		Results: contacts,
	})
}

func (handler *Bot) UpdateContact(c *fiber.Ctx) error {
	var request ContactUpdateRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	contact, err := handler.Contacts.Get(c.UserContext(), c.Params("id"), c.Params("jid"))
	utils.PanicIfNeeded(err)

	if request.IsBlocked != nil {
		contact.IsBlocked = *request.IsBlocked
	}
	if request.Notes != nil {
		contact.Notes = *request.Notes
	}
	if request.PushName != nil {
		contact.PushName = *request.PushName
	}
	utils.PanicIfNeeded(handler.Contacts.Update(c.UserContext(), contact))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Contact updated",
		Results: contact,
	})
}

// --- Catálogo de medios ---

func (handler *Bot) ListCatalog(c *fiber.Ctx) error {
	entries, err := handler.Catalog.ListByConfig(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Catalog retrieved",
		Results: entries,
	})
}

func (handler *Bot) AddCatalogEntry(c *fiber.Ctx) error {
	var request CatalogEntryRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)
	if request.MediaFileID == "" {
		panic(pkgError.ValidationError("media_file_id is required"))
	}

	existing, err := handler.Catalog.ListByConfig(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)
	if len(existing) >= botDomain.MaxCatalogEntries {
		panic(pkgError.ValidationError("catalog is full"))
	}

	entry := &botDomain.ChatbotMedia{
		ConfigID:         c.Params("id"),
		MediaFileID:      request.MediaFileID,
		Kind:             request.Kind,
		Description:      request.Description,
		IsAccessibleByAI: true,
		CreatedAt:        time.Now().UTC(),
	}
	if request.IsAccessibleByAI != nil {
		entry.IsAccessibleByAI = *request.IsAccessibleByAI
	}
	utils.PanicIfNeeded(handler.Catalog.Create(c.UserContext(), entry))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Catalog entry added",
		Results: entry,
	})
}

func (handler *Bot) UpdateCatalogEntry(c *fiber.Ctx) error {
	entry, err := handler.Catalog.GetByID(c.UserContext(), c.Params("entryId"))
	utils.PanicIfNeeded(err)

	var request CatalogEntryRequest
	err = c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	if request.Kind != "" {
		entry.Kind = request.Kind
	}
	if request.Description != "" {
		entry.Description = request.Description
	}
	if request.IsAccessibleByAI != nil {
		entry.IsAccessibleByAI = *request.IsAccessibleByAI
	}
	utils.PanicIfNeeded(handler.Catalog.Update(c.UserContext(), entry))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Catalog entry updated",
		Results: entry,
	})
}

func (handler *Bot) RemoveCatalogEntry(c *fiber.Ctx) error {
	err := handler.Catalog.Delete(c.UserContext(), c.Params("entryId"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Catalog entry removed",
	})
}
