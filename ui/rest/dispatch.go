package rest

import (
	"time"

	dispatchApp "github.com/AzielCF/az-hub/dispatch/application"
	dispatchDomain "github.com/AzielCF/az-hub/dispatch/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/utils"
	"github.com/AzielCF/az-hub/validations"
	"github.com/gofiber/fiber/v2"
)

// Dispatch administra templates, grupos de contactos y campañas masivas.
type Dispatch struct {
	Templates dispatchDomain.TemplateRepository
	Groups    dispatchDomain.GroupRepository
	Campaigns *dispatchApp.CampaignService
	Worker    *dispatchApp.Worker
}

func InitRestDispatch(router fiber.Router, templates dispatchDomain.TemplateRepository, groups dispatchDomain.GroupRepository, campaigns *dispatchApp.CampaignService, worker *dispatchApp.Worker) Dispatch {
	rest := Dispatch{Templates: templates, Groups: groups, Campaigns: campaigns, Worker: worker}

	router.Post("/dispatch/templates", rest.CreateTemplate)
	router.Get("/dispatch/templates", rest.ListTemplates)
	router.Put("/dispatch/templates/:id", rest.UpdateTemplate)
	router.Delete("/dispatch/templates/:id", rest.DeleteTemplate)

	router.Post("/dispatch/groups", rest.CreateGroup)
	router.Get("/dispatch/groups", rest.ListGroups)
	router.Get("/dispatch/groups/:id/contacts", rest.ListGroupContacts)
	router.Post("/dispatch/groups/:id/contacts", rest.AddGroupContacts)
	router.Delete("/dispatch/groups/:id/contacts/:contactId", rest.RemoveGroupContact)
	router.Delete("/dispatch/groups/:id", rest.DeleteGroup)

	router.Post("/dispatch/campaigns", rest.CreateCampaign)
	router.Get("/dispatch/campaigns", rest.ListCampaigns)
	router.Get("/dispatch/campaigns/summary", rest.Summary)
	router.Get("/dispatch/campaigns/:id", rest.GetCampaign)
	router.Get("/dispatch/campaigns/:id/items", rest.ListCampaignItems)
	router.Post("/dispatch/campaigns/:id/schedule", rest.ScheduleCampaign)
	router.Post("/dispatch/campaigns/:id/pause", rest.PauseCampaign)
	router.Post("/dispatch/campaigns/:id/resume", rest.ResumeCampaign)
	router.Post("/dispatch/campaigns/:id/cancel", rest.CancelCampaign)
	router.Post("/dispatch/campaigns/:id/reschedule", rest.RescheduleCampaign)
	router.Delete("/dispatch/campaigns/:id", rest.DeleteCampaign)

	router.Post("/dispatch/process", rest.ProcessQueue)
	return rest
}

func requiredTenantID(c *fiber.Ctx) string {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		panic(pkgError.ValidationError("tenant_id query param is required"))
	}
	return tenantID
}

// --- Templates ---

func (handler *Dispatch) CreateTemplate(c *fiber.Ctx) error {
	var request CreateTemplateRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	tpl := &dispatchDomain.Template{
		TenantID:    requiredTenantID(c),
		Name:        request.Name,
		Body:        request.Body,
		MediaFileID: request.MediaFileID,
	}
	utils.PanicIfNeeded(validations.ValidateTemplate(c.UserContext(), tpl))
	utils.PanicIfNeeded(handler.Templates.Create(c.UserContext(), tpl))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Template created",
		Results: tpl,
	})
}

func (handler *Dispatch) ListTemplates(c *fiber.Ctx) error {
	templates, err := handler.Templates.ListByTenant(c.UserContext(), requiredTenantID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Templates retrieved",
		Results: templates,
	})
}

func (handler *Dispatch) UpdateTemplate(c *fiber.Ctx) error {
	tpl, err := handler.Templates.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	var request CreateTemplateRequest
	err = c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	if request.Name != "" {
		tpl.Name = request.Name
	}
	if request.Body != "" {
		tpl.Body = request.Body
	}
	tpl.MediaFileID = request.MediaFileID
	utils.PanicIfNeeded(validations.ValidateTemplate(c.UserContext(), tpl))
	utils.PanicIfNeeded(handler.Templates.Update(c.UserContext(), tpl))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Template updated",
		Results: tpl,
	})
}

func (handler *Dispatch) DeleteTemplate(c *fiber.Ctx) error {
	err := handler.Templates.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Template deleted",
	})
}

// --- Grupos de contactos ---

func (handler *Dispatch) CreateGroup(c *fiber.Ctx) error {
	var request CreateContactGroupRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)
	if request.Name == "" {
		panic(pkgError.ValidationError("group name is required"))
	}

	group := &dispatchDomain.ContactGroup{
		TenantID: requiredTenantID(c),
		Name:     request.Name,
	}
	utils.PanicIfNeeded(handler.Groups.Create(c.UserContext(), group))

	if len(request.Contacts) > 0 {
		contacts := make([]dispatchDomain.GroupContact, 0, len(request.Contacts))
		for _, payload := range request.Contacts {
			contacts = append(contacts, dispatchDomain.GroupContact{
				GroupID:     group.ID,
				JID:         payload.JID,
				DisplayName: payload.DisplayName,
			})
		}
		utils.PanicIfNeeded(handler.Groups.AddContacts(c.UserContext(), group.ID, contacts))
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Contact group created",
		Results: group,
	})
}

func (handler *Dispatch) ListGroups(c *fiber.Ctx) error {
	groups, err := handler.Groups.ListByTenant(c.UserContext(), requiredTenantID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Contact groups retrieved",
		Results: groups,
	})
}

func (handler *Dispatch) ListGroupContacts(c *fiber.Ctx) error {
	contacts, err := handler.Groups.ListContacts(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Contacts retrieved",
		Results: contacts,
	})
}

func (handler *Dispatch) AddGroupContacts(c *fiber.Ctx) error {
	var request CreateContactGroupRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)
	if len(request.Contacts) == 0 {
		panic(pkgError.ValidationError("contacts are required"))
	}

	groupID := c.Params("id")
	contacts := make([]dispatchDomain.GroupContact, 0, len(request.Contacts))
	for _, payload := range request.Contacts {
		contacts = append(contacts, dispatchDomain.GroupContact{
			GroupID:     groupID,
			JID:         payload.JID,
			DisplayName: payload.DisplayName,
		})
	}
	utils.PanicIfNeeded(handler.Groups.AddContacts(c.UserContext(), groupID, contacts))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Contacts added",
	})
}

func (handler *Dispatch) RemoveGroupContact(c *fiber.Ctx) error {
	err := handler.Groups.RemoveContact(c.UserContext(), c.Params("id"), c.Params("contactId"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Contact removed",
	})
}

func (handler *Dispatch) DeleteGroup(c *fiber.Ctx) error {
	err := handler.Groups.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Contact group deleted",
	})
}

// --- Campañas ---

func (handler *Dispatch) CreateCampaign(c *fiber.Ctx) error {
	var request CreateCampaignRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	campaign := &dispatchDomain.Campaign{
		TenantID:             requiredTenantID(c),
		InstanceID:           request.InstanceID,
		Name:                 request.Name,
		StartAt:              request.StartAt,
		MinDelaySeconds:      request.MinDelaySeconds,
		MaxDelaySeconds:      request.MaxDelaySeconds,
		MessagesPerRecipient: request.MessagesPerRecipient,
		UseNamePlaceholder:   request.UseNamePlaceholder,
		RawNumbers:           request.RawNumbers,
		GroupIDs:             request.GroupIDs,
		TemplateIDs:          request.TemplateIDs,
	}
	campaign.NormalizeDelays()
	utils.PanicIfNeeded(validations.ValidateCampaign(c.UserContext(), campaign))
	utils.PanicIfNeeded(handler.Campaigns.Create(c.UserContext(), campaign))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaign created",
		Results: campaign,
	})
}

func (handler *Dispatch) ListCampaigns(c *fiber.Ctx) error {
	campaigns, err := handler.Campaigns.List(c.UserContext(), requiredTenantID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaigns retrieved",
		Results: campaigns,
	})
}

func (handler *Dispatch) Summary(c *fiber.Ctx) error {
	summary, err := handler.Campaigns.Summary(c.UserContext(), requiredTenantID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaign summary retrieved",
		Results: summary,
	})
}

func (handler *Dispatch) GetCampaign(c *fiber.Ctx) error {
	campaign, err := handler.Campaigns.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaign retrieved",
		Results: campaign,
	})
}

func (handler *Dispatch) ListCampaignItems(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	offset := c.QueryInt("offset", 0)
	items, err := handler.Campaigns.ListItems(c.UserContext(), c.Params("id"), limit, offset)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaign items retrieved",
		Results: items,
	})
}

func (handler *Dispatch) ScheduleCampaign(c *fiber.Ctx) error {
	campaign, err := handler.Campaigns.Schedule(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Campaign scheduled",
		Results: campaign,
	})
}

func (handler *Dispatch) PauseCampaign(c *fiber.Ctx) error {
	utils.PanicIfNeeded(handler.Campaigns.Pause(c.UserContext(), c.Params("id")))
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "Campaign paused"})
}

func (handler *Dispatch) ResumeCampaign(c *fiber.Ctx) error {
	utils.PanicIfNeeded(handler.Campaigns.Resume(c.UserContext(), c.Params("id")))
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "Campaign resumed"})
}

func (handler *Dispatch) CancelCampaign(c *fiber.Ctx) error {
	utils.PanicIfNeeded(handler.Campaigns.Cancel(c.UserContext(), c.Params("id")))
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "Campaign canceled"})
}

func (handler *Dispatch) RescheduleCampaign(c *fiber.Ctx) error {
	var request struct {
		StartAt *time.Time `json:"start_at"`
	}
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	utils.PanicIfNeeded(handler.Campaigns.Reschedule(c.UserContext(), c.Params("id"), request.StartAt))
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "Campaign rescheduled"})
}

func (handler *Dispatch) DeleteCampaign(c *fiber.Ctx) error {
	utils.PanicIfNeeded(handler.Campaigns.Delete(c.UserContext(), c.Params("id")))
	return c.JSON(utils.ResponseData{Status: 200, Code: "SUCCESS", Message: "Campaign deleted"})
}

// ProcessQueue dispara un ciclo del worker bajo demanda, útil para
// depurar sin esperar al loop del comando dispatcher.
func (handler *Dispatch) ProcessQueue(c *fiber.Ctx) error {
	maxItems := c.QueryInt("max_items", 20)
	stats, err := handler.Worker.ProcessQueue(c.UserContext(), maxItems)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Queue cycle processed",
		Results: stats,
	})
}
