package rest

import (
	"time"

	"github.com/AzielCF/az-hub/bridge"
	instancesApp "github.com/AzielCF/az-hub/instances/application"
	instancesDomain "github.com/AzielCF/az-hub/instances/domain"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// Instance expone la administración de instancias: alta, arranque, QR,
// estado y configuración del webhook saliente.
type Instance struct {
	Sessions  *instancesApp.SessionManager
	Instances instancesDomain.InstanceRepository
}

func InitRestInstance(router fiber.Router, sessions *instancesApp.SessionManager, instances instancesDomain.InstanceRepository) Instance {
	rest := Instance{Sessions: sessions, Instances: instances}
	router.Post("/instances", rest.Create)
	router.Get("/instances", rest.List)
	router.Get("/instances/:id", rest.Get)
	router.Delete("/instances/:id", rest.Delete)
	router.Post("/instances/:id/start", rest.Start)
	router.Get("/instances/:id/qr", rest.QR)
	router.Get("/instances/:id/webhook", rest.GetWebhook)
	router.Put("/instances/:id/webhook", rest.UpdateWebhook)
	return rest
}

func (handler *Instance) Create(c *fiber.Ctx) error {
	var request CreateInstanceRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)
	if request.TenantID == "" || request.Name == "" {
		panic(pkgError.ValidationError("tenant_id and name are required"))
	}

	instance, err := handler.Sessions.Create(c.UserContext(), request.TenantID, request.Name)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instance created",
		Results: instance,
	})
}

func (handler *Instance) List(c *fiber.Ctx) error {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		panic(pkgError.ValidationError("tenant_id query param is required"))
	}
	instances, err := handler.Instances.ListByOwner(c.UserContext(), tenantID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instances retrieved",
		Results: instances,
	})
}

func (handler *Instance) Get(c *fiber.Ctx) error {
	instance, err := handler.Instances.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instance retrieved",
		Results: instance,
	})
}

func (handler *Instance) Delete(c *fiber.Ctx) error {
	instance, err := handler.Instances.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	err = handler.Sessions.Delete(c.UserContext(), instance)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instance deleted",
	})
}

func (handler *Instance) Start(c *fiber.Ctx) error {
	instance, err := handler.Instances.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	err = handler.Sessions.Start(c.UserContext(), instance)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Session start requested",
		Results: fiber.Map{"session_id": instance.SessionID},
	})
}

// QR entrega el QR vigente. Con ?wait=1 bloquea hasta 45s esperando que el
// bridge lo emita, el flujo del panel de alta.
func (handler *Instance) QR(c *fiber.Ctx) error {
	instance, err := handler.Instances.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	var payload *instancesApp.QRPayload
	if c.QueryBool("wait") {
		payload, err = handler.Sessions.WaitForQR(c.UserContext(), instance, 0, 0)
	} else {
		payload, err = handler.Sessions.PollQR(c.UserContext(), instance)
	}
	utils.PanicIfNeeded(err)

	qr := ""
	connected := false
	if payload != nil {
		qr = payload.QRCode
		if qr == "" {
			qr = payload.QR
		}
		connected = bridge.NormalizeStatus(payload.Status) == string(instancesDomain.StatusConnected)
	}
	if qr == "" && !connected {
		qr = handler.Sessions.CachedQR(c.UserContext(), instance.SessionID)
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "QR state retrieved",
		Results: fiber.Map{
			"qr":        qr,
			"connected": connected,
			"status":    instance.Status,
		},
	})
}

func (handler *Instance) GetWebhook(c *fiber.Ctx) error {
	instance, err := handler.Instances.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	cfg, err := handler.Instances.GetWebhookConfig(c.UserContext(), instance.ID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Webhook config retrieved",
		Results: cfg,
	})
}

// UpdateWebhook ajusta URL y flags de fan-out. El secret es write-once: se
// generó al crear la instancia y no se reemplaza por esta vía.
func (handler *Instance) UpdateWebhook(c *fiber.Ctx) error {
	var request UpdateWebhookConfigRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	instance, err := handler.Instances.GetByID(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	cfg, err := handler.Instances.GetWebhookConfig(c.UserContext(), instance.ID)
	utils.PanicIfNeeded(err)

	cfg.URL = request.URL
	if request.SendMessages != nil {
		cfg.SendMessages = *request.SendMessages
	}
	if request.SendAck != nil {
		cfg.SendAck = *request.SendAck
	}
	if request.SendPresence != nil {
		cfg.SendPresence = *request.SendPresence
	}
	cfg.UpdatedAt = time.Now().UTC()

	err = handler.Instances.SaveWebhookConfig(c.UserContext(), cfg)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Webhook config updated",
		Results: cfg,
	})
}
