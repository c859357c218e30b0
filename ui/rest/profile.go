package rest

import (
	"github.com/AzielCF/az-hub/bridge"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/utils"
	"github.com/AzielCF/az-hub/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
)

// Profile cubre perfil propio, presencia y bloqueos.
type Profile struct {
	Bridge *bridge.Client
}

func InitRestProfile(router fiber.Router, bridgeClient *bridge.Client) Profile {
	rest := Profile{Bridge: bridgeClient}
	proxy := Message{Bridge: bridgeClient}
	router.Get("/profile/info/:jid", rest.Info)
	router.Get("/profile/blocklist", rest.Blocklist)
	router.Put("/profile/manage/status", proxy.proxy(bridgeClient.UpdateProfileStatus))
	router.Put("/profile/manage/picture", rest.UpdatePicture)
	router.Put("/profile/manage/presence", proxy.proxy(bridgeClient.SetPresence))
	router.Post("/users/block", proxy.proxy(bridgeClient.BlockUser))
	router.Get("/users/check/:jid", rest.Check)
	return rest
}

func (handler *Profile) Info(c *fiber.Ctx) error {
	instance := middleware.InstanceFromCtx(c)
	jid := c.Params("jid")
	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.FetchProfile(c.UserContext(), instance.SessionID, token, jid)
	})
	return bridgeReply(c, res, err, "Profile retrieved")
}

func (handler *Profile) Blocklist(c *fiber.Ctx) error {
	instance := middleware.InstanceFromCtx(c)
	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.GetBlocklist(c.UserContext(), instance.SessionID, token)
	})
	return bridgeReply(c, res, err, "Blocklist retrieved")
}

func (handler *Profile) UpdatePicture(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	utils.PanicIfNeeded(err)

	headers := form.File["picture"]
	if len(headers) == 0 {
		panic(pkgError.ValidationError("picture file is required"))
	}
	files := []bridge.File{{
		Field:    "picture",
		Name:     headers[0].Filename,
		MimeType: headers[0].Header.Get("Content-Type"),
		Content:  fileHeaderBytes(headers[0]),
	}}

	instance := middleware.InstanceFromCtx(c)
	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.UpdateProfilePicture(c.UserContext(), instance.SessionID, token, files)
	})
	return bridgeReply(c, res, err, "Profile picture updated")
}

func (handler *Profile) Check(c *fiber.Ctx) error {
	instance := middleware.InstanceFromCtx(c)
	jid := c.Params("jid")
	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.CheckOnWhatsApp(c.UserContext(), instance.SessionID, token, jid)
	})
	return bridgeReply(c, res, err, "Number checked")
}
