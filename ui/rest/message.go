package rest

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/AzielCF/az-hub/bridge"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/utils"
	"github.com/AzielCF/az-hub/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Message es la superficie northbound de mensajería. Todas las rutas pasan
// por InstanceAuth; el token de la instancia resuelta viaja al bridge.
type Message struct {
	Bridge *bridge.Client
}

func InitRestMessage(router fiber.Router, bridgeClient *bridge.Client) Message {
	rest := Message{Bridge: bridgeClient}
	router.Post("/message/send", rest.SendText)
	router.Post("/message/send-media", rest.SendMedia)
	router.Post("/message/send-voice", rest.SendVoice)
	router.Post("/message/poll", rest.proxy(rest.Bridge.SendPoll))
	router.Post("/message/location", rest.proxy(rest.Bridge.SendLocation))
	router.Post("/message/contact", rest.proxy(rest.Bridge.SendContact))
	router.Post("/message/reaction", rest.proxy(rest.Bridge.SendReaction))
	router.Post("/message/manage/edit", rest.proxy(rest.Bridge.EditMessage))
	router.Post("/message/manage/delete", rest.proxy(rest.Bridge.DeleteMessage))
	router.Post("/message/manage/pin", rest.proxy(rest.Bridge.PinMessage))
	router.Post("/message/manage/unpin", rest.proxy(rest.Bridge.UnpinMessage))
	router.Post("/message/manage/star", rest.proxy(rest.Bridge.StarMessage))
	return rest
}

type bridgeCall func(ctx context.Context, sessionID, token string, payload map[string]any) (bridge.Result, error)

// proxy reenvía el body JSON tal cual al endpoint equivalente del bridge,
// con el self-heal de token de ExecUser.
func (handler *Message) proxy(call bridgeCall) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload map[string]any
		err := c.BodyParser(&payload)
		utils.PanicIfNeeded(err)

		instance := middleware.InstanceFromCtx(c)
		res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
			return call(c.UserContext(), instance.SessionID, token, payload)
		})
		return bridgeReply(c, res, err, "Operation completed")
	}
}

func (handler *Message) SendText(c *fiber.Ctx) error {
	var request SendTextRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = validation.ValidateStruct(&request,
		validation.Field(&request.To, validation.Required),
		validation.Field(&request.Message, validation.Required.When(request.Type != "image")),
		validation.Field(&request.URL, validation.Required.When(request.Type == "image")),
	)
	if err != nil {
		panic(pkgError.ValidationError(err.Error()))
	}

	instance := middleware.InstanceFromCtx(c)
	payload := map[string]any{"to": request.To}
	if request.Type == "image" {
		payload["type"] = "image"
		payload["url"] = request.URL
		if request.Caption != "" {
			payload["caption"] = request.Caption
		}
	} else {
		payload["message"] = request.Message
	}

	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.SendMessage(c.UserContext(), instance.SessionID, token, payload)
	})
	return bridgeReply(c, res, err, "Message sent")
}

func (handler *Message) SendMedia(c *fiber.Ctx) error {
	instance := middleware.InstanceFromCtx(c)
	fields, files := multipartToBridge(c, "file")

	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.SendMedia(c.UserContext(), instance.SessionID, token, fields, files)
	})
	return bridgeReply(c, res, err, "Media sent")
}

func (handler *Message) SendVoice(c *fiber.Ctx) error {
	instance := middleware.InstanceFromCtx(c)
	fields, files := multipartToBridge(c, "file")
	fields["ptt"] = "true"

	res, err := handler.Bridge.ExecUser(c.UserContext(), instance.SessionID, instance.Token, func(token string) (bridge.Result, error) {
		return handler.Bridge.SendVoice(c.UserContext(), instance.SessionID, token, fields, files)
	})
	return bridgeReply(c, res, err, "Voice note sent")
}

// multipartToBridge vuelca el form entrante (campos + archivo) al formato
// del cliente del bridge.
func multipartToBridge(c *fiber.Ctx, fileField string) (map[string]string, []bridge.File) {
	form, err := c.MultipartForm()
	utils.PanicIfNeeded(err)

	fields := map[string]string{}
	for key, values := range form.Value {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	if fields["to"] == "" {
		panic(pkgError.ValidationError("to field is required"))
	}

	headers := form.File[fileField]
	if len(headers) == 0 {
		panic(pkgError.ValidationError(fileField + " file is required"))
	}
	content := fileHeaderBytes(headers[0])
	files := []bridge.File{{
		Field:    fileField,
		Name:     headers[0].Filename,
		MimeType: headers[0].Header.Get("Content-Type"),
		Content:  content,
	}}
	return fields, files
}

func fileHeaderBytes(header *multipart.FileHeader) []byte {
	src, err := header.Open()
	utils.PanicIfNeeded(err)
	defer src.Close()
	content, err := io.ReadAll(src)
	utils.PanicIfNeeded(err)
	return content
}

// bridgeReply traduce un Result del bridge a la envolvente REST. Los
// fallos del bridge conservan su status y mensaje.
func bridgeReply(c *fiber.Ctx, res bridge.Result, err error, message string) error {
	if err != nil {
		panic(pkgError.BridgeError(err.Error()))
	}
	if !res.OK {
		status := res.StatusCode
		if status == 0 {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(utils.ResponseData{
			Status:  status,
			Code:    "BRIDGE_ERROR",
			Message: res.ErrorText(),
			Results: res.Body,
		})
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: message,
		Results: res.Body,
	})
}
