package rest

import (
	mediaApp "github.com/AzielCF/az-hub/media/application"
	pkgError "github.com/AzielCF/az-hub/pkg/error"
	"github.com/AzielCF/az-hub/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// Media administra la biblioteca de archivos por tenant.
type Media struct {
	Service *mediaApp.MediaService
}

func InitRestMedia(router fiber.Router, service *mediaApp.MediaService) Media {
	rest := Media{Service: service}
	router.Post("/media", rest.Upload)
	router.Get("/media", rest.List)
	router.Get("/media/:id", rest.Get)
	router.Get("/media/:id/download", rest.Download)
	router.Get("/media/:id/thumbnail", rest.Thumbnail)
	router.Put("/media/:id", rest.Replace)
	router.Delete("/media/:id", rest.Delete)
	return rest
}

func (handler *Media) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		panic(pkgError.ValidationError("file is required"))
	}
	src, err := header.Open()
	utils.PanicIfNeeded(err)
	defer src.Close()

	file, err := handler.Service.Upload(c.UserContext(), requiredTenantID(c), header.Filename, header.Header.Get("Content-Type"), src)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "File uploaded",
		Results: file,
	})
}

func (handler *Media) List(c *fiber.Ctx) error {
	files, err := handler.Service.ListByOwner(c.UserContext(), requiredTenantID(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Files retrieved",
		Results: files,
	})
}

func (handler *Media) Get(c *fiber.Ctx) error {
	file, err := handler.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "File retrieved",
		Results: file,
	})
}

func (handler *Media) Download(c *fiber.Ctx) error {
	file, err := handler.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	blob, err := handler.Service.OpenBlob(file)
	utils.PanicIfNeeded(err)

	c.Set(fiber.HeaderContentType, file.MimeType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+file.OriginalName+`"`)
	return c.SendStream(blob)
}

func (handler *Media) Thumbnail(c *fiber.Ctx) error {
	file, err := handler.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	if file.ThumbnailPath == "" {
		panic(pkgError.NotFoundError("file has no thumbnail"))
	}
	return c.SendFile(file.ThumbnailPath)
}

func (handler *Media) Replace(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		panic(pkgError.ValidationError("file is required"))
	}
	src, err := header.Open()
	utils.PanicIfNeeded(err)
	defer src.Close()

	file, err := handler.Service.Replace(c.UserContext(), c.Params("id"), header.Filename, header.Header.Get("Content-Type"), src)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "File replaced",
		Results: file,
	})
}

func (handler *Media) Delete(c *fiber.Ctx) error {
	err := handler.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "File deleted",
	})
}
