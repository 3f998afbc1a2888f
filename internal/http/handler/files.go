package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"filevault/internal/http/middleware"
	"filevault/internal/model"
	"filevault/internal/service"
)

type createFileRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Data     string `json:"data"`
	ParentID string `json:"parentId"`
	IsPublic bool   `json:"isPublic"`
}

// CreateFile uploads a folder, file, or image for the authenticated caller.
func CreateFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createFileRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		f, err := svc.Create(c.UserContext(), middleware.CallerID(c), service.CreateFileInput{
			Name:     req.Name,
			Type:     model.FileType(req.Type),
			Data:     req.Data,
			ParentID: req.ParentID,
			IsPublic: req.IsPublic,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(f)
	}
}

// ListFiles returns one page of the caller-visible children of a parent.
func ListFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		parentID := c.Query("parentId", model.RootParentID)
		page, err := strconv.Atoi(c.Query("page", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}

		items, err := svc.List(c.UserContext(), middleware.CallerID(c), parentID, page)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(items)
	}
}

// ShowFile returns a single record the caller is allowed to see.
func ShowFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := svc.Show(c.UserContext(), middleware.CallerID(c), c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(f)
	}
}

// SetFileVisibility publishes or unpublishes a record owned by the caller.
func SetFileVisibility(svc service.FileService, public bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := svc.SetVisibility(c.UserContext(), middleware.CallerID(c), c.Params("id"), public)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(f)
	}
}

// downloadWidths are the rendition sizes a client may request.
var downloadWidths = map[string]int{"500": 500, "250": 250, "100": 100}

// DownloadFile streams blob bytes with the content type derived from the
// record's display name. Public files are downloadable anonymously.
func DownloadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		width := 0
		if size := c.Query("size"); size != "" {
			w, ok := downloadWidths[size]
			if !ok {
				return writeError(c, fiber.StatusBadRequest, "INVALID_SIZE", "invalid size")
			}
			width = w
		}

		res, err := svc.Download(c.UserContext(), middleware.CallerID(c), c.Params("id"), width)
		if err != nil {
			return serviceError(c, err)
		}

		c.Set(fiber.HeaderContentType, res.ContentType)
		return c.SendStream(res.Content, int(res.Size))
	}
}
