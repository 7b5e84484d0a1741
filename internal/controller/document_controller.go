package controller

import (
	"errors"
	"strconv"

	"talkwrite-be/internal/dto"
	"talkwrite-be/internal/pkg/logger"
	"talkwrite-be/internal/pkg/serverutils"
	"talkwrite-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DocumentController struct {
	documentService service.IDocumentService
	logger          logger.ILogger
}

func NewDocumentController(documentService service.IDocumentService, log logger.ILogger) *DocumentController {
	return &DocumentController{
		documentService: documentService,
		logger:          log,
	}
}

func (c *DocumentController) RegisterRoutes(router fiber.Router) {
	documents := router.Group("/documents", serverutils.JwtMiddleware)
	documents.Post("/", c.Create)
	documents.Get("/", c.List)
	documents.Get("/:id", c.Show)
	documents.Put("/:id", c.Update)
	documents.Delete("/:id", c.Delete)
	documents.Post("/:id/shares", c.Share)
	documents.Delete("/:id/shares/:userId", c.Unshare)
}

func currentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}
	return userId, nil
}

func documentIdParam(ctx *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(ctx.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid document id")
	}
	return uint(id), nil
}

func (c *DocumentController) Create(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	resp, err := c.documentService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Document created", resp))
}

func (c *DocumentController) List(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	items, err := c.documentService.List(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Documents", items))
}

func (c *DocumentController) Show(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	id, err := documentIdParam(ctx)
	if err != nil {
		return err
	}

	resp, err := c.documentService.Show(ctx.Context(), userId, id)
	if err != nil {
		if errors.Is(err, service.ErrDocumentUnavailable) {
			return fiber.NewError(fiber.StatusNotFound, "Document not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Document", resp))
}

func (c *DocumentController) Update(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	id, err := documentIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	resp, err := c.documentService.Update(ctx.Context(), userId, &req)
	if err != nil {
		if errors.Is(err, service.ErrDocumentUnavailable) {
			return fiber.NewError(fiber.StatusNotFound, "Document not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Document saved", resp))
}

func (c *DocumentController) Delete(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	id, err := documentIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.documentService.Delete(ctx.Context(), userId, id); err != nil {
		if errors.Is(err, service.ErrDocumentUnavailable) {
			return fiber.NewError(fiber.StatusNotFound, "Document not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Document deleted", nil))
}

func (c *DocumentController) Share(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	id, err := documentIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.ShareDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	resp, err := c.documentService.Share(ctx.Context(), userId, &req)
	if err != nil {
		if errors.Is(err, service.ErrDocumentUnavailable) {
			return fiber.NewError(fiber.StatusNotFound, "Document not found")
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Document shared", resp))
}

func (c *DocumentController) Unshare(ctx *fiber.Ctx) error {
	ownerId, err := currentUserId(ctx)
	if err != nil {
		return err
	}
	id, err := documentIdParam(ctx)
	if err != nil {
		return err
	}

	targetId, err := uuid.Parse(ctx.Params("userId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid user id")
	}

	if err := c.documentService.Unshare(ctx.Context(), ownerId, id, targetId); err != nil {
		if errors.Is(err, service.ErrDocumentUnavailable) {
			return fiber.NewError(fiber.StatusNotFound, "Document not found")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Share revoked", nil))
}
