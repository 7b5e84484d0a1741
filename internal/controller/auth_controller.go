package controller

import (
	"errors"

	"talkwrite-be/internal/dto"
	"talkwrite-be/internal/pkg/logger"
	"talkwrite-be/internal/pkg/serverutils"
	"talkwrite-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	authService service.IAuthService
	logger      logger.ILogger
}

func NewAuthController(authService service.IAuthService, log logger.ILogger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      log,
	}
}

func (c *AuthController) RegisterRoutes(router fiber.Router) {
	auth := router.Group("/auth")
	auth.Post("/register", c.Register)
	auth.Post("/login", c.Login)
}

func (c *AuthController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	resp, err := c.authService.Register(ctx.Context(), &req)
	if err != nil {
		c.logger.Warn("AuthController", "Registration failed", map[string]interface{}{
			"email": req.Email,
			"error": err.Error(),
		})
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Registered", resp))
}

func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	resp, err := c.authService.Login(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Logged in", resp))
}
