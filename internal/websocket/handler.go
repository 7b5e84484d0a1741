package websocket

import (
	"context"
	"errors"
	"strconv"

	"talkwrite-be/internal/pkg/logger"
	"talkwrite-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

var (
	errMissingCredentials = errors.New("missing credentials")
	errInvalidDocumentId  = errors.New("invalid document id")
)

// Handler performs the admission handshake for room connections. The
// handshake carries the document id and access token as query parameters; a
// connection missing either, or failing verification, is closed before it
// ever reaches a room.
type Handler struct {
	hub             *Hub
	authService     service.IAuthService
	documentService service.IDocumentService
	logger          logger.ILogger
}

func NewHandler(
	hub *Hub,
	authService service.IAuthService,
	documentService service.IDocumentService,
	log logger.ILogger,
) *Handler {
	return &Handler{
		hub:             hub,
		authService:     authService,
		documentService: documentService,
		logger:          log,
	}
}

// Upgrade gates the HTTP route so only websocket upgrade requests proceed.
func (h *Handler) Upgrade(ctx *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(ctx) {
		return ctx.Next()
	}
	return fiber.ErrUpgradeRequired
}

// admit is the whole admission decision: credentials present, token valid,
// document accessible to the identity behind it. Serve only maps the result
// onto the connection.
func (h *Handler) admit(rawDocumentId, accessToken string) (*service.Identity, uint, error) {
	if rawDocumentId == "" || accessToken == "" {
		return nil, 0, errMissingCredentials
	}

	documentId, err := strconv.ParseUint(rawDocumentId, 10, 64)
	if err != nil {
		return nil, 0, errInvalidDocumentId
	}

	identity, err := h.authService.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, 0, err
	}

	if err := h.documentService.CanAccess(context.Background(), uint(documentId), identity.UserId); err != nil {
		return nil, 0, err
	}

	return identity, uint(documentId), nil
}

// Serve returns the connection handler for the /ws route.
func (h *Handler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		identity, documentId, err := h.admit(conn.Query("documentId"), conn.Query("accessToken"))
		if err != nil {
			h.logger.Warn("WsHandler", "Denied room access", map[string]interface{}{
				"error": err.Error(),
			})
			h.reject(conn, err.Error())
			return
		}

		client := NewClient(h.hub, conn, identity.UserId, identity.Email, documentId, h.logger)
		h.hub.Register(client)

		go client.WritePump()
		client.ReadPump()
	})
}

func (h *Handler) reject(conn *websocket.Conn, reason string) {
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
	conn.Close()
}
