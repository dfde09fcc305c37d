package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Serapsys/jobSite/internal/apperr"
	"github.com/Serapsys/jobSite/internal/models"
	"github.com/Serapsys/jobSite/internal/presence"
	"github.com/Serapsys/jobSite/internal/service"
)

type Handler struct {
	svc      *service.ConversationService
	presence *presence.Store // nil when redis is not configured
	log      *zap.SugaredLogger
}

func NewHandler(svc *service.ConversationService, pres *presence.Store, log *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, presence: pres, log: log}
}

// GET /api/chat
func (h *Handler) ListConversations(c *fiber.Ctx) error {
	convs, err := h.svc.ListForUser(c.Context(), callerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	if convs == nil {
		convs = []*models.Conversation{}
	}
	return c.JSON(convs)
}

// GET /api/chat/:id
func (h *Handler) GetConversation(c *fiber.Ctx) error {
	conv, err := h.svc.GetByID(c.Context(), c.Params("id"), callerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(conv)
}

// POST /api/chat/start
func (h *Handler) StartConversation(c *fiber.Ctx) error {
	var body struct {
		ParticipantID  string `json:"participantId"`
		InitialMessage string `json:"initialMessage"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}
	conv, err := h.svc.FindOrCreate(c.Context(), callerID(c), body.ParticipantID, body.InitialMessage)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(conv)
}

// POST /api/chat/:id/message
func (h *Handler) AddMessage(c *fiber.Ctx) error {
	var body struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}
	conv, err := h.svc.Append(c.Context(), c.Params("id"), callerID(c), body.Content)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(conv)
}

// GET /api/chat/presence/:userId
func (h *Handler) GetPresence(c *fiber.Ctx) error {
	if h.presence == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"message": "presence not configured"})
	}
	st, err := h.presence.Get(c.Context(), c.Params("userId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(st)
}

// fail maps the error taxonomy to status codes; anything unclassified is
// logged and reported as a generic server error.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "not found"})
	case errors.Is(err, apperr.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "not authorized to access this chat"})
	case errors.Is(err, apperr.ErrInvalidArgument):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request"})
	case errors.Is(err, apperr.ErrAuthFailed):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "authentication failed"})
	case errors.Is(err, apperr.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "conflict, retry the request"})
	default:
		h.log.Errorw("unhandled error", "path", c.Path(), "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "server error"})
	}
}
