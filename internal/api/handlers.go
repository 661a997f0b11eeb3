package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/RazaAli313/clubchat/internal/apperr"
	"github.com/RazaAli313/clubchat/internal/domain"
	"github.com/RazaAli313/clubchat/internal/service"
)

type ChatHandler struct {
	svc     *service.ChatService
	timeout time.Duration
	log     *zap.SugaredLogger
}

func NewChatHandler(svc *service.ChatService, timeout time.Duration, log *zap.SugaredLogger) *ChatHandler {
	return &ChatHandler{svc: svc, timeout: timeout, log: log}
}

func (h *ChatHandler) ListParticipants(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()
	out, err := h.svc.ListParticipants(ctx, domain.AdminID(c.Query("admin_id")))
	if err != nil {
		return h.fail(c, "list participants", err)
	}
	return c.JSON(out)
}

func (h *ChatHandler) GetOrCreateConversation(c *fiber.Ctx) error {
	var body struct {
		UserID  string `json:"user_id"`
		AdminID string `json:"admin_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.ErrBadRequest
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()
	id, err := h.svc.GetOrCreateConversation(ctx, domain.UserID(body.UserID), domain.AdminID(body.AdminID))
	if err != nil {
		return h.fail(c, "get or create conversation", err)
	}
	return c.JSON(fiber.Map{"id": id})
}

func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()
	msgs, err := h.svc.ListMessages(ctx, domain.ConversationID(c.Params("id")))
	if err != nil {
		return h.fail(c, "list messages", err)
	}
	return c.JSON(msgs)
}

func (h *ChatHandler) AppendMessage(c *fiber.Ctx) error {
	var body struct {
		SenderID string `json:"sender_id"`
		Content  string `json:"content"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.ErrBadRequest
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()
	id, err := h.svc.AppendMessage(ctx, domain.ConversationID(c.Params("id")), body.SenderID, body.Content)
	if err != nil {
		return h.fail(c, "append message", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (h *ChatHandler) fail(c *fiber.Ctx, op string, err error) error {
	switch {
	case errors.Is(err, apperr.ErrBadRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	default:
		h.log.Errorw(op, "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
