package handlers

import (
	"chef-agent-api/domain"
	"chef-agent-api/internal/api/presenters"
	"chef-agent-api/pkg/message"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	MessageHandler interface {
		CreateMessage(c *fiber.Ctx) error
		GetMessages(c *fiber.Ctx) error
		GetMessage(c *fiber.Ctx) error
		DeleteMessage(c *fiber.Ctx) error
	}

	messageHandler struct {
		messageService message.MessageService
		validator      *validator.Validate
	}
)

func NewMessageHandler(messageService message.MessageService, validator *validator.Validate) MessageHandler {
	return &messageHandler{
		messageService: messageService,
		validator:      validator,
	}
}

func (h *messageHandler) CreateMessage(c *fiber.Ctx) error {
	req := new(domain.CreateMessageRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedValidation, err)
	}

	res, err := h.messageService.CreateMessage(c.Context(), *req, userID(c))
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedCreateMessage, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateMessage)
}

func (h *messageHandler) GetMessages(c *fiber.Ctx) error {
	res, err := h.messageService.GetMessages(c.Context(), c.Params("thread_id"), userID(c))
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetMessages, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetMessages)
}

func (h *messageHandler) GetMessage(c *fiber.Ctx) error {
	res, err := h.messageService.GetMessage(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetMessage, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetMessage)
}

func (h *messageHandler) DeleteMessage(c *fiber.Ctx) error {
	if err := h.messageService.DeleteMessage(c.Context(), c.Params("id"), userID(c)); err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedDeleteMessage, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteMessage)
}
