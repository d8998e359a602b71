package handlers

import (
	"chef-agent-api/domain"
	"chef-agent-api/internal/api/presenters"
	"chef-agent-api/pkg/thread"

	"github.com/gofiber/fiber/v2"
)

type (
	ThreadHandler interface {
		CreateThread(c *fiber.Ctx) error
		GetThreads(c *fiber.Ctx) error
		GetThread(c *fiber.Ctx) error
		DeleteThread(c *fiber.Ctx) error
	}

	threadHandler struct {
		threadService thread.ThreadService
	}
)

func NewThreadHandler(threadService thread.ThreadService) ThreadHandler {
	return &threadHandler{threadService: threadService}
}

func (h *threadHandler) CreateThread(c *fiber.Ctx) error {
	res, err := h.threadService.CreateThread(c.Context(), userID(c))
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedCreateThread, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateThread)
}

func (h *threadHandler) GetThreads(c *fiber.Ctx) error {
	res, err := h.threadService.GetThreads(c.Context(), userID(c))
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetThreads, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetThreads)
}

func (h *threadHandler) GetThread(c *fiber.Ctx) error {
	res, err := h.threadService.GetThread(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetThread, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetThread)
}

func (h *threadHandler) DeleteThread(c *fiber.Ctx) error {
	if err := h.threadService.DeleteThread(c.Context(), c.Params("id"), userID(c)); err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedDeleteThread, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteThread)
}
