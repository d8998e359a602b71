package handlers

import (
	"bufio"
	"chef-agent-api/domain"
	"chef-agent-api/internal/api/presenters"
	"chef-agent-api/pkg/chat"
	"context"
	"errors"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type (
	ChatHandler interface {
		Stream(c *fiber.Ctx) error
		Resume(c *fiber.Ctx) error
	}

	chatHandler struct {
		chatService chat.ChatService
		validator   *validator.Validate
	}
)

func NewChatHandler(chatService chat.ChatService, validator *validator.Validate) ChatHandler {
	return &chatHandler{
		chatService: chatService,
		validator:   validator,
	}
}

func (h *chatHandler) Stream(c *fiber.Ctx) error {
	req := new(domain.ChatStreamRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedValidation, err)
	}

	image, err := readImage(c)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, domain.ErrImageTooLarge) {
			status = fiber.StatusRequestEntityTooLarge
		}
		return presenters.ErrorResponse(c, status, domain.MessageFailedStartChat, err)
	}

	turn, err := h.chatService.StartStream(c.Context(), *req, image, userID(c))
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedStartChat, err)
	}
	return streamTurn(c, turn)
}

func (h *chatHandler) Resume(c *fiber.Ctx) error {
	req := new(domain.ChatResumeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedValidation, err)
	}

	turn, err := h.chatService.StartResume(c.Context(), *req, userID(c))
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedResumeChat, err)
	}
	return streamTurn(c, turn)
}

func streamTurn(c *fiber.Ctx, turn *chat.Turn) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx := context.WithoutCancel(c.UserContext())
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		turn.Write(ctx, w)
	}))
	return nil
}

// readImage returns the optional "image" form file, or nil when none was sent.
func readImage(c *fiber.Ctx) (*domain.ChatImage, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size > chat.MaxImageSize {
		return nil, domain.ErrImageTooLarge
	}

	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, chat.MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	return &domain.ChatImage{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}
