package message

import (
	"chef-agent-api/domain"
	"chef-agent-api/entities"
	"chef-agent-api/internal/utils/storage"
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type (
	// NewMessage is a turn appended to a thread by the chat flow.
	NewMessage struct {
		ThreadID   string
		Role       string
		Content    string
		ImageURL   string
		RecipeData any
	}

	MessageService interface {
		CreateMessage(ctx context.Context, req domain.CreateMessageRequest, userID uint) (domain.MessageResponse, error)
		AppendMessage(ctx context.Context, msg NewMessage, userID uint) (domain.MessageResponse, error)
		GetMessages(ctx context.Context, threadID string, userID uint) ([]domain.MessageResponse, error)
		GetMessage(ctx context.Context, messageID string, userID uint) (domain.MessageResponse, error)
		DeleteMessage(ctx context.Context, messageID string, userID uint) error
	}

	messageService struct {
		messageRepository MessageRepository
		s3                storage.AwsS3
	}
)

func NewMessageService(messageRepository MessageRepository, s3 storage.AwsS3) MessageService {
	return &messageService{
		messageRepository: messageRepository,
		s3:                s3,
	}
}

func (s *messageService) CreateMessage(ctx context.Context, req domain.CreateMessageRequest, userID uint) (domain.MessageResponse, error) {
	return s.AppendMessage(ctx, NewMessage{
		ThreadID: req.ThreadID,
		Role:     req.Role,
		Content:  req.Content,
	}, userID)
}

func (s *messageService) AppendMessage(ctx context.Context, msg NewMessage, userID uint) (domain.MessageResponse, error) {
	threadID, err := s.ownedThread(ctx, msg.ThreadID, userID)
	if err != nil {
		return domain.MessageResponse{}, err
	}

	message := &entities.Message{
		ThreadID: threadID,
		Role:     msg.Role,
		Content:  msg.Content,
		ImageURL: msg.ImageURL,
	}
	if msg.RecipeData != nil {
		raw, err := json.Marshal(msg.RecipeData)
		if err != nil {
			return domain.MessageResponse{}, err
		}
		message.RecipeData = datatypes.JSON(raw)
	}

	if err := s.messageRepository.CreateMessage(ctx, message); err != nil {
		return domain.MessageResponse{}, err
	}
	return ToResponse(message), nil
}

func (s *messageService) GetMessages(ctx context.Context, threadID string, userID uint) ([]domain.MessageResponse, error) {
	id, err := s.ownedThread(ctx, threadID, userID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepository.GetMessagesByThread(ctx, id)
	if err != nil {
		return nil, err
	}
	res := make([]domain.MessageResponse, 0, len(messages))
	for i := range messages {
		res = append(res, ToResponse(&messages[i]))
	}
	return res, nil
}

func (s *messageService) GetMessage(ctx context.Context, messageID string, userID uint) (domain.MessageResponse, error) {
	message, err := s.getOwned(ctx, messageID, userID)
	if err != nil {
		return domain.MessageResponse{}, err
	}
	return ToResponse(message), nil
}

func (s *messageService) DeleteMessage(ctx context.Context, messageID string, userID uint) error {
	message, err := s.getOwned(ctx, messageID, userID)
	if err != nil {
		return err
	}
	if err := s.messageRepository.DeleteMessage(ctx, message.ID); err != nil {
		return err
	}

	if message.ImageURL != "" && s.s3.Enabled() {
		key := s.s3.GetObjectKeyFromLink(message.ImageURL)
		if err := s.s3.DeleteFile(ctx, key); err != nil {
			log.Warnf("failed to delete image %s of message %s: %v", key, message.ID, err)
		}
	}
	return nil
}

func (s *messageService) ownedThread(ctx context.Context, threadID string, userID uint) (uuid.UUID, error) {
	id, err := uuid.Parse(threadID)
	if err != nil {
		return uuid.Nil, domain.ErrThreadNotFound
	}
	ok, err := s.messageRepository.ThreadOwnedBy(ctx, id, userID)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, domain.ErrThreadNotFound
	}
	return id, nil
}

func (s *messageService) getOwned(ctx context.Context, messageID string, userID uint) (*entities.Message, error) {
	id, err := uuid.Parse(messageID)
	if err != nil {
		return nil, domain.ErrMessageNotFound
	}
	message, err := s.messageRepository.GetMessageByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return message, nil
}

func ToResponse(message *entities.Message) domain.MessageResponse {
	res := domain.MessageResponse{
		ID:        message.ID.String(),
		ThreadID:  message.ThreadID.String(),
		Role:      message.Role,
		Content:   message.Content,
		ImageURL:  message.ImageURL,
		CreatedAt: message.CreatedAt,
		UpdatedAt: message.UpdatedAt,
	}
	if len(message.RecipeData) > 0 {
		res.RecipeData = json.RawMessage(message.RecipeData)
	}
	return res
}
