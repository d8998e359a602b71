package thread

import (
	"chef-agent-api/domain"
	"chef-agent-api/entities"
	"chef-agent-api/pkg/message"
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	// Conversation drops the agent state kept for a thread.
	Conversation interface {
		Forget(ctx context.Context, threadID string) error
	}

	ThreadService interface {
		CreateThread(ctx context.Context, userID uint) (domain.ThreadResponse, error)
		GetThreads(ctx context.Context, userID uint) ([]domain.ThreadResponse, error)
		GetThread(ctx context.Context, threadID string, userID uint) (domain.ThreadResponse, error)
		DeleteThread(ctx context.Context, threadID string, userID uint) error
	}

	threadService struct {
		threadRepository ThreadRepository
		conversation     Conversation
	}
)

func NewThreadService(threadRepository ThreadRepository, conversation Conversation) ThreadService {
	return &threadService{
		threadRepository: threadRepository,
		conversation:     conversation,
	}
}

func (s *threadService) CreateThread(ctx context.Context, userID uint) (domain.ThreadResponse, error) {
	thread := &entities.Thread{UserID: userID}
	if err := s.threadRepository.CreateThread(ctx, thread); err != nil {
		return domain.ThreadResponse{}, err
	}
	return toResponse(thread), nil
}

func (s *threadService) GetThreads(ctx context.Context, userID uint) ([]domain.ThreadResponse, error) {
	threads, err := s.threadRepository.GetThreads(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := make([]domain.ThreadResponse, 0, len(threads))
	for i := range threads {
		res = append(res, toResponse(&threads[i]))
	}
	return res, nil
}

func (s *threadService) GetThread(ctx context.Context, threadID string, userID uint) (domain.ThreadResponse, error) {
	id, err := uuid.Parse(threadID)
	if err != nil {
		return domain.ThreadResponse{}, domain.ErrThreadNotFound
	}
	thread, err := s.threadRepository.GetThreadByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ThreadResponse{}, domain.ErrThreadNotFound
		}
		return domain.ThreadResponse{}, err
	}
	return toResponse(thread), nil
}

func (s *threadService) DeleteThread(ctx context.Context, threadID string, userID uint) error {
	id, err := uuid.Parse(threadID)
	if err != nil {
		return domain.ErrThreadNotFound
	}
	if err := s.threadRepository.DeleteThread(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrThreadNotFound
		}
		return err
	}

	if s.conversation != nil {
		if err := s.conversation.Forget(ctx, id.String()); err != nil {
			log.Warnf("failed to drop agent state of thread %s: %v", id, err)
		}
	}
	return nil
}

func toResponse(thread *entities.Thread) domain.ThreadResponse {
	messages := make([]domain.MessageResponse, 0, len(thread.Messages))
	for i := range thread.Messages {
		messages = append(messages, message.ToResponse(&thread.Messages[i]))
	}
	return domain.ThreadResponse{
		ID:        thread.ID.String(),
		UserID:    thread.UserID,
		Messages:  messages,
		CreatedAt: thread.CreatedAt,
		UpdatedAt: thread.UpdatedAt,
	}
}
