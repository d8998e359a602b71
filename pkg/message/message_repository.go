package message

import (
	"chef-agent-api/entities"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	MessageRepository interface {
		ThreadOwnedBy(ctx context.Context, threadID uuid.UUID, userID uint) (bool, error)
		CreateMessage(ctx context.Context, message *entities.Message) error
		GetMessagesByThread(ctx context.Context, threadID uuid.UUID) ([]entities.Message, error)
		GetMessageByID(ctx context.Context, id uuid.UUID, userID uint) (*entities.Message, error)
		DeleteMessage(ctx context.Context, id uuid.UUID) error
	}

	messageRepository struct {
		db *gorm.DB
	}
)

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) ThreadOwnedBy(ctx context.Context, threadID uuid.UUID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Thread{}).
		Where("id = ? AND user_id = ?", threadID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateMessage stores the message and bumps the thread's updated_at so the
// thread list reflects recent activity.
func (r *messageRepository) CreateMessage(ctx context.Context, message *entities.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&entities.Thread{}).
			Where("id = ?", message.ThreadID).
			Update("updated_at", time.Now()).Error
	})
}

func (r *messageRepository) GetMessagesByThread(ctx context.Context, threadID uuid.UUID) ([]entities.Message, error) {
	var messages []entities.Message
	if err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at asc").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) GetMessageByID(ctx context.Context, id uuid.UUID, userID uint) (*entities.Message, error) {
	var message entities.Message
	if err := r.db.WithContext(ctx).
		Joins("JOIN threads ON threads.id = messages.thread_id").
		Where("messages.id = ? AND threads.user_id = ?", id, userID).
		First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Message{}).Error
}
