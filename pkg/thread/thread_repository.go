package thread

import (
	"chef-agent-api/entities"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	ThreadRepository interface {
		CreateThread(ctx context.Context, thread *entities.Thread) error
		GetThreads(ctx context.Context, userID uint) ([]entities.Thread, error)
		GetThreadByID(ctx context.Context, id uuid.UUID, userID uint) (*entities.Thread, error)
		DeleteThread(ctx context.Context, id uuid.UUID, userID uint) error
	}

	threadRepository struct {
		db *gorm.DB
	}
)

func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func orderedMessages(db *gorm.DB) *gorm.DB {
	return db.Order("messages.created_at asc")
}

func (r *threadRepository) CreateThread(ctx context.Context, thread *entities.Thread) error {
	return r.db.WithContext(ctx).Create(thread).Error
}

func (r *threadRepository) GetThreads(ctx context.Context, userID uint) ([]entities.Thread, error) {
	var threads []entities.Thread
	if err := r.db.WithContext(ctx).
		Preload("Messages", orderedMessages).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&threads).Error; err != nil {
		return nil, err
	}
	return threads, nil
}

func (r *threadRepository) GetThreadByID(ctx context.Context, id uuid.UUID, userID uint) (*entities.Thread, error) {
	var thread entities.Thread
	if err := r.db.WithContext(ctx).
		Preload("Messages", orderedMessages).
		Where("id = ? AND user_id = ?", id, userID).
		First(&thread).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *threadRepository) DeleteThread(ctx context.Context, id uuid.UUID, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&entities.Thread{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
