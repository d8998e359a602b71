package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessCreateThread = "thread created successfully"
	MessageSuccessGetThreads   = "success get threads"
	MessageSuccessGetThread    = "success get thread"
	MessageSuccessDeleteThread = "thread deleted successfully"

	MessageFailedCreateThread = "failed to create thread"
	MessageFailedGetThreads   = "failed to get threads"
	MessageFailedGetThread    = "failed to get thread"
	MessageFailedDeleteThread = "failed to delete thread"

	ErrThreadNotFound = errors.New("thread not found")
)

type ThreadResponse struct {
	ID        string            `json:"id"`
	UserID    uint              `json:"user_id"`
	Messages  []MessageResponse `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
