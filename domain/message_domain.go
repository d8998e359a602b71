package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	MessageSuccessCreateMessage = "message created successfully"
	MessageSuccessGetMessages   = "success get messages"
	MessageSuccessGetMessage    = "success get message"
	MessageSuccessDeleteMessage = "message deleted successfully"

	MessageFailedCreateMessage = "failed to create message"
	MessageFailedGetMessages   = "failed to get messages"
	MessageFailedGetMessage    = "failed to get message"
	MessageFailedDeleteMessage = "failed to delete message"

	ErrMessageNotFound = errors.New("message not found")
)

type (
	CreateMessageRequest struct {
		ThreadID string `json:"thread_id" validate:"required,uuid"`
		Content  string `json:"content" validate:"required"`
		Role     string `json:"role" validate:"required,oneof=user assistant"`
	}

	MessageResponse struct {
		ID         string          `json:"id"`
		ThreadID   string          `json:"thread_id"`
		Role       string          `json:"role"`
		Content    string          `json:"content"`
		RecipeData json.RawMessage `json:"recipe_data,omitempty"`
		ImageURL   string          `json:"image_url,omitempty"`
		CreatedAt  time.Time       `json:"created_at"`
		UpdatedAt  time.Time       `json:"updated_at"`
	}
)
