package domain

import (
	"encoding/json"
	"errors"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
	DecisionEdit    = "edit"

	DefaultLanguage = "English"
)

var (
	MessageFailedStartChat  = "failed to start chat stream"
	MessageFailedResumeChat = "failed to resume chat stream"

	ErrThreadBusy            = errors.New("thread is already processing a turn")
	ErrNoPendingInterrupt    = errors.New("thread has no pending approval")
	ErrDecisionCountMismatch = errors.New("number of decisions does not match pending actions")
	ErrInvalidDecision       = errors.New("invalid decision")
	ErrImageTooLarge         = errors.New("image exceeds the maximum allowed size")
	ErrImageType             = errors.New("image type is not supported")
)

type (
	ChatStreamRequest struct {
		ThreadID     string `form:"thread_id" validate:"required,uuid"`
		Message      string `form:"message" validate:"required"`
		UserLanguage string `form:"user_language"`
	}

	// ChatImage is an image attached to a chat message.
	ChatImage struct {
		FileName    string
		ContentType string
		Data        []byte
	}

	EditedAction struct {
		Name string          `json:"name" validate:"required"`
		Args json.RawMessage `json:"args"`
	}

	// Decision answers one pending action of a paused thread.
	Decision struct {
		Type         string        `json:"type" validate:"required,oneof=approve reject edit"`
		Message      string        `json:"message,omitempty"`
		EditedAction *EditedAction `json:"edited_action,omitempty" validate:"required_if=Type edit"`
	}

	ChatResumeRequest struct {
		ThreadID     string     `json:"thread_id" validate:"required,uuid"`
		Decisions    []Decision `json:"decisions" validate:"required,min=1,dive"`
		UserLanguage string     `json:"user_language"`
	}
)
