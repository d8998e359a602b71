package entities

import (
	"time"

	"gorm.io/datatypes"
)

// AgentCheckpoint holds the latest serialized conversation state of a thread.
type AgentCheckpoint struct {
	ThreadID  string         `gorm:"type:varchar(64);primaryKey" json:"thread_id"`
	Namespace string         `gorm:"type:varchar(64);primaryKey" json:"namespace"`
	State     datatypes.JSON `gorm:"type:jsonb;not null" json:"state"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
