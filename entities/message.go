package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ThreadID   uuid.UUID      `gorm:"type:uuid;index;not null" json:"thread_id"`
	Role       string         `gorm:"type:varchar(20);not null" json:"role"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	RecipeData datatypes.JSON `gorm:"type:jsonb" json:"recipe_data,omitempty"`
	ImageURL   string         `gorm:"type:varchar(1024)" json:"image_url,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Thread *Thread `gorm:"foreignKey:ThreadID" json:"-"`
}
