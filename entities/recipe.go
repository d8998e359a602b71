package entities

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

type Instruction struct {
	StepNumber  int    `json:"step_number"`
	Description string `json:"description"`
	TimeMinutes int    `json:"time_minutes"`
	ChefTip     string `json:"chef_tip,omitempty"`
}

type Recipe struct {
	ID           uuid.UUID                         `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID       uint                              `gorm:"index;not null" json:"user_id"`
	Name         string                            `gorm:"type:varchar(255);not null;index" json:"name"`
	Description  string                            `gorm:"type:text" json:"description"`
	PrepTime     int                               `json:"prep_time"`
	CookTime     int                               `json:"cook_time"`
	TotalTime    int                               `json:"total_time"`
	Servings     int                               `json:"servings"`
	Difficulty   string                            `gorm:"type:varchar(20)" json:"difficulty"`
	Ingredients  datatypes.JSONType[[]Ingredient]  `gorm:"type:jsonb" json:"ingredients"`
	Instructions datatypes.JSONType[[]Instruction] `gorm:"type:jsonb" json:"instructions"`
	Tags         datatypes.JSONSlice[string]       `gorm:"type:jsonb" json:"tags"`
	ImageURL     *string                           `gorm:"type:varchar(1024)" json:"image_url"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
	Timestamp
}
