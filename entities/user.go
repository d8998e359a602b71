package entities

import "time"

// User maps an identity from the external auth provider to a local integer id.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthID    string    `gorm:"column:auth0_id;type:varchar(255);uniqueIndex;not null" json:"auth0_id"`
	Email     string    `gorm:"type:varchar(255);index" json:"email"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Surname   string    `gorm:"type:varchar(255)" json:"surname"`
	Img       string    `gorm:"type:varchar(255)" json:"img"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Threads []Thread `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipes []Recipe `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
