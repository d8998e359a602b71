package user

import (
	"chef-agent-api/entities"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	UserRepository interface {
		GetUserByAuthID(ctx context.Context, authID string) (*entities.User, error)
		GetUserByID(ctx context.Context, id uint) (*entities.User, error)
		CreateUserIfAbsent(ctx context.Context, user *entities.User) (*entities.User, error)
		UpdateUser(ctx context.Context, user *entities.User) error
	}

	userRepository struct {
		db *gorm.DB
	}
)

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetUserByAuthID(ctx context.Context, authID string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("auth0_id = ?", authID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUserIfAbsent inserts the user unless another request already did,
// then returns the stored row.
func (r *userRepository) CreateUserIfAbsent(ctx context.Context, user *entities.User) (*entities.User, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "auth0_id"}}, DoNothing: true}).
		Create(user).Error
	if err != nil {
		return nil, err
	}
	return r.GetUserByAuthID(ctx, user.AuthID)
}

func (r *userRepository) UpdateUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
