package user

import (
	"chef-agent-api/domain"
	"chef-agent-api/entities"
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

type (
	UserService interface {
		GetOrCreate(ctx context.Context, identity domain.Identity) (domain.UserResponse, error)
		GetUser(ctx context.Context, userID uint) (domain.UserResponse, error)
		UpdateUser(ctx context.Context, req domain.UpdateUserRequest, userID uint) (domain.UserResponse, error)
	}

	userService struct {
		userRepository UserRepository
	}
)

func NewUserService(userRepository UserRepository) UserService {
	return &userService{userRepository: userRepository}
}

func (s *userService) GetOrCreate(ctx context.Context, identity domain.Identity) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByAuthID(ctx, identity.AuthID)
	if err == nil {
		return toResponse(user), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.UserResponse{}, err
	}

	user, err = s.userRepository.CreateUserIfAbsent(ctx, &entities.User{
		AuthID:  identity.AuthID,
		Email:   identity.Email,
		Name:    identity.Name,
		Surname: identity.Surname,
		Img:     identity.Picture,
	})
	if err != nil {
		return domain.UserResponse{}, err
	}
	log.Infof("registered user %d for identity %s", user.ID, identity.AuthID)
	return toResponse(user), nil
}

func (s *userService) GetUser(ctx context.Context, userID uint) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}
	return toResponse(user), nil
}

func (s *userService) UpdateUser(ctx context.Context, req domain.UpdateUserRequest, userID uint) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Surname != nil {
		user.Surname = *req.Surname
	}
	if req.Img != nil {
		user.Img = *req.Img
	}

	if err := s.userRepository.UpdateUser(ctx, user); err != nil {
		return domain.UserResponse{}, err
	}
	return toResponse(user), nil
}

func toResponse(user *entities.User) domain.UserResponse {
	return domain.UserResponse{
		ID:        user.ID,
		AuthID:    user.AuthID,
		Email:     user.Email,
		Name:      user.Name,
		Surname:   user.Surname,
		Img:       user.Img,
		CreatedAt: user.CreatedAt,
	}
}
