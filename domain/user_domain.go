package domain

import "time"

var (
	MessageSuccessGetUser    = "success get user"
	MessageSuccessUpdateUser = "user updated successfully"

	MessageFailedGetUser    = "failed to get user"
	MessageFailedUpdateUser = "failed to update user"
)

type (
	UpdateUserRequest struct {
		Name    *string `json:"name" validate:"omitempty,max=255"`
		Surname *string `json:"surname" validate:"omitempty,max=255"`
		Img     *string `json:"img" validate:"omitempty,url,max=255"`
	}

	// Identity is what the auth provider asserts about the caller.
	Identity struct {
		AuthID  string
		Email   string
		Name    string
		Surname string
		Picture string
	}

	UserResponse struct {
		ID        uint      `json:"id"`
		AuthID    string    `json:"auth0_id"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		Surname   string    `json:"surname"`
		Img       string    `json:"img"`
		CreatedAt time.Time `json:"created_at"`
	}
)
