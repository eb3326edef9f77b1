package dto

import "github.com/spec-kit/contest-service/internal/domain"

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Username string `json:"username"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// NewUserResponse maps a user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{ID: user.ID, Username: user.Username}
}
