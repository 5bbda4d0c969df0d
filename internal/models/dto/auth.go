package dto

import "github.com/hongminglow/jiahe-fees/internal/models"

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=EXT KEEP MGR ADMIN"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=EXT KEEP MGR ADMIN"`
}
