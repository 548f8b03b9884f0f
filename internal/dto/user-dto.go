package dto

import "github.com/aarondl/null/v8"

type UserDTO struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type CreateUserDTO struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name"`
	Role     string `json:"role" validate:"required,oneof=Admin Planner QC Operator"`
}

type UpdateUserDTO struct {
	Username null.String `json:"username,omitempty"`
	Password null.String `json:"password,omitempty"`
	FullName null.String `json:"full_name,omitempty"`
	Role     null.String `json:"role,omitempty" validate:"omitempty,oneof=Admin Planner QC Operator"`
	IsActive null.Bool   `json:"is_active,omitempty"`
}
