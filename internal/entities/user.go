package entities

import "time"

// User — учётная запись с хэшем пароля; наружу через dto.UserDTO.
type User struct {
	ID           uint64
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
