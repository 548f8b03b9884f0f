package services

import (
	"context"

	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	"mes-system/pkg/types"
	"mes-system/pkg/utils"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error)
	FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO, actorID uint64) (*dto.UserDTO, error)
	UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO, actorID uint64) (*dto.UserDTO, error)
	DeactivateUser(ctx context.Context, id uint64, actorID uint64) error
}

type UserService struct {
	userRepository repositories.UserRepositoryInterface
	auditService   AuditServiceInterface
	logger         *zap.Logger
}

func NewUserService(
	userRepository repositories.UserRepositoryInterface,
	auditService AuditServiceInterface,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepository: userRepository,
		auditService:   auditService,
		logger:         logger,
	}
}

func (s *UserService) GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error) {
	return s.userRepository.GetUsers(ctx, filter)
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	return s.userRepository.FindUserByID(ctx, id)
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO, actorID uint64) (*dto.UserDTO, error) {
	passwordHash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.CreateUser(ctx, payload, passwordHash)
	if err != nil {
		s.logger.Error("ошибка при создании пользователя", zap.String("username", payload.Username), zap.Error(err))
		return nil, err
	}
	s.auditService.Record(ctx, "CREATE", "users", user.ID, actorID, payload)
	s.logger.Info("пользователь создан", zap.Uint64("id", user.ID), zap.String("role", user.Role))
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO, actorID uint64) (*dto.UserDTO, error) {
	var passwordHash string
	if payload.Password.Valid && payload.Password.String != "" {
		var err error
		passwordHash, err = utils.HashPassword(payload.Password.String)
		if err != nil {
			return nil, err
		}
	}

	user, err := s.userRepository.UpdateUser(ctx, id, payload, passwordHash)
	if err != nil {
		return nil, err
	}
	s.auditService.Record(ctx, "UPDATE", "users", id, actorID, payload)
	return user, nil
}

func (s *UserService) DeactivateUser(ctx context.Context, id uint64, actorID uint64) error {
	if err := s.userRepository.DeactivateUser(ctx, id); err != nil {
		return err
	}
	s.auditService.Record(ctx, "DEACTIVATE", "users", id, actorID, nil)
	return nil
}
