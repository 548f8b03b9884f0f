package services

import (
	"context"

	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	apperrors "mes-system/pkg/errors"
	"mes-system/pkg/service"
	"mes-system/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error)
	RefreshToken(ctx context.Context, payload dto.RefreshTokenDTO) (*dto.TokenPairDTO, error)
	GetProfile(ctx context.Context, userID uint64) (*dto.UserDTO, error)
}

type AuthService struct {
	userRepository repositories.UserRepositoryInterface
	jwtService     service.JWTService
	logger         *zap.Logger
}

func NewAuthService(
	userRepository repositories.UserRepositoryInterface,
	jwtService service.JWTService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		jwtService:     jwtService,
		logger:         logger,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error) {
	user, err := s.userRepository.FindUserByUsername(ctx, payload.Username)
	if err != nil {
		// Не раскрываем, существует ли пользователь.
		s.logger.Warn("неудачная попытка входа", zap.String("username", payload.Username))
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := utils.ComparePasswords(user.PasswordHash, payload.Password); err != nil {
		s.logger.Warn("неверный пароль", zap.String("username", payload.Username))
		return nil, apperrors.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.jwtService.GenerateTokens(int(user.ID), user.Role)
	if err != nil {
		s.logger.Error("ошибка при генерации токенов", zap.Error(err))
		return nil, err
	}

	s.logger.Info("пользователь вошёл в систему", zap.Uint64("user_id", user.ID), zap.String("role", user.Role))
	return &dto.TokenPairDTO{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, payload dto.RefreshTokenDTO) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(payload.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	// Роль и активность перечитываются из базы: токен мог пережить смену прав.
	user, err := s.userRepository.FindUserEntityByID(ctx, uint64(claims.UserID))
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, apperrors.ErrInvalidToken
	}

	accessToken, refreshToken, err := s.jwtService.GenerateTokens(int(user.ID), user.Role)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairDTO{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uint64) (*dto.UserDTO, error) {
	return s.userRepository.FindUserByID(ctx, userID)
}
