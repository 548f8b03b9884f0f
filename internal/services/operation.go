package services

import (
	"context"

	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	"mes-system/pkg/types"
)

type OperationServiceInterface interface {
	GetOperations(ctx context.Context, filter types.Filter) ([]dto.OperationDTO, uint64, error)
	FindOperation(ctx context.Context, id uint64) (*dto.OperationDTO, error)
	CreateOperation(ctx context.Context, payload dto.CreateOperationDTO, actorID uint64) (*dto.OperationDTO, error)
	UpdateOperation(ctx context.Context, id uint64, payload dto.UpdateOperationDTO, actorID uint64) (*dto.OperationDTO, error)
	DeactivateOperation(ctx context.Context, id uint64, actorID uint64) error
}

type OperationService struct {
	operationRepository repositories.OperationRepositoryInterface
	auditService        AuditServiceInterface
	logger              *zap.Logger
}

func NewOperationService(
	operationRepository repositories.OperationRepositoryInterface,
	auditService AuditServiceInterface,
	logger *zap.Logger,
) *OperationService {
	return &OperationService{
		operationRepository: operationRepository,
		auditService:        auditService,
		logger:              logger,
	}
}

func (s *OperationService) GetOperations(ctx context.Context, filter types.Filter) ([]dto.OperationDTO, uint64, error) {
	return s.operationRepository.GetOperations(ctx, filter)
}

func (s *OperationService) FindOperation(ctx context.Context, id uint64) (*dto.OperationDTO, error) {
	return s.operationRepository.FindOperation(ctx, id)
}

func (s *OperationService) CreateOperation(ctx context.Context, payload dto.CreateOperationDTO, actorID uint64) (*dto.OperationDTO, error) {
	operation, err := s.operationRepository.CreateOperation(ctx, payload)
	if err != nil {
		s.logger.Error("ошибка при создании операции", zap.String("code", payload.Code), zap.Error(err))
		return nil, err
	}
	s.auditService.Record(ctx, "CREATE", "operations", operation.ID, actorID, payload)
	return operation, nil
}

func (s *OperationService) UpdateOperation(ctx context.Context, id uint64, payload dto.UpdateOperationDTO, actorID uint64) (*dto.OperationDTO, error) {
	operation, err := s.operationRepository.UpdateOperation(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.auditService.Record(ctx, "UPDATE", "operations", id, actorID, payload)
	return operation, nil
}

func (s *OperationService) DeactivateOperation(ctx context.Context, id uint64, actorID uint64) error {
	if err := s.operationRepository.DeactivateOperation(ctx, id); err != nil {
		return err
	}
	s.auditService.Record(ctx, "DEACTIVATE", "operations", id, actorID, nil)
	return nil
}
