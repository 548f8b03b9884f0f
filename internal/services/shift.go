package services

import (
	"context"

	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	"mes-system/pkg/types"
)

type ShiftServiceInterface interface {
	GetShifts(ctx context.Context, filter types.Filter) ([]dto.ShiftDTO, uint64, error)
	FindShift(ctx context.Context, id uint64) (*dto.ShiftDTO, error)
	CreateShift(ctx context.Context, payload dto.CreateShiftDTO, actorID uint64) (*dto.ShiftDTO, error)
	UpdateShift(ctx context.Context, id uint64, payload dto.UpdateShiftDTO, actorID uint64) (*dto.ShiftDTO, error)
	DeleteShift(ctx context.Context, id uint64, actorID uint64) error
}

type ShiftService struct {
	shiftRepository repositories.ShiftRepositoryInterface
	auditService    AuditServiceInterface
	logger          *zap.Logger
}

func NewShiftService(
	shiftRepository repositories.ShiftRepositoryInterface,
	auditService AuditServiceInterface,
	logger *zap.Logger,
) *ShiftService {
	return &ShiftService{
		shiftRepository: shiftRepository,
		auditService:    auditService,
		logger:          logger,
	}
}

func (s *ShiftService) GetShifts(ctx context.Context, filter types.Filter) ([]dto.ShiftDTO, uint64, error) {
	return s.shiftRepository.GetShifts(ctx, filter)
}

func (s *ShiftService) FindShift(ctx context.Context, id uint64) (*dto.ShiftDTO, error) {
	return s.shiftRepository.FindShift(ctx, id)
}

func (s *ShiftService) CreateShift(ctx context.Context, payload dto.CreateShiftDTO, actorID uint64) (*dto.ShiftDTO, error) {
	shift, err := s.shiftRepository.CreateShift(ctx, payload)
	if err != nil {
		s.logger.Error("ошибка при создании смены", zap.String("code", payload.Code), zap.Error(err))
		return nil, err
	}
	s.auditService.Record(ctx, "CREATE", "shifts", shift.ID, actorID, payload)
	return shift, nil
}

func (s *ShiftService) UpdateShift(ctx context.Context, id uint64, payload dto.UpdateShiftDTO, actorID uint64) (*dto.ShiftDTO, error) {
	shift, err := s.shiftRepository.UpdateShift(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.auditService.Record(ctx, "UPDATE", "shifts", id, actorID, payload)
	return shift, nil
}

func (s *ShiftService) DeleteShift(ctx context.Context, id uint64, actorID uint64) error {
	if err := s.shiftRepository.DeleteShift(ctx, id); err != nil {
		return err
	}
	s.auditService.Record(ctx, "DELETE", "shifts", id, actorID, nil)
	return nil
}
