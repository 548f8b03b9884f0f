package services

import (
	"context"

	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	"mes-system/pkg/types"
)

type DefectCodeServiceInterface interface {
	GetDefectCodes(ctx context.Context, filter types.Filter) ([]dto.DefectCodeDTO, uint64, error)
	FindDefectCode(ctx context.Context, id uint64) (*dto.DefectCodeDTO, error)
	CreateDefectCode(ctx context.Context, payload dto.CreateDefectCodeDTO, actorID uint64) (*dto.DefectCodeDTO, error)
	UpdateDefectCode(ctx context.Context, id uint64, payload dto.UpdateDefectCodeDTO, actorID uint64) (*dto.DefectCodeDTO, error)
	DeactivateDefectCode(ctx context.Context, id uint64, actorID uint64) error
}

type DefectCodeService struct {
	defectCodeRepository repositories.DefectCodeRepositoryInterface
	auditService         AuditServiceInterface
	logger               *zap.Logger
}

func NewDefectCodeService(
	defectCodeRepository repositories.DefectCodeRepositoryInterface,
	auditService AuditServiceInterface,
	logger *zap.Logger,
) *DefectCodeService {
	return &DefectCodeService{
		defectCodeRepository: defectCodeRepository,
		auditService:         auditService,
		logger:               logger,
	}
}

func (s *DefectCodeService) GetDefectCodes(ctx context.Context, filter types.Filter) ([]dto.DefectCodeDTO, uint64, error) {
	return s.defectCodeRepository.GetDefectCodes(ctx, filter)
}

func (s *DefectCodeService) FindDefectCode(ctx context.Context, id uint64) (*dto.DefectCodeDTO, error) {
	return s.defectCodeRepository.FindDefectCode(ctx, id)
}

func (s *DefectCodeService) CreateDefectCode(ctx context.Context, payload dto.CreateDefectCodeDTO, actorID uint64) (*dto.DefectCodeDTO, error) {
	code, err := s.defectCodeRepository.CreateDefectCode(ctx, payload)
	if err != nil {
		s.logger.Error("ошибка при создании кода дефекта", zap.String("code", payload.Code), zap.Error(err))
		return nil, err
	}
	s.auditService.Record(ctx, "CREATE", "defect_codes", code.ID, actorID, payload)
	return code, nil
}

func (s *DefectCodeService) UpdateDefectCode(ctx context.Context, id uint64, payload dto.UpdateDefectCodeDTO, actorID uint64) (*dto.DefectCodeDTO, error) {
	code, err := s.defectCodeRepository.UpdateDefectCode(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.auditService.Record(ctx, "UPDATE", "defect_codes", id, actorID, payload)
	return code, nil
}

func (s *DefectCodeService) DeactivateDefectCode(ctx context.Context, id uint64, actorID uint64) error {
	if err := s.defectCodeRepository.DeactivateDefectCode(ctx, id); err != nil {
		return err
	}
	s.auditService.Record(ctx, "DEACTIVATE", "defect_codes", id, actorID, nil)
	return nil
}
