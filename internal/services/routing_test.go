package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	apperrors "mes-system/pkg/errors"
)

type fakeProductRepo struct {
	repositories.ProductRepositoryInterface
	product *dto.ProductDTO
	err     error
}

func (f *fakeProductRepo) FindProduct(ctx context.Context, id uint64) (*dto.ProductDTO, error) {
	return f.product, f.err
}

func TestCreateRoutingRejectsDuplicateStepNo(t *testing.T) {
	productRepo := &fakeProductRepo{product: &dto.ProductDTO{ID: 1, IsActive: true}}
	svc := NewRoutingService(nil, nil, productRepo, NewAuditService(nil, zap.NewNop()), zap.NewNop())

	_, err := svc.CreateRouting(context.Background(), dto.CreateRoutingDTO{
		ProductID: 1,
		Version:   "v2",
		Steps: []dto.RoutingStepInputDTO{
			{StepNo: 10, OperationID: 1},
			{StepNo: 20, OperationID: 2},
			{StepNo: 10, OperationID: 3},
		},
	}, 7)

	assert.ErrorIs(t, err, apperrors.ErrDuplicateStepNo)
}

func TestCreateRoutingUnknownProduct(t *testing.T) {
	productRepo := &fakeProductRepo{err: apperrors.ErrNotFound}
	svc := NewRoutingService(nil, nil, productRepo, NewAuditService(nil, zap.NewNop()), zap.NewNop())

	_, err := svc.CreateRouting(context.Background(), dto.CreateRoutingDTO{
		ProductID: 99,
		Version:   "v1",
		Steps:     []dto.RoutingStepInputDTO{{StepNo: 10, OperationID: 1}},
	}, 7)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
