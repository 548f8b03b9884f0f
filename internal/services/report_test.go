package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	apperrors "mes-system/pkg/errors"
)

type fakeOrderRepo struct {
	repositories.OrderRepositoryInterface
	order *dto.OrderDTO
	err   error
}

func (f *fakeOrderRepo) FindOrderByID(ctx context.Context, id uint64) (*dto.OrderDTO, error) {
	return f.order, f.err
}

type fakeProdReportRepo struct {
	repositories.ProdReportRepositoryInterface
	openReportID uint64
	openErr      error
}

func (f *fakeProdReportRepo) FindOpenReportID(ctx context.Context, userID, poID, operationID uint64) (uint64, error) {
	return f.openReportID, f.openErr
}

func TestStartProductionRejectsCompletedOrder(t *testing.T) {
	orderRepo := &fakeOrderRepo{order: &dto.OrderDTO{ID: 3, Status: "Completed"}}
	svc := NewReportService(nil, &fakeProdReportRepo{}, orderRepo, nil, NewAuditService(nil, zap.NewNop()), zap.NewNop())

	_, err := svc.StartProduction(context.Background(), 5, dto.StartProductionDTO{POID: 3, OperationID: 1, ShiftID: 1})
	assert.ErrorIs(t, err, apperrors.ErrOrderCompleted)
}

func TestStartProductionReturnsConflictingReport(t *testing.T) {
	orderRepo := &fakeOrderRepo{order: &dto.OrderDTO{ID: 3, Status: "In Progress"}}
	reportRepo := &fakeProdReportRepo{openReportID: 42}
	svc := NewReportService(nil, reportRepo, orderRepo, nil, NewAuditService(nil, zap.NewNop()), zap.NewNop())

	_, err := svc.StartProduction(context.Background(), 5, dto.StartProductionDTO{POID: 3, OperationID: 1, ShiftID: 1})
	require.Error(t, err)

	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.ErrorIs(t, err, apperrors.ErrActiveSessionExists)

	details, ok := httpErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, uint64(42), details["conflicting_report_id"])
}

func TestStartProductionUnknownOrder(t *testing.T) {
	orderRepo := &fakeOrderRepo{err: apperrors.ErrNotFound}
	svc := NewReportService(nil, &fakeProdReportRepo{}, orderRepo, nil, NewAuditService(nil, zap.NewNop()), zap.NewNop())

	_, err := svc.StartProduction(context.Background(), 5, dto.StartProductionDTO{POID: 99, OperationID: 1, ShiftID: 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
