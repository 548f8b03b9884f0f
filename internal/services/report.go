package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	apperrors "mes-system/pkg/errors"
	"mes-system/pkg/types"
)

type ReportServiceInterface interface {
	StartProduction(ctx context.Context, userID uint64, payload dto.StartProductionDTO) (*dto.ProdReportDTO, error)
	StopProduction(ctx context.Context, userID uint64, payload dto.StopProductionDTO) (*dto.ProdReportDTO, error)
	GetReports(ctx context.Context, filter types.Filter) ([]dto.ProdReportDTO, uint64, error)
	FindReport(ctx context.Context, id uint64) (*dto.ProdReportDTO, error)
}

type ReportService struct {
	pool                 *pgxpool.Pool
	prodReportRepository repositories.ProdReportRepositoryInterface
	orderRepository      repositories.OrderRepositoryInterface
	cacheRepository      repositories.CacheRepositoryInterface
	auditService         AuditServiceInterface
	logger               *zap.Logger
}

func NewReportService(
	pool *pgxpool.Pool,
	prodReportRepository repositories.ProdReportRepositoryInterface,
	orderRepository repositories.OrderRepositoryInterface,
	cacheRepository repositories.CacheRepositoryInterface,
	auditService AuditServiceInterface,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		pool:                 pool,
		prodReportRepository: prodReportRepository,
		orderRepository:      orderRepository,
		cacheRepository:      cacheRepository,
		auditService:         auditService,
		logger:               logger,
	}
}

// StartProduction открывает рапорт-сессию оператора по операции заказа.
// Предварительная проверка дубликата дружелюбно возвращает id мешающего
// рапорта; гонку двух одновременных стартов добивает частичный уникальный
// индекс в базе.
func (s *ReportService) StartProduction(ctx context.Context, userID uint64, payload dto.StartProductionDTO) (*dto.ProdReportDTO, error) {
	order, err := s.orderRepository.FindOrderByID(ctx, payload.POID)
	if err != nil {
		return nil, err
	}
	if order.Status == "Completed" {
		return nil, apperrors.ErrOrderCompleted
	}

	if existingID, err := s.prodReportRepository.FindOpenReportID(ctx, userID, payload.POID, payload.OperationID); err == nil {
		return nil, apperrors.NewHttpError(
			http.StatusConflict,
			apperrors.ErrActiveSessionExists.Error(),
			apperrors.ErrActiveSessionExists,
			nil,
		).WithDetails(map[string]interface{}{"conflicting_report_id": existingID})
	}

	var reportID uint64
	err = repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		plan, err := s.orderRepository.GetOperationPlanInTx(ctx, tx, payload.POID, payload.OperationID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewHttpError(
					http.StatusBadRequest,
					"Операция не входит в маршрут заказа",
					apperrors.ErrBadRequest,
					map[string]interface{}{"po_id": payload.POID, "operation_id": payload.OperationID},
				)
			}
			return err
		}

		reportID, _, err = s.prodReportRepository.InsertReportInTx(ctx, tx, userID, payload)
		if err != nil {
			return err
		}

		if err := s.orderRepository.MarkInProgressInTx(ctx, tx, payload.POID); err != nil {
			return err
		}
		if plan.Status == "Pending" {
			if err := s.orderRepository.SetOperationStatusInTx(ctx, tx, plan.ID, "InProgress"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("ошибка при старте производства",
			zap.Uint64("po_id", payload.POID),
			zap.Uint64("operation_id", payload.OperationID),
			zap.Uint64("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	s.auditService.Record(ctx, "START", "prod_reports", reportID, userID, payload)
	s.logger.Info("производство начато",
		zap.Uint64("report_id", reportID),
		zap.Uint64("po_id", payload.POID),
		zap.Uint64("operation_id", payload.OperationID),
	)
	return s.prodReportRepository.FindReportByID(ctx, reportID)
}

// StopProduction закрывает (или дозаписывает) рапорт. Строка рапорта
// держится под FOR UPDATE на всё время закрытия, поэтому параллельные
// стопы по одному рапорту выстраиваются в очередь, и дельты не теряются.
func (s *ReportService) StopProduction(ctx context.Context, userID uint64, payload dto.StopProductionDTO) (*dto.ProdReportDTO, error) {
	var orderCompleted bool
	err := repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		report, err := s.prodReportRepository.LockReportInTx(ctx, tx, payload.ReportID)
		if err != nil {
			return err
		}
		if report.EndedAt.Valid {
			return apperrors.ErrReportAlreadyClosed
		}

		if err := s.prodReportRepository.AccumulateInTx(ctx, tx, report.ID, payload); err != nil {
			return err
		}
		for _, defect := range payload.Defects {
			if err := s.prodReportRepository.InsertDefectInTx(ctx, tx, report.ID, defect); err != nil {
				return err
			}
		}

		plan, err := s.orderRepository.GetOperationPlanInTx(ctx, tx, report.POID, report.OperationID)
		if err != nil {
			return err
		}
		opOK, err := s.prodReportRepository.SumQtyOKForOperationInTx(ctx, tx, report.POID, report.OperationID)
		if err != nil {
			return err
		}
		if opOK >= int64(plan.QtyPlan) && plan.Status != "Completed" {
			if err := s.orderRepository.SetOperationStatusInTx(ctx, tx, plan.ID, "Completed"); err != nil {
				return err
			}
		}

		// Заказ закрывается по сумме годных со ВСЕХ операций, а не только
		// с финальной: так ведёт себя планирование цеха.
		order, err := s.orderRepository.FindOrderByIDInTx(ctx, tx, report.POID)
		if err != nil {
			return err
		}
		totalOK, err := s.prodReportRepository.SumQtyOKForOrderInTx(ctx, tx, report.POID)
		if err != nil {
			return err
		}
		if totalOK >= int64(order.QtyPlan) && order.Status != "Completed" {
			if err := s.orderRepository.MarkCompletedInTx(ctx, tx, report.POID); err != nil {
				return err
			}
			orderCompleted = true
		}
		return nil
	})
	if err != nil {
		s.logger.Error("ошибка при остановке производства",
			zap.Uint64("report_id", payload.ReportID),
			zap.Uint64("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.cacheRepository.DeleteByPattern(ctx, "dashboard:*"); err != nil {
		s.logger.Warn("не удалось сбросить кэш дашборда", zap.Error(err))
	}

	s.auditService.Record(ctx, "STOP", "prod_reports", payload.ReportID, userID, payload)
	if orderCompleted {
		s.logger.Info("заказ выполнен по сумме годных", zap.Uint64("report_id", payload.ReportID))
	}
	return s.prodReportRepository.FindReportByID(ctx, payload.ReportID)
}

func (s *ReportService) GetReports(ctx context.Context, filter types.Filter) ([]dto.ProdReportDTO, uint64, error) {
	return s.prodReportRepository.GetReports(ctx, filter)
}

func (s *ReportService) FindReport(ctx context.Context, id uint64) (*dto.ProdReportDTO, error) {
	return s.prodReportRepository.FindReportByID(ctx, id)
}
