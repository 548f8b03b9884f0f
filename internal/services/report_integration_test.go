package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	"mes-system/migrations"
	apperrors "mes-system/pkg/errors"
)

type noopCacheRepo struct{}

func (noopCacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, repositories.ErrCacheMiss
}

func (noopCacheRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (noopCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error { return nil }

// Прогоняет старт/стоп через настоящие репозитории и проверяет переходы
// статусов операций и заказа.
type ReportLifecycleSuite struct {
	suite.Suite
	pool *pgxpool.Pool
	ctx  context.Context
	svc  *ReportService

	productID  uint64
	opFirstID  uint64
	opSecondID uint64
	shiftID    uint64
	operatorID uint64
	orderID    uint64
}

func TestReportLifecycleSuite(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL не задан, интеграционные тесты пропущены")
	}
	suite.Run(t, new(ReportLifecycleSuite))
}

func (s *ReportLifecycleSuite) SetupSuite() {
	s.ctx = context.Background()
	dsn := os.Getenv("TEST_DATABASE_URL")
	s.Require().NoError(migrations.Up(dsn))
	pool, err := pgxpool.New(s.ctx, dsn)
	s.Require().NoError(err)
	s.pool = pool

	logger := zap.NewNop()
	s.svc = NewReportService(
		pool,
		repositories.NewProdReportRepository(pool),
		repositories.NewOrderRepository(pool),
		noopCacheRepo{},
		NewAuditService(repositories.NewAuditRepository(pool), logger),
		logger,
	)
}

func (s *ReportLifecycleSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *ReportLifecycleSuite) SetupTest() {
	for _, table := range []string{
		"audit_logs", "defect_reports", "prod_reports", "po_operations",
		"production_orders", "routing_steps", "routing_headers",
		"defect_codes", "shifts", "operations", "products", "users",
	} {
		_, err := s.pool.Exec(s.ctx, "DELETE FROM "+table)
		s.Require().NoError(err)
	}

	suffix := time.Now().UnixNano()
	s.productID = s.seed(
		"INSERT INTO products (code, name) VALUES ($1, 'Фланец') RETURNING id",
		fmt.Sprintf("PRD-%d", suffix))
	s.opFirstID = s.seed(
		"INSERT INTO operations (code, name) VALUES ($1, 'Токарная') RETURNING id",
		fmt.Sprintf("TURN-%d", suffix))
	s.opSecondID = s.seed(
		"INSERT INTO operations (code, name) VALUES ($1, 'Контроль') RETURNING id",
		fmt.Sprintf("INSP-%d", suffix))
	s.shiftID = s.seed(
		"INSERT INTO shifts (code, name, start_time, end_time) VALUES ($1, 'Дневная', '08:00', '20:00') RETURNING id",
		fmt.Sprintf("SH-%d", suffix))
	s.operatorID = s.seed(
		"INSERT INTO users (username, password_hash, role) VALUES ($1, 'x', 'Operator') RETURNING id",
		fmt.Sprintf("operator-%d", suffix))
	s.orderID = s.seed(
		"INSERT INTO production_orders (code, product_id, qty_plan, start_plan, end_plan) VALUES ($1, $2, 100, '2026-05-01', '2026-05-10') RETURNING id",
		fmt.Sprintf("PO-%d", suffix), s.productID)

	for stepNo, opID := range map[int]uint64{10: s.opFirstID, 20: s.opSecondID} {
		_, err := s.pool.Exec(s.ctx,
			"INSERT INTO po_operations (po_id, step_no, operation_id, qty_plan) VALUES ($1, $2, $3, 100)",
			s.orderID, stepNo, opID)
		s.Require().NoError(err)
	}
}

func (s *ReportLifecycleSuite) seed(query string, args ...interface{}) uint64 {
	var id uint64
	s.Require().NoError(s.pool.QueryRow(s.ctx, query, args...).Scan(&id))
	return id
}

func (s *ReportLifecycleSuite) orderStatus() string {
	var status string
	s.Require().NoError(s.pool.QueryRow(s.ctx,
		"SELECT status FROM production_orders WHERE id = $1", s.orderID).Scan(&status))
	return status
}

func (s *ReportLifecycleSuite) operationStatus(operationID uint64) string {
	var status string
	s.Require().NoError(s.pool.QueryRow(s.ctx,
		"SELECT status FROM po_operations WHERE po_id = $1 AND operation_id = $2",
		s.orderID, operationID).Scan(&status))
	return status
}

func (s *ReportLifecycleSuite) start(operationID uint64) *dto.ProdReportDTO {
	report, err := s.svc.StartProduction(s.ctx, s.operatorID, dto.StartProductionDTO{
		POID:        s.orderID,
		OperationID: operationID,
		ShiftID:     s.shiftID,
		Line:        "L1",
	})
	s.Require().NoError(err)
	return report
}

// Старт переводит операцию в InProgress, а заказ — в In Progress.
func (s *ReportLifecycleSuite) TestStartMarksOperationAndOrderInProgress() {
	report := s.start(s.opFirstID)

	s.Empty(report.EndedAt)
	s.Zero(report.QtyOK)
	s.Equal("InProgress", s.operationStatus(s.opFirstID))
	s.Equal("Pending", s.operationStatus(s.opSecondID))
	s.Equal("In Progress", s.orderStatus())
}

func (s *ReportLifecycleSuite) TestSecondStartSameSessionRejected() {
	first := s.start(s.opFirstID)

	_, err := s.svc.StartProduction(s.ctx, s.operatorID, dto.StartProductionDTO{
		POID:        s.orderID,
		OperationID: s.opFirstID,
		ShiftID:     s.shiftID,
	})
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrActiveSessionExists)

	var httpErr *apperrors.HttpError
	s.Require().ErrorAs(err, &httpErr)
	details, ok := httpErr.Details.(map[string]interface{})
	s.Require().True(ok)
	s.Equal(first.ID, details["conflicting_report_id"])
}

// Частичный стоп ниже плана операции не меняет статусов.
func (s *ReportLifecycleSuite) TestPartialStopKeepsOperationInProgress() {
	report := s.start(s.opFirstID)

	updated, err := s.svc.StopProduction(s.ctx, s.operatorID, dto.StopProductionDTO{
		ReportID: report.ID, QtyOK: 40,
	})
	s.Require().NoError(err)

	s.Equal(40, updated.QtyOK)
	s.Empty(updated.EndedAt)
	s.Equal("InProgress", s.operationStatus(s.opFirstID))
	s.Equal("In Progress", s.orderStatus())
}

// Заказ закрывается по сумме годных со всех операций: выпуск плана на первой
// операции завершает заказ, хотя вторая (финальная) ни разу не запускалась.
func (s *ReportLifecycleSuite) TestOrderCompletesBySumAcrossOperations() {
	report := s.start(s.opFirstID)

	_, err := s.svc.StopProduction(s.ctx, s.operatorID, dto.StopProductionDTO{
		ReportID: report.ID, QtyOK: 100, RuntimeMin: 120, IsFinal: true,
	})
	s.Require().NoError(err)

	s.Equal("Completed", s.operationStatus(s.opFirstID))
	s.Equal("Pending", s.operationStatus(s.opSecondID))
	s.Equal("Completed", s.orderStatus())
}

// Достижение плана операции за два стопа помечает её Completed; заказ ещё
// открыт, пока суммарный выпуск ниже плана заказа не набран.
func (s *ReportLifecycleSuite) TestOperationCompletesOnAccumulatedThreshold() {
	report := s.start(s.opFirstID)

	_, err := s.svc.StopProduction(s.ctx, s.operatorID, dto.StopProductionDTO{
		ReportID: report.ID, QtyOK: 60,
	})
	s.Require().NoError(err)
	s.Equal("InProgress", s.operationStatus(s.opFirstID))

	_, err = s.svc.StopProduction(s.ctx, s.operatorID, dto.StopProductionDTO{
		ReportID: report.ID, QtyOK: 40, IsFinal: true,
	})
	s.Require().NoError(err)
	s.Equal("Completed", s.operationStatus(s.opFirstID))
	s.Equal("Completed", s.orderStatus())
}

// Завершённый заказ не принимает новых стартов и не откатывается назад.
func (s *ReportLifecycleSuite) TestCompletedOrderStaysCompleted() {
	report := s.start(s.opFirstID)
	_, err := s.svc.StopProduction(s.ctx, s.operatorID, dto.StopProductionDTO{
		ReportID: report.ID, QtyOK: 100, IsFinal: true,
	})
	s.Require().NoError(err)
	s.Equal("Completed", s.orderStatus())

	_, err = s.svc.StartProduction(s.ctx, s.operatorID, dto.StartProductionDTO{
		POID:        s.orderID,
		OperationID: s.opSecondID,
		ShiftID:     s.shiftID,
	})
	s.ErrorIs(err, apperrors.ErrOrderCompleted)
	s.Equal("Completed", s.orderStatus())
}
