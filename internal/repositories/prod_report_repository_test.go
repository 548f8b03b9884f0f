package repositories

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"mes-system/internal/dto"
	"mes-system/migrations"
	apperrors "mes-system/pkg/errors"
)

// Интеграционные тесты гоняются против реальной базы; без TEST_DATABASE_URL
// пакет проходит без них.
type ProdReportSuite struct {
	suite.Suite
	pool *pgxpool.Pool
	ctx  context.Context

	productID   uint64
	operationID uint64
	shiftID     uint64
	userID      uint64
	orderID     uint64
}

func TestProdReportSuite(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL не задан, интеграционные тесты пропущены")
	}
	suite.Run(t, new(ProdReportSuite))
}

func (s *ProdReportSuite) SetupSuite() {
	s.ctx = context.Background()
	dsn := os.Getenv("TEST_DATABASE_URL")
	s.Require().NoError(migrations.Up(dsn))
	pool, err := pgxpool.New(s.ctx, dsn)
	s.Require().NoError(err)
	s.pool = pool
}

func (s *ProdReportSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *ProdReportSuite) SetupTest() {
	for _, table := range []string{
		"audit_logs", "defect_reports", "prod_reports", "po_operations",
		"production_orders", "routing_steps", "routing_headers",
		"defect_codes", "shifts", "operations", "products", "users",
	} {
		_, err := s.pool.Exec(s.ctx, "DELETE FROM "+table)
		s.Require().NoError(err)
	}

	suffix := time.Now().UnixNano()
	s.productID = s.insertReturningID(
		"INSERT INTO products (code, name) VALUES ($1, 'Корпус') RETURNING id",
		fmt.Sprintf("PRD-%d", suffix))
	s.operationID = s.insertReturningID(
		"INSERT INTO operations (code, name) VALUES ($1, 'Сборка') RETURNING id",
		fmt.Sprintf("OP-%d", suffix))
	s.shiftID = s.insertReturningID(
		"INSERT INTO shifts (code, name, start_time, end_time) VALUES ($1, 'Первая', '08:00', '16:00') RETURNING id",
		fmt.Sprintf("SH-%d", suffix))
	s.userID = s.insertReturningID(
		"INSERT INTO users (username, password_hash, role) VALUES ($1, 'x', 'Operator') RETURNING id",
		fmt.Sprintf("operator-%d", suffix))
	s.orderID = s.insertReturningID(
		"INSERT INTO production_orders (code, product_id, qty_plan, start_plan, end_plan) VALUES ($1, $2, 100, '2026-03-01', '2026-03-10') RETURNING id",
		fmt.Sprintf("PO-%d", suffix), s.productID)

	_, err := s.pool.Exec(s.ctx,
		"INSERT INTO po_operations (po_id, step_no, operation_id, qty_plan) VALUES ($1, 10, $2, 100)",
		s.orderID, s.operationID)
	s.Require().NoError(err)
}

func (s *ProdReportSuite) insertReturningID(query string, args ...interface{}) uint64 {
	var id uint64
	s.Require().NoError(s.pool.QueryRow(s.ctx, query, args...).Scan(&id))
	return id
}

func (s *ProdReportSuite) startReport() uint64 {
	repo := NewProdReportRepository(s.pool)
	var reportID uint64
	err := WithTx(s.ctx, s.pool, func(tx pgx.Tx) error {
		id, _, err := repo.InsertReportInTx(s.ctx, tx, s.userID, dto.StartProductionDTO{
			POID:        s.orderID,
			OperationID: s.operationID,
			ShiftID:     s.shiftID,
			Line:        "L1",
		})
		reportID = id
		return err
	})
	s.Require().NoError(err)
	return reportID
}

func (s *ProdReportSuite) stop(reportID uint64, payload dto.StopProductionDTO) error {
	repo := NewProdReportRepository(s.pool)
	return WithTx(s.ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := repo.LockReportInTx(s.ctx, tx, reportID); err != nil {
			return err
		}
		return repo.AccumulateInTx(s.ctx, tx, reportID, payload)
	})
}

// Несколько стопов по одной сессии складываются, заметки склеиваются,
// ended_at появляется только на финальном стопе.
func (s *ProdReportSuite) TestStopAccumulatesDeltas() {
	repo := NewProdReportRepository(s.pool)
	reportID := s.startReport()

	s.Require().NoError(s.stop(reportID, dto.StopProductionDTO{
		ReportID: reportID, QtyOK: 30, QtyNG: 2, RuntimeMin: 60, Note: "первая партия",
	}))
	s.Require().NoError(s.stop(reportID, dto.StopProductionDTO{
		ReportID: reportID, QtyOK: 20, QtyNG: 1, RuntimeMin: 45, DowntimeMin: 10, Note: "вторая партия", IsFinal: true,
	}))

	report, err := repo.FindReportByID(s.ctx, reportID)
	s.Require().NoError(err)
	s.Equal(50, report.QtyOK)
	s.Equal(3, report.QtyNG)
	s.Equal(105, report.RuntimeMin)
	s.Equal(10, report.DowntimeMin)
	s.Equal("первая партия | вторая партия", report.Note)
	s.NotEmpty(report.EndedAt)
}

func (s *ProdReportSuite) TestNonFinalStopKeepsSessionOpen() {
	repo := NewProdReportRepository(s.pool)
	reportID := s.startReport()

	s.Require().NoError(s.stop(reportID, dto.StopProductionDTO{ReportID: reportID, QtyOK: 10}))

	report, err := repo.FindReportByID(s.ctx, reportID)
	s.Require().NoError(err)
	s.Empty(report.EndedAt)

	openID, err := repo.FindOpenReportID(s.ctx, s.userID, s.orderID, s.operationID)
	s.Require().NoError(err)
	s.Equal(reportID, openID)
}

// Частичный уникальный индекс не пускает вторую открытую сессию того же
// оператора по той же операции заказа.
func (s *ProdReportSuite) TestDuplicateActiveSessionRejected() {
	repo := NewProdReportRepository(s.pool)
	s.startReport()

	err := WithTx(s.ctx, s.pool, func(tx pgx.Tx) error {
		_, _, err := repo.InsertReportInTx(s.ctx, tx, s.userID, dto.StartProductionDTO{
			POID:        s.orderID,
			OperationID: s.operationID,
			ShiftID:     s.shiftID,
		})
		return err
	})
	s.ErrorIs(err, apperrors.ErrActiveSessionExists)
}

func (s *ProdReportSuite) TestFinalStopFreesSessionSlot() {
	reportID := s.startReport()
	s.Require().NoError(s.stop(reportID, dto.StopProductionDTO{ReportID: reportID, QtyOK: 5, IsFinal: true}))

	// После закрытия индекс больше не мешает новой сессии.
	second := s.startReport()
	s.NotEqual(reportID, second)
}

func (s *ProdReportSuite) TestDefectsAttachedToReport() {
	repo := NewProdReportRepository(s.pool)
	defectCodeID := s.insertReturningID(
		`INSERT INTO defect_codes (code, name, "group") VALUES ('SCR', 'Царапина', 'Поверхность') RETURNING id`)
	reportID := s.startReport()

	err := WithTx(s.ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := repo.LockReportInTx(s.ctx, tx, reportID); err != nil {
			return err
		}
		if err := repo.AccumulateInTx(s.ctx, tx, reportID, dto.StopProductionDTO{ReportID: reportID, QtyNG: 3, IsFinal: true}); err != nil {
			return err
		}
		return repo.InsertDefectInTx(s.ctx, tx, reportID, dto.DefectInputDTO{DefectCodeID: defectCodeID, Qty: 3, Note: "на кромке"})
	})
	s.Require().NoError(err)

	report, err := repo.FindReportByID(s.ctx, reportID)
	s.Require().NoError(err)
	s.Require().Len(report.Defects, 1)
	s.Equal("SCR", report.Defects[0].DefectCode)
	s.Equal(3, report.Defects[0].Qty)
}
