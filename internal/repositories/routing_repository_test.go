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

type RoutingSuite struct {
	suite.Suite
	pool *pgxpool.Pool
	ctx  context.Context

	productID uint64
	opCutID   uint64
	opWeldID  uint64
}

func TestRoutingSuite(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL не задан, интеграционные тесты пропущены")
	}
	suite.Run(t, new(RoutingSuite))
}

func (s *RoutingSuite) SetupSuite() {
	s.ctx = context.Background()
	dsn := os.Getenv("TEST_DATABASE_URL")
	s.Require().NoError(migrations.Up(dsn))
	pool, err := pgxpool.New(s.ctx, dsn)
	s.Require().NoError(err)
	s.pool = pool
}

func (s *RoutingSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *RoutingSuite) SetupTest() {
	for _, table := range []string{
		"audit_logs", "defect_reports", "prod_reports", "po_operations",
		"production_orders", "routing_steps", "routing_headers",
		"defect_codes", "shifts", "operations", "products", "users",
	} {
		_, err := s.pool.Exec(s.ctx, "DELETE FROM "+table)
		s.Require().NoError(err)
	}

	suffix := time.Now().UnixNano()
	s.productID = s.seed("INSERT INTO products (code, name) VALUES ($1, 'Кронштейн') RETURNING id",
		fmt.Sprintf("PRD-%d", suffix))
	s.opCutID = s.seed("INSERT INTO operations (code, name) VALUES ($1, 'Резка') RETURNING id",
		fmt.Sprintf("CUT-%d", suffix))
	s.opWeldID = s.seed("INSERT INTO operations (code, name) VALUES ($1, 'Сварка') RETURNING id",
		fmt.Sprintf("WELD-%d", suffix))
}

func (s *RoutingSuite) seed(query string, args ...interface{}) uint64 {
	var id uint64
	s.Require().NoError(s.pool.QueryRow(s.ctx, query, args...).Scan(&id))
	return id
}

func (s *RoutingSuite) publish(version string, steps []dto.RoutingStepInputDTO) uint64 {
	repo := NewRoutingRepository(s.pool)
	var routingID uint64
	err := WithTx(s.ctx, s.pool, func(tx pgx.Tx) error {
		if err := repo.DeactivateByProductInTx(s.ctx, tx, s.productID); err != nil {
			return err
		}
		id, _, err := repo.InsertHeaderInTx(s.ctx, tx, s.productID, version)
		if err != nil {
			return err
		}
		routingID = id
		for _, step := range steps {
			if err := repo.InsertStepInTx(s.ctx, tx, id, step); err != nil {
				return err
			}
		}
		return nil
	})
	s.Require().NoError(err)
	return routingID
}

// Публикация новой версии гасит предыдущую: активной остаётся ровно одна.
func (s *RoutingSuite) TestRepublishLeavesSingleActiveRouting() {
	repo := NewRoutingRepository(s.pool)

	s.publish("v1", []dto.RoutingStepInputDTO{{StepNo: 10, OperationID: s.opCutID}})
	second := s.publish("v2", []dto.RoutingStepInputDTO{
		{StepNo: 10, OperationID: s.opCutID, StdTimeSec: 30},
		{StepNo: 20, OperationID: s.opWeldID, StdTimeSec: 90},
	})

	var activeCount int
	s.Require().NoError(s.pool.QueryRow(s.ctx,
		"SELECT COUNT(*) FROM routing_headers WHERE product_id = $1 AND is_active = TRUE", s.productID).Scan(&activeCount))
	s.Equal(1, activeCount)

	active, err := repo.GetActiveRoutingForProduct(s.ctx, s.productID)
	s.Require().NoError(err)
	s.Equal(second, active.ID)
	s.Equal("v2", active.Version)
	s.Require().Len(active.Steps, 2)
	s.Equal(10, active.Steps[0].StepNo)
	s.Equal(20, active.Steps[1].StepNo)

	history, err := repo.ListRoutingsForProduct(s.ctx, s.productID)
	s.Require().NoError(err)
	s.Len(history, 2)
}

func (s *RoutingSuite) TestDuplicateStepNoRejectedByIndex() {
	repo := NewRoutingRepository(s.pool)
	err := WithTx(s.ctx, s.pool, func(tx pgx.Tx) error {
		id, _, err := repo.InsertHeaderInTx(s.ctx, tx, s.productID, "v1")
		if err != nil {
			return err
		}
		if err := repo.InsertStepInTx(s.ctx, tx, id, dto.RoutingStepInputDTO{StepNo: 10, OperationID: s.opCutID}); err != nil {
			return err
		}
		return repo.InsertStepInTx(s.ctx, tx, id, dto.RoutingStepInputDTO{StepNo: 10, OperationID: s.opWeldID})
	})
	s.ErrorIs(err, apperrors.ErrDuplicateStepNo)
}

func (s *RoutingSuite) TestNoActiveRouting() {
	repo := NewRoutingRepository(s.pool)
	_, err := repo.GetActiveRoutingForProduct(s.ctx, s.productID)
	s.ErrorIs(err, apperrors.ErrRoutingNotFound)
}

// Снапшот операций заказа живёт своей жизнью: перепубликация маршрута
// после создания заказа его не трогает.
func (s *RoutingSuite) TestOrderSnapshotSurvivesRoutingRepublish() {
	routingRepo := NewRoutingRepository(s.pool)
	orderRepo := NewOrderRepository(s.pool)

	s.publish("v1", []dto.RoutingStepInputDTO{
		{StepNo: 10, OperationID: s.opCutID},
		{StepNo: 20, OperationID: s.opWeldID},
	})

	var orderID uint64
	err := WithTx(s.ctx, s.pool, func(tx pgx.Tx) error {
		routing, err := routingRepo.GetActiveRoutingForProductInTx(s.ctx, tx, s.productID)
		if err != nil {
			return err
		}
		orderID, err = orderRepo.CreateOrderInTx(s.ctx, tx, dto.CreateOrderDTO{
			Code:      fmt.Sprintf("PO-%d", time.Now().UnixNano()),
			ProductID: s.productID,
			QtyPlan:   40,
			StartPlan: "2026-04-01",
			EndPlan:   "2026-04-05",
		})
		if err != nil {
			return err
		}
		for _, step := range routing.Steps {
			if err := orderRepo.InsertOrderOperationInTx(s.ctx, tx, orderID, step, 40); err != nil {
				return err
			}
		}
		return nil
	})
	s.Require().NoError(err)

	// Новая версия без сварки.
	s.publish("v2", []dto.RoutingStepInputDTO{{StepNo: 10, OperationID: s.opCutID}})

	order, err := orderRepo.FindOrderByID(s.ctx, orderID)
	s.Require().NoError(err)
	s.Require().Len(order.Operations, 2)
	s.Equal(s.opCutID, order.Operations[0].OperationID)
	s.Equal(s.opWeldID, order.Operations[1].OperationID)
	s.Equal(40, order.Operations[0].QtyPlan)
}
