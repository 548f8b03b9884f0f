package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	apperrors "mes-system/pkg/errors"
	"mes-system/pkg/types"
)

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, payload dto.CreateOrderDTO, actorID uint64) (*dto.OrderDTO, error)
	GetOrders(ctx context.Context, filter types.Filter) ([]dto.OrderDTO, uint64, error)
	FindOrder(ctx context.Context, id uint64) (*dto.OrderDTO, error)
	UpdateOrder(ctx context.Context, id uint64, payload dto.UpdateOrderDTO, actorID uint64) (*dto.OrderDTO, error)
	GetOrderProgress(ctx context.Context, id uint64) (*dto.OrderProgressDTO, error)
}

type OrderService struct {
	pool                 *pgxpool.Pool
	orderRepository      repositories.OrderRepositoryInterface
	routingRepository    repositories.RoutingRepositoryInterface
	productRepository    repositories.ProductRepositoryInterface
	prodReportRepository repositories.ProdReportRepositoryInterface
	auditService         AuditServiceInterface
	logger               *zap.Logger
}

func NewOrderService(
	pool *pgxpool.Pool,
	orderRepository repositories.OrderRepositoryInterface,
	routingRepository repositories.RoutingRepositoryInterface,
	productRepository repositories.ProductRepositoryInterface,
	prodReportRepository repositories.ProdReportRepositoryInterface,
	auditService AuditServiceInterface,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		pool:                 pool,
		orderRepository:      orderRepository,
		routingRepository:    routingRepository,
		productRepository:    productRepository,
		prodReportRepository: prodReportRepository,
		auditService:         auditService,
		logger:               logger,
	}
}

// CreateOrder заводит заказ и в той же транзакции снимает снапшот шагов
// активного маршрута в po_operations. Дальнейшие правки маршрута на уже
// созданный заказ не влияют.
func (s *OrderService) CreateOrder(ctx context.Context, payload dto.CreateOrderDTO, actorID uint64) (*dto.OrderDTO, error) {
	product, err := s.productRepository.FindProduct(ctx, payload.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperrors.ErrProductInactive
	}

	var orderID uint64
	err = repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		routing, err := s.routingRepository.GetActiveRoutingForProductInTx(ctx, tx, payload.ProductID)
		if err != nil {
			return err
		}

		orderID, err = s.orderRepository.CreateOrderInTx(ctx, tx, payload)
		if err != nil {
			return err
		}

		for _, step := range routing.Steps {
			if err := s.orderRepository.InsertOrderOperationInTx(ctx, tx, orderID, step, payload.QtyPlan); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("ошибка при создании заказа", zap.String("code", payload.Code), zap.Error(err))
		return nil, err
	}

	s.auditService.Record(ctx, "CREATE", "production_orders", orderID, actorID, payload)
	s.logger.Info("заказ создан", zap.Uint64("id", orderID), zap.String("code", payload.Code))
	return s.orderRepository.FindOrderByID(ctx, orderID)
}

func (s *OrderService) GetOrders(ctx context.Context, filter types.Filter) ([]dto.OrderDTO, uint64, error) {
	return s.orderRepository.GetOrders(ctx, filter)
}

func (s *OrderService) FindOrder(ctx context.Context, id uint64) (*dto.OrderDTO, error) {
	return s.orderRepository.FindOrderByID(ctx, id)
}

func (s *OrderService) UpdateOrder(ctx context.Context, id uint64, payload dto.UpdateOrderDTO, actorID uint64) (*dto.OrderDTO, error) {
	order, err := s.orderRepository.UpdateOrder(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.auditService.Record(ctx, "UPDATE", "production_orders", id, actorID, payload)
	return order, nil
}

// GetOrderProgress считает прогресс только по выходу финальной операции
// маршрута: полуфабрикат с промежуточных шагов готовой продукцией не является.
func (s *OrderService) GetOrderProgress(ctx context.Context, id uint64) (*dto.OrderProgressDTO, error) {
	order, err := s.orderRepository.FindOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}

	finalOp, err := s.orderRepository.FinalOperation(ctx, id)
	if err != nil {
		return nil, err
	}

	finalOK, err := s.prodReportRepository.SumQtyOKForOperation(ctx, id, finalOp.OperationID)
	if err != nil {
		return nil, err
	}

	progress := 0.0
	if order.QtyPlan > 0 {
		progress = float64(finalOK) / float64(order.QtyPlan)
	}

	return &dto.OrderProgressDTO{
		OrderID:          id,
		QtyPlan:          order.QtyPlan,
		FinalStepNo:      finalOp.StepNo,
		FinalOperationID: finalOp.OperationID,
		FinalOperationOK: finalOK,
		Progress:         progress,
	}, nil
}
