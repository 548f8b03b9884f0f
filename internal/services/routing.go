package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	apperrors "mes-system/pkg/errors"
)

type RoutingServiceInterface interface {
	CreateRouting(ctx context.Context, payload dto.CreateRoutingDTO, actorID uint64) (*dto.RoutingDTO, error)
	GetActiveRouting(ctx context.Context, productID uint64) (*dto.RoutingDTO, error)
	ListRoutingsForProduct(ctx context.Context, productID uint64) ([]dto.RoutingDTO, error)
}

type RoutingService struct {
	pool              *pgxpool.Pool
	routingRepository repositories.RoutingRepositoryInterface
	productRepository repositories.ProductRepositoryInterface
	auditService      AuditServiceInterface
	logger            *zap.Logger
}

func NewRoutingService(
	pool *pgxpool.Pool,
	routingRepository repositories.RoutingRepositoryInterface,
	productRepository repositories.ProductRepositoryInterface,
	auditService AuditServiceInterface,
	logger *zap.Logger,
) *RoutingService {
	return &RoutingService{
		pool:              pool,
		routingRepository: routingRepository,
		productRepository: productRepository,
		auditService:      auditService,
		logger:            logger,
	}
}

// CreateRouting публикует новую версию маршрута. Все прежние активные
// версии продукта гасятся в той же транзакции, поэтому активный маршрут
// у продукта всегда ровно один.
func (s *RoutingService) CreateRouting(ctx context.Context, payload dto.CreateRoutingDTO, actorID uint64) (*dto.RoutingDTO, error) {
	if _, err := s.productRepository.FindProduct(ctx, payload.ProductID); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(payload.Steps))
	for _, step := range payload.Steps {
		if seen[step.StepNo] {
			return nil, apperrors.ErrDuplicateStepNo
		}
		seen[step.StepNo] = true
	}

	var routingID uint64
	err := repositories.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.routingRepository.DeactivateByProductInTx(ctx, tx, payload.ProductID); err != nil {
			return err
		}
		id, _, err := s.routingRepository.InsertHeaderInTx(ctx, tx, payload.ProductID, payload.Version)
		if err != nil {
			return err
		}
		routingID = id
		for _, step := range payload.Steps {
			if err := s.routingRepository.InsertStepInTx(ctx, tx, routingID, step); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("ошибка при создании маршрута",
			zap.Uint64("product_id", payload.ProductID),
			zap.String("version", payload.Version),
			zap.Error(err),
		)
		return nil, err
	}

	s.auditService.Record(ctx, "CREATE", "routing_headers", routingID, actorID, payload)
	s.logger.Info("маршрут опубликован",
		zap.Uint64("routing_id", routingID),
		zap.Uint64("product_id", payload.ProductID),
		zap.String("version", payload.Version),
	)
	return s.routingRepository.GetActiveRoutingForProduct(ctx, payload.ProductID)
}

func (s *RoutingService) GetActiveRouting(ctx context.Context, productID uint64) (*dto.RoutingDTO, error) {
	return s.routingRepository.GetActiveRoutingForProduct(ctx, productID)
}

func (s *RoutingService) ListRoutingsForProduct(ctx context.Context, productID uint64) ([]dto.RoutingDTO, error) {
	if _, err := s.productRepository.FindProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.routingRepository.ListRoutingsForProduct(ctx, productID)
}
