package services

import (
	"context"

	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/repositories"
	"mes-system/pkg/types"
)

type ProductServiceInterface interface {
	GetProducts(ctx context.Context, filter types.Filter) ([]dto.ProductDTO, uint64, error)
	FindProduct(ctx context.Context, id uint64) (*dto.ProductDTO, error)
	CreateProduct(ctx context.Context, payload dto.CreateProductDTO, actorID uint64) (*dto.ProductDTO, error)
	UpdateProduct(ctx context.Context, id uint64, payload dto.UpdateProductDTO, actorID uint64) (*dto.ProductDTO, error)
	DeactivateProduct(ctx context.Context, id uint64, actorID uint64) error
}

type ProductService struct {
	productRepository repositories.ProductRepositoryInterface
	auditService      AuditServiceInterface
	logger            *zap.Logger
}

func NewProductService(
	productRepository repositories.ProductRepositoryInterface,
	auditService AuditServiceInterface,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepository: productRepository,
		auditService:      auditService,
		logger:            logger,
	}
}

func (s *ProductService) GetProducts(ctx context.Context, filter types.Filter) ([]dto.ProductDTO, uint64, error) {
	return s.productRepository.GetProducts(ctx, filter)
}

func (s *ProductService) FindProduct(ctx context.Context, id uint64) (*dto.ProductDTO, error) {
	return s.productRepository.FindProduct(ctx, id)
}

func (s *ProductService) CreateProduct(ctx context.Context, payload dto.CreateProductDTO, actorID uint64) (*dto.ProductDTO, error) {
	product, err := s.productRepository.CreateProduct(ctx, payload)
	if err != nil {
		s.logger.Error("ошибка при создании продукта", zap.String("code", payload.Code), zap.Error(err))
		return nil, err
	}
	s.auditService.Record(ctx, "CREATE", "products", product.ID, actorID, payload)
	s.logger.Info("продукт создан", zap.Uint64("id", product.ID), zap.String("code", product.Code))
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uint64, payload dto.UpdateProductDTO, actorID uint64) (*dto.ProductDTO, error) {
	product, err := s.productRepository.UpdateProduct(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.auditService.Record(ctx, "UPDATE", "products", id, actorID, payload)
	return product, nil
}

func (s *ProductService) DeactivateProduct(ctx context.Context, id uint64, actorID uint64) error {
	if err := s.productRepository.DeactivateProduct(ctx, id); err != nil {
		return err
	}
	s.auditService.Record(ctx, "DEACTIVATE", "products", id, actorID, nil)
	return nil
}
