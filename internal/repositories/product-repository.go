package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mes-system/internal/dto"
	apperrors "mes-system/pkg/errors"
	"mes-system/pkg/types"
	"mes-system/pkg/utils"
)

type dbProduct struct {
	ID          uint64
	Code        string
	Name        string
	Version     string
	UOM         string
	QualitySpec []byte
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   sql.NullTime
}

func (db *dbProduct) ToDTO() dto.ProductDTO {
	var spec map[string]interface{}
	if len(db.QualitySpec) > 0 {
		// Блоб прозрачно прокидывается как есть; структура внутри не интерпретируется.
		_ = json.Unmarshal(db.QualitySpec, &spec)
	}
	return dto.ProductDTO{
		ID:          db.ID,
		Code:        db.Code,
		Name:        db.Name,
		Version:     db.Version,
		UOM:         db.UOM,
		QualitySpec: spec,
		IsActive:    db.IsActive,
		CreatedAt:   db.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		UpdatedAt:   utils.NullTimeToEmptyString(db.UpdatedAt),
	}
}

const (
	productTable  = "products"
	productFields = "id, code, name, version, uom, quality_spec_json, is_active, created_at, updated_at"
)

type ProductRepositoryInterface interface {
	GetProducts(ctx context.Context, filter types.Filter) ([]dto.ProductDTO, uint64, error)
	FindProduct(ctx context.Context, id uint64) (*dto.ProductDTO, error)
	CreateProduct(ctx context.Context, payload dto.CreateProductDTO) (*dto.ProductDTO, error)
	UpdateProduct(ctx context.Context, id uint64, payload dto.UpdateProductDTO) (*dto.ProductDTO, error)
	DeactivateProduct(ctx context.Context, id uint64) error
}

type productRepository struct{ storage *pgxpool.Pool }

func NewProductRepository(storage *pgxpool.Pool) ProductRepositoryInterface {
	return &productRepository{storage: storage}
}

func (r *productRepository) scanRow(row pgx.Row) (*dbProduct, error) {
	var dbRow dbProduct
	err := row.Scan(&dbRow.ID, &dbRow.Code, &dbRow.Name, &dbRow.Version, &dbRow.UOM,
		&dbRow.QualitySpec, &dbRow.IsActive, &dbRow.CreatedAt, &dbRow.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &dbRow, nil
}

func (r *productRepository) GetProducts(ctx context.Context, filter types.Filter) ([]dto.ProductDTO, uint64, error) {
	var args []interface{}
	whereClauses := []string{}

	// По умолчанию отдаём только активные; filter[is_active]=false переключает.
	if raw, ok := filter.Filter["is_active"]; ok {
		whereClauses = append(whereClauses, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, fmt.Sprintf("%v", raw) == "true")
	} else {
		whereClauses = append(whereClauses, "is_active = TRUE")
	}

	if filter.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	whereClause := "WHERE " + strings.Join(whereClauses, " AND ")

	var total uint64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", productTable, whereClause)
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []dto.ProductDTO{}, 0, nil
	}

	queryArgs := append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY name LIMIT $%d OFFSET $%d",
		productFields, productTable, whereClause, len(args)+1, len(args)+2)

	rows, err := r.storage.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]dto.ProductDTO, 0)
	for rows.Next() {
		var dbRow dbProduct
		if err := rows.Scan(&dbRow.ID, &dbRow.Code, &dbRow.Name, &dbRow.Version, &dbRow.UOM,
			&dbRow.QualitySpec, &dbRow.IsActive, &dbRow.CreatedAt, &dbRow.UpdatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, dbRow.ToDTO())
	}
	return products, total, rows.Err()
}

func (r *productRepository) FindProduct(ctx context.Context, id uint64) (*dto.ProductDTO, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", productFields, productTable)
	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	productDTO := dbRow.ToDTO()
	return &productDTO, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, payload dto.CreateProductDTO) (*dto.ProductDTO, error) {
	var specJSON []byte
	if payload.QualitySpec != nil {
		var err error
		specJSON, err = json.Marshal(payload.QualitySpec)
		if err != nil {
			return nil, fmt.Errorf("не удалось сериализовать quality_spec: %w", err)
		}
	}

	uom := payload.UOM
	if uom == "" {
		uom = "pcs"
	}

	query := fmt.Sprintf("INSERT INTO %s (code, name, version, uom, quality_spec_json) VALUES ($1, $2, $3, $4, $5) RETURNING %s",
		productTable, productFields)
	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, payload.Code, payload.Name, payload.Version, uom, specJSON))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}
	productDTO := dbRow.ToDTO()
	return &productDTO, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, id uint64, payload dto.UpdateProductDTO) (*dto.ProductDTO, error) {
	var setClauses []string
	var args []interface{}
	argID := 1

	if payload.Code.Valid {
		setClauses = append(setClauses, fmt.Sprintf("code = $%d", argID))
		args = append(args, payload.Code.String)
		argID++
	}
	if payload.Name.Valid {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argID))
		args = append(args, payload.Name.String)
		argID++
	}
	if payload.Version.Valid {
		setClauses = append(setClauses, fmt.Sprintf("version = $%d", argID))
		args = append(args, payload.Version.String)
		argID++
	}
	if payload.UOM.Valid {
		setClauses = append(setClauses, fmt.Sprintf("uom = $%d", argID))
		args = append(args, payload.UOM.String)
		argID++
	}
	if payload.QualitySpec != nil {
		specJSON, err := json.Marshal(payload.QualitySpec)
		if err != nil {
			return nil, fmt.Errorf("не удалось сериализовать quality_spec: %w", err)
		}
		setClauses = append(setClauses, fmt.Sprintf("quality_spec_json = $%d", argID))
		args = append(args, specJSON)
		argID++
	}
	if payload.IsActive.Valid {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argID))
		args = append(args, payload.IsActive.Bool)
		argID++
	}
	if len(setClauses) == 0 {
		return r.FindProduct(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		productTable, strings.Join(setClauses, ", "), argID, productFields)
	args = append(args, id)

	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}
	productDTO := dbRow.ToDTO()
	return &productDTO, nil
}

// DeactivateProduct — мягкое удаление: продукт никогда не удаляется физически,
// пока на него ссылаются заказы.
func (r *productRepository) DeactivateProduct(ctx context.Context, id uint64) error {
	query := fmt.Sprintf("UPDATE %s SET is_active = FALSE, updated_at = NOW() WHERE id = $1", productTable)
	result, err := r.storage.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
