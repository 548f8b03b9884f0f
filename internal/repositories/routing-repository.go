package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mes-system/internal/dto"
	apperrors "mes-system/pkg/errors"
)

const (
	routingHeaderTable = "routing_headers"
	routingStepTable   = "routing_steps"
)

type RoutingRepositoryInterface interface {
	DeactivateByProductInTx(ctx context.Context, tx querier, productID uint64) error
	InsertHeaderInTx(ctx context.Context, tx querier, productID uint64, version string) (uint64, time.Time, error)
	InsertStepInTx(ctx context.Context, tx querier, routingID uint64, step dto.RoutingStepInputDTO) error
	GetActiveRoutingForProduct(ctx context.Context, productID uint64) (*dto.RoutingDTO, error)
	GetActiveRoutingForProductInTx(ctx context.Context, tx querier, productID uint64) (*dto.RoutingDTO, error)
	ListRoutingsForProduct(ctx context.Context, productID uint64) ([]dto.RoutingDTO, error)
}

type routingRepository struct{ storage *pgxpool.Pool }

func NewRoutingRepository(storage *pgxpool.Pool) RoutingRepositoryInterface {
	return &routingRepository{storage: storage}
}

func (r *routingRepository) DeactivateByProductInTx(ctx context.Context, tx querier, productID uint64) error {
	query := fmt.Sprintf("UPDATE %s SET is_active = FALSE WHERE product_id = $1 AND is_active = TRUE", routingHeaderTable)
	_, err := tx.Exec(ctx, query, productID)
	return err
}

func (r *routingRepository) InsertHeaderInTx(ctx context.Context, tx querier, productID uint64, version string) (uint64, time.Time, error) {
	var id uint64
	var createdAt time.Time
	query := fmt.Sprintf("INSERT INTO %s (product_id, version) VALUES ($1, $2) RETURNING id, created_at", routingHeaderTable)
	if err := tx.QueryRow(ctx, query, productID, version).Scan(&id, &createdAt); err != nil {
		return 0, time.Time{}, err
	}
	return id, createdAt, nil
}

func (r *routingRepository) InsertStepInTx(ctx context.Context, tx querier, routingID uint64, step dto.RoutingStepInputDTO) error {
	query := fmt.Sprintf("INSERT INTO %s (routing_id, step_no, operation_id, std_time_sec) VALUES ($1, $2, $3, $4)", routingStepTable)
	_, err := tx.Exec(ctx, query, routingID, step.StepNo, step.OperationID, step.StdTimeSec)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return apperrors.ErrDuplicateStepNo
			case "23503":
				return apperrors.ErrBadRequest
			}
		}
		return err
	}
	return nil
}

// getRouting собирает шапку и шаги активного маршрута; шаги всегда
// отсортированы по step_no.
func (r *routingRepository) getRouting(ctx context.Context, q querier, productID uint64) (*dto.RoutingDTO, error) {
	var routing dto.RoutingDTO
	var createdAt time.Time
	headerQuery := fmt.Sprintf(
		"SELECT id, product_id, version, is_active, created_at FROM %s WHERE product_id = $1 AND is_active = TRUE ORDER BY id DESC LIMIT 1",
		routingHeaderTable)
	err := q.QueryRow(ctx, headerQuery, productID).Scan(&routing.ID, &routing.ProductID, &routing.Version, &routing.IsActive, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRoutingNotFound
		}
		return nil, err
	}
	routing.CreatedAt = createdAt.Local().Format("2006-01-02 15:04:05")

	stepsQuery := fmt.Sprintf(`
		SELECT rs.step_no, rs.operation_id, o.name, rs.std_time_sec
		FROM %s rs
		JOIN operations o ON o.id = rs.operation_id
		WHERE rs.routing_id = $1
		ORDER BY rs.step_no`, routingStepTable)
	rows, err := q.Query(ctx, stepsQuery, routing.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routing.Steps = make([]dto.RoutingStepDTO, 0)
	for rows.Next() {
		var step dto.RoutingStepDTO
		if err := rows.Scan(&step.StepNo, &step.OperationID, &step.OperationName, &step.StdTimeSec); err != nil {
			return nil, err
		}
		routing.Steps = append(routing.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(routing.Steps) == 0 {
		return nil, apperrors.ErrRoutingEmpty
	}
	return &routing, nil
}

func (r *routingRepository) GetActiveRoutingForProduct(ctx context.Context, productID uint64) (*dto.RoutingDTO, error) {
	return r.getRouting(ctx, r.storage, productID)
}

func (r *routingRepository) GetActiveRoutingForProductInTx(ctx context.Context, tx querier, productID uint64) (*dto.RoutingDTO, error) {
	return r.getRouting(ctx, tx, productID)
}

func (r *routingRepository) ListRoutingsForProduct(ctx context.Context, productID uint64) ([]dto.RoutingDTO, error) {
	query := fmt.Sprintf(
		"SELECT id, product_id, version, is_active, created_at FROM %s WHERE product_id = $1 ORDER BY id DESC",
		routingHeaderTable)
	rows, err := r.storage.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routings := make([]dto.RoutingDTO, 0)
	for rows.Next() {
		var routing dto.RoutingDTO
		var createdAt time.Time
		if err := rows.Scan(&routing.ID, &routing.ProductID, &routing.Version, &routing.IsActive, &createdAt); err != nil {
			return nil, err
		}
		routing.CreatedAt = createdAt.Local().Format("2006-01-02 15:04:05")
		routings = append(routings, routing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Шаги нужны и для истории версий: фронт показывает их в раскрывашке.
	stepsQuery := fmt.Sprintf(`
		SELECT rs.routing_id, rs.step_no, rs.operation_id, o.name, rs.std_time_sec
		FROM %s rs
		JOIN %s rh ON rh.id = rs.routing_id
		JOIN operations o ON o.id = rs.operation_id
		WHERE rh.product_id = $1
		ORDER BY rs.routing_id DESC, rs.step_no`, routingStepTable, routingHeaderTable)
	stepRows, err := r.storage.Query(ctx, stepsQuery, productID)
	if err != nil {
		return nil, err
	}
	defer stepRows.Close()

	stepsByRouting := make(map[uint64][]dto.RoutingStepDTO)
	for stepRows.Next() {
		var routingID uint64
		var step dto.RoutingStepDTO
		if err := stepRows.Scan(&routingID, &step.StepNo, &step.OperationID, &step.OperationName, &step.StdTimeSec); err != nil {
			return nil, err
		}
		stepsByRouting[routingID] = append(stepsByRouting[routingID], step)
	}
	if err := stepRows.Err(); err != nil {
		return nil, err
	}

	for i := range routings {
		routings[i].Steps = stepsByRouting[routings[i].ID]
	}
	return routings, nil
}
