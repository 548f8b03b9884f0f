package repositories

import (
	"context"
	"database/sql"
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

type dbOrder struct {
	ID          uint64
	Code        string
	ProductID   uint64
	ProductName string
	QtyPlan     int
	StartPlan   time.Time
	EndPlan     time.Time
	Status      string
	CreatedAt   time.Time
	UpdatedAt   sql.NullTime
}

func (db *dbOrder) ToDTO() dto.OrderDTO {
	return dto.OrderDTO{
		ID:          db.ID,
		Code:        db.Code,
		ProductID:   db.ProductID,
		ProductName: db.ProductName,
		QtyPlan:     db.QtyPlan,
		StartPlan:   db.StartPlan.Format("2006-01-02"),
		EndPlan:     db.EndPlan.Format("2006-01-02"),
		Status:      db.Status,
		CreatedAt:   db.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		UpdatedAt:   utils.NullTimeToEmptyString(db.UpdatedAt),
	}
}

const (
	orderTable   = "production_orders"
	poOpTable    = "po_operations"
	orderFields  = "po.id, po.code, po.product_id, p.name, po.qty_plan, po.start_plan, po.end_plan, po.status, po.created_at, po.updated_at"
	orderJoinSQL = "production_orders po JOIN products p ON p.id = po.product_id"
)

// OrderOperationPlan — плановая строка снапшота операции заказа,
// используется при закрытии рапортов.
type OrderOperationPlan struct {
	ID      uint64
	StepNo  int
	QtyPlan int
	Status  string
}

type OrderRepositoryInterface interface {
	CreateOrderInTx(ctx context.Context, tx querier, payload dto.CreateOrderDTO) (uint64, error)
	InsertOrderOperationInTx(ctx context.Context, tx querier, poID uint64, step dto.RoutingStepDTO, qtyPlan int) error
	GetOrders(ctx context.Context, filter types.Filter) ([]dto.OrderDTO, uint64, error)
	FindOrderByID(ctx context.Context, id uint64) (*dto.OrderDTO, error)
	UpdateOrder(ctx context.Context, id uint64, payload dto.UpdateOrderDTO) (*dto.OrderDTO, error)
	FindOrderByIDInTx(ctx context.Context, tx querier, id uint64) (*dto.OrderDTO, error)
	MarkInProgressInTx(ctx context.Context, tx querier, id uint64) error
	MarkCompletedInTx(ctx context.Context, tx querier, id uint64) error
	GetOperationPlanInTx(ctx context.Context, tx querier, poID, operationID uint64) (*OrderOperationPlan, error)
	SetOperationStatusInTx(ctx context.Context, tx querier, poOpID uint64, status string) error
	FinalOperation(ctx context.Context, poID uint64) (*dto.OrderOperationDTO, error)
}

type orderRepository struct{ storage *pgxpool.Pool }

func NewOrderRepository(storage *pgxpool.Pool) OrderRepositoryInterface {
	return &orderRepository{storage: storage}
}

func (r *orderRepository) CreateOrderInTx(ctx context.Context, tx querier, payload dto.CreateOrderDTO) (uint64, error) {
	var id uint64
	query := fmt.Sprintf("INSERT INTO %s (code, product_id, qty_plan, start_plan, end_plan) VALUES ($1, $2, $3, $4, $5) RETURNING id", orderTable)
	err := tx.QueryRow(ctx, query, payload.Code, payload.ProductID, payload.QtyPlan, payload.StartPlan, payload.EndPlan).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, apperrors.ErrConflict
		}
		return 0, err
	}
	return id, nil
}

// InsertOrderOperationInTx снимает шаг маршрута в снапшот заказа. Плановое
// количество на каждой операции равно плану заказа целиком.
func (r *orderRepository) InsertOrderOperationInTx(ctx context.Context, tx querier, poID uint64, step dto.RoutingStepDTO, qtyPlan int) error {
	query := fmt.Sprintf("INSERT INTO %s (po_id, step_no, operation_id, qty_plan) VALUES ($1, $2, $3, $4)", poOpTable)
	_, err := tx.Exec(ctx, query, poID, step.StepNo, step.OperationID, qtyPlan)
	return err
}

func (r *orderRepository) scanOrder(row pgx.Row) (*dbOrder, error) {
	var dbRow dbOrder
	err := row.Scan(&dbRow.ID, &dbRow.Code, &dbRow.ProductID, &dbRow.ProductName, &dbRow.QtyPlan,
		&dbRow.StartPlan, &dbRow.EndPlan, &dbRow.Status, &dbRow.CreatedAt, &dbRow.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &dbRow, nil
}

func (r *orderRepository) GetOrders(ctx context.Context, filter types.Filter) ([]dto.OrderDTO, uint64, error) {
	var args []interface{}
	whereClauses := []string{}

	if raw, ok := filter.Filter["status"]; ok {
		whereClauses = append(whereClauses, fmt.Sprintf("po.status = $%d", len(args)+1))
		args = append(args, fmt.Sprintf("%v", raw))
	}
	if raw, ok := filter.Filter["product_id"]; ok {
		whereClauses = append(whereClauses, fmt.Sprintf("po.product_id = $%d", len(args)+1))
		args = append(args, raw)
	}
	if filter.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(po.code ILIKE $%d OR p.name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	var total uint64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", orderJoinSQL, whereClause)
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []dto.OrderDTO{}, 0, nil
	}

	queryArgs := append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY po.id DESC LIMIT $%d OFFSET $%d",
		orderFields, orderJoinSQL, whereClause, len(args)+1, len(args)+2)

	rows, err := r.storage.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]dto.OrderDTO, 0)
	for rows.Next() {
		var dbRow dbOrder
		if err := rows.Scan(&dbRow.ID, &dbRow.Code, &dbRow.ProductID, &dbRow.ProductName, &dbRow.QtyPlan,
			&dbRow.StartPlan, &dbRow.EndPlan, &dbRow.Status, &dbRow.CreatedAt, &dbRow.UpdatedAt); err != nil {
			return nil, 0, err
		}
		orders = append(orders, dbRow.ToDTO())
	}
	return orders, total, rows.Err()
}

func (r *orderRepository) FindOrderByID(ctx context.Context, id uint64) (*dto.OrderDTO, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE po.id = $1", orderFields, orderJoinSQL)
	dbRow, err := r.scanOrder(r.storage.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	orderDTO := dbRow.ToDTO()

	opsQuery := fmt.Sprintf(`
		SELECT op.id, op.step_no, op.operation_id, o.name, op.qty_plan, op.status
		FROM %s op
		JOIN operations o ON o.id = op.operation_id
		WHERE op.po_id = $1
		ORDER BY op.step_no`, poOpTable)
	rows, err := r.storage.Query(ctx, opsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var op dto.OrderOperationDTO
		if err := rows.Scan(&op.ID, &op.StepNo, &op.OperationID, &op.OperationName, &op.QtyPlan, &op.Status); err != nil {
			return nil, err
		}
		orderDTO.Operations = append(orderDTO.Operations, op)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &orderDTO, nil
}

func (r *orderRepository) UpdateOrder(ctx context.Context, id uint64, payload dto.UpdateOrderDTO) (*dto.OrderDTO, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET code = $1, product_id = $2, qty_plan = $3, start_plan = $4, end_plan = $5, status = $6, updated_at = NOW()
		WHERE id = $7 RETURNING id`, orderTable)
	var updatedID uint64
	err := r.storage.QueryRow(ctx, query,
		payload.Code, payload.ProductID, payload.QtyPlan, payload.StartPlan, payload.EndPlan, payload.Status, id).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}
	return r.FindOrderByID(ctx, updatedID)
}

func (r *orderRepository) FindOrderByIDInTx(ctx context.Context, tx querier, id uint64) (*dto.OrderDTO, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE po.id = $1", orderFields, orderJoinSQL)
	dbRow, err := r.scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	orderDTO := dbRow.ToDTO()
	return &orderDTO, nil
}

// MarkInProgressInTx переводит заказ в работу только из Open: повторный
// старт по уже идущему заказу статус не трогает.
func (r *orderRepository) MarkInProgressInTx(ctx context.Context, tx querier, id uint64) error {
	query := fmt.Sprintf("UPDATE %s SET status = 'In Progress', updated_at = NOW() WHERE id = $1 AND status = 'Open'", orderTable)
	_, err := tx.Exec(ctx, query, id)
	return err
}

func (r *orderRepository) MarkCompletedInTx(ctx context.Context, tx querier, id uint64) error {
	query := fmt.Sprintf("UPDATE %s SET status = 'Completed', updated_at = NOW() WHERE id = $1 AND status <> 'Completed'", orderTable)
	_, err := tx.Exec(ctx, query, id)
	return err
}

func (r *orderRepository) GetOperationPlanInTx(ctx context.Context, tx querier, poID, operationID uint64) (*OrderOperationPlan, error) {
	var plan OrderOperationPlan
	query := fmt.Sprintf("SELECT id, step_no, qty_plan, status FROM %s WHERE po_id = $1 AND operation_id = $2", poOpTable)
	err := tx.QueryRow(ctx, query, poID, operationID).Scan(&plan.ID, &plan.StepNo, &plan.QtyPlan, &plan.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *orderRepository) SetOperationStatusInTx(ctx context.Context, tx querier, poOpID uint64, status string) error {
	query := fmt.Sprintf("UPDATE %s SET status = $1 WHERE id = $2", poOpTable)
	_, err := tx.Exec(ctx, query, status, poOpID)
	return err
}

// FinalOperation возвращает последний шаг снапшота заказа.
func (r *orderRepository) FinalOperation(ctx context.Context, poID uint64) (*dto.OrderOperationDTO, error) {
	var op dto.OrderOperationDTO
	query := fmt.Sprintf(`
		SELECT op.id, op.step_no, op.operation_id, o.name, op.qty_plan, op.status
		FROM %s op
		JOIN operations o ON o.id = op.operation_id
		WHERE op.po_id = $1
		ORDER BY op.step_no DESC LIMIT 1`, poOpTable)
	err := r.storage.QueryRow(ctx, query, poID).Scan(&op.ID, &op.StepNo, &op.OperationID, &op.OperationName, &op.QtyPlan, &op.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &op, nil
}
