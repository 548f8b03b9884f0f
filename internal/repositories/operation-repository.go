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

type dbOperation struct {
	ID           uint64
	Code         string
	Name         string
	MachineType  string
	CycleTimeSec int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    sql.NullTime
}

func (db *dbOperation) ToDTO() dto.OperationDTO {
	return dto.OperationDTO{
		ID:           db.ID,
		Code:         db.Code,
		Name:         db.Name,
		MachineType:  db.MachineType,
		CycleTimeSec: db.CycleTimeSec,
		IsActive:     db.IsActive,
		CreatedAt:    db.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		UpdatedAt:    utils.NullTimeToEmptyString(db.UpdatedAt),
	}
}

const (
	operationTable  = "operations"
	operationFields = "id, code, name, machine_type, cycle_time_sec, is_active, created_at, updated_at"
)

type OperationRepositoryInterface interface {
	GetOperations(ctx context.Context, filter types.Filter) ([]dto.OperationDTO, uint64, error)
	FindOperation(ctx context.Context, id uint64) (*dto.OperationDTO, error)
	CreateOperation(ctx context.Context, payload dto.CreateOperationDTO) (*dto.OperationDTO, error)
	UpdateOperation(ctx context.Context, id uint64, payload dto.UpdateOperationDTO) (*dto.OperationDTO, error)
	DeactivateOperation(ctx context.Context, id uint64) error
}

type operationRepository struct{ storage *pgxpool.Pool }

func NewOperationRepository(storage *pgxpool.Pool) OperationRepositoryInterface {
	return &operationRepository{storage: storage}
}

func (r *operationRepository) scanRow(row pgx.Row) (*dbOperation, error) {
	var dbRow dbOperation
	err := row.Scan(&dbRow.ID, &dbRow.Code, &dbRow.Name, &dbRow.MachineType,
		&dbRow.CycleTimeSec, &dbRow.IsActive, &dbRow.CreatedAt, &dbRow.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &dbRow, nil
}

func (r *operationRepository) GetOperations(ctx context.Context, filter types.Filter) ([]dto.OperationDTO, uint64, error) {
	var args []interface{}
	whereClauses := []string{}

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
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", operationTable, whereClause)
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []dto.OperationDTO{}, 0, nil
	}

	queryArgs := append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY code LIMIT $%d OFFSET $%d",
		operationFields, operationTable, whereClause, len(args)+1, len(args)+2)

	rows, err := r.storage.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	operations := make([]dto.OperationDTO, 0)
	for rows.Next() {
		var dbRow dbOperation
		if err := rows.Scan(&dbRow.ID, &dbRow.Code, &dbRow.Name, &dbRow.MachineType,
			&dbRow.CycleTimeSec, &dbRow.IsActive, &dbRow.CreatedAt, &dbRow.UpdatedAt); err != nil {
			return nil, 0, err
		}
		operations = append(operations, dbRow.ToDTO())
	}
	return operations, total, rows.Err()
}

func (r *operationRepository) FindOperation(ctx context.Context, id uint64) (*dto.OperationDTO, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", operationFields, operationTable)
	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	operationDTO := dbRow.ToDTO()
	return &operationDTO, nil
}

func (r *operationRepository) CreateOperation(ctx context.Context, payload dto.CreateOperationDTO) (*dto.OperationDTO, error) {
	query := fmt.Sprintf("INSERT INTO %s (code, name, machine_type, cycle_time_sec) VALUES ($1, $2, $3, $4) RETURNING %s",
		operationTable, operationFields)
	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, payload.Code, payload.Name, payload.MachineType, payload.CycleTimeSec))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}
	operationDTO := dbRow.ToDTO()
	return &operationDTO, nil
}

func (r *operationRepository) UpdateOperation(ctx context.Context, id uint64, payload dto.UpdateOperationDTO) (*dto.OperationDTO, error) {
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
	if payload.MachineType.Valid {
		setClauses = append(setClauses, fmt.Sprintf("machine_type = $%d", argID))
		args = append(args, payload.MachineType.String)
		argID++
	}
	if payload.CycleTimeSec.Valid {
		setClauses = append(setClauses, fmt.Sprintf("cycle_time_sec = $%d", argID))
		args = append(args, payload.CycleTimeSec.Int)
		argID++
	}
	if payload.IsActive.Valid {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argID))
		args = append(args, payload.IsActive.Bool)
		argID++
	}
	if len(setClauses) == 0 {
		return r.FindOperation(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		operationTable, strings.Join(setClauses, ", "), argID, operationFields)
	args = append(args, id)

	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}
	operationDTO := dbRow.ToDTO()
	return &operationDTO, nil
}

func (r *operationRepository) DeactivateOperation(ctx context.Context, id uint64) error {
	query := fmt.Sprintf("UPDATE %s SET is_active = FALSE, updated_at = NOW() WHERE id = $1", operationTable)
	result, err := r.storage.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
