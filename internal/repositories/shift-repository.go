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

type dbShift struct {
	ID        uint64
	Code      string
	Name      string
	StartTime string
	EndTime   string
	CreatedAt time.Time
	UpdatedAt sql.NullTime
}

func (db *dbShift) ToDTO() dto.ShiftDTO {
	return dto.ShiftDTO{
		ID:        db.ID,
		Code:      db.Code,
		Name:      db.Name,
		StartTime: db.StartTime,
		EndTime:   db.EndTime,
		CreatedAt: db.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		UpdatedAt: utils.NullTimeToEmptyString(db.UpdatedAt),
	}
}

const (
	shiftTable = "shifts"
	// start_time/end_time хранятся как TIME; отдаём их строкой HH:MM.
	shiftFields = "id, code, name, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), created_at, updated_at"
)

type ShiftRepositoryInterface interface {
	GetShifts(ctx context.Context, filter types.Filter) ([]dto.ShiftDTO, uint64, error)
	FindShift(ctx context.Context, id uint64) (*dto.ShiftDTO, error)
	CreateShift(ctx context.Context, payload dto.CreateShiftDTO) (*dto.ShiftDTO, error)
	UpdateShift(ctx context.Context, id uint64, payload dto.UpdateShiftDTO) (*dto.ShiftDTO, error)
	DeleteShift(ctx context.Context, id uint64) error
}

type shiftRepository struct{ storage *pgxpool.Pool }

func NewShiftRepository(storage *pgxpool.Pool) ShiftRepositoryInterface {
	return &shiftRepository{storage: storage}
}

func (r *shiftRepository) scanRow(row pgx.Row) (*dbShift, error) {
	var dbRow dbShift
	err := row.Scan(&dbRow.ID, &dbRow.Code, &dbRow.Name, &dbRow.StartTime,
		&dbRow.EndTime, &dbRow.CreatedAt, &dbRow.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &dbRow, nil
}

func (r *shiftRepository) GetShifts(ctx context.Context, filter types.Filter) ([]dto.ShiftDTO, uint64, error) {
	var args []interface{}
	whereClause := ""

	if filter.Search != "" {
		whereClause = "WHERE (code ILIKE $1 OR name ILIKE $1)"
		args = append(args, "%"+filter.Search+"%")
	}

	var total uint64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", shiftTable, whereClause)
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []dto.ShiftDTO{}, 0, nil
	}

	queryArgs := append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY start_time LIMIT $%d OFFSET $%d",
		shiftFields, shiftTable, whereClause, len(args)+1, len(args)+2)

	rows, err := r.storage.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	shifts := make([]dto.ShiftDTO, 0)
	for rows.Next() {
		var dbRow dbShift
		if err := rows.Scan(&dbRow.ID, &dbRow.Code, &dbRow.Name, &dbRow.StartTime,
			&dbRow.EndTime, &dbRow.CreatedAt, &dbRow.UpdatedAt); err != nil {
			return nil, 0, err
		}
		shifts = append(shifts, dbRow.ToDTO())
	}
	return shifts, total, rows.Err()
}

func (r *shiftRepository) FindShift(ctx context.Context, id uint64) (*dto.ShiftDTO, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", shiftFields, shiftTable)
	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	shiftDTO := dbRow.ToDTO()
	return &shiftDTO, nil
}

func (r *shiftRepository) CreateShift(ctx context.Context, payload dto.CreateShiftDTO) (*dto.ShiftDTO, error) {
	query := fmt.Sprintf("INSERT INTO %s (code, name, start_time, end_time) VALUES ($1, $2, $3, $4) RETURNING %s",
		shiftTable, shiftFields)
	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, payload.Code, payload.Name, payload.StartTime, payload.EndTime))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}
	shiftDTO := dbRow.ToDTO()
	return &shiftDTO, nil
}

func (r *shiftRepository) UpdateShift(ctx context.Context, id uint64, payload dto.UpdateShiftDTO) (*dto.ShiftDTO, error) {
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
	if payload.StartTime.Valid {
		setClauses = append(setClauses, fmt.Sprintf("start_time = $%d", argID))
		args = append(args, payload.StartTime.String)
		argID++
	}
	if payload.EndTime.Valid {
		setClauses = append(setClauses, fmt.Sprintf("end_time = $%d", argID))
		args = append(args, payload.EndTime.String)
		argID++
	}
	if len(setClauses) == 0 {
		return r.FindShift(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		shiftTable, strings.Join(setClauses, ", "), argID, shiftFields)
	args = append(args, id)

	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}
	shiftDTO := dbRow.ToDTO()
	return &shiftDTO, nil
}

// DeleteShift удаляет смену физически: на неё ссылаются только рапорты,
// и база сама не даст удалить используемую запись.
func (r *shiftRepository) DeleteShift(ctx context.Context, id uint64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", shiftTable)
	result, err := r.storage.Exec(ctx, query, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperrors.ErrInUse
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
