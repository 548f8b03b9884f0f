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

type dbDefectCode struct {
	ID        uint64
	Code      string
	Name      string
	Group     sql.NullString
	Severity  int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt sql.NullTime
}

func (db *dbDefectCode) ToDTO() dto.DefectCodeDTO {
	return dto.DefectCodeDTO{
		ID:        db.ID,
		Code:      db.Code,
		Name:      db.Name,
		Group:     utils.NullStringToString(db.Group),
		Severity:  db.Severity,
		IsActive:  db.IsActive,
		CreatedAt: db.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		UpdatedAt: utils.NullTimeToEmptyString(db.UpdatedAt),
	}
}

const (
	defectCodeTable = "defect_codes"
	// group — зарезервированное слово, везде в кавычках.
	defectCodeFields = `id, code, name, "group", severity, is_active, created_at, updated_at`
)

type DefectCodeRepositoryInterface interface {
	GetDefectCodes(ctx context.Context, filter types.Filter) ([]dto.DefectCodeDTO, uint64, error)
	FindDefectCode(ctx context.Context, id uint64) (*dto.DefectCodeDTO, error)
	CreateDefectCode(ctx context.Context, payload dto.CreateDefectCodeDTO) (*dto.DefectCodeDTO, error)
	UpdateDefectCode(ctx context.Context, id uint64, payload dto.UpdateDefectCodeDTO) (*dto.DefectCodeDTO, error)
	DeactivateDefectCode(ctx context.Context, id uint64) error
}

type defectCodeRepository struct{ storage *pgxpool.Pool }

func NewDefectCodeRepository(storage *pgxpool.Pool) DefectCodeRepositoryInterface {
	return &defectCodeRepository{storage: storage}
}

func (r *defectCodeRepository) scanRow(row pgx.Row) (*dbDefectCode, error) {
	var dbRow dbDefectCode
	err := row.Scan(&dbRow.ID, &dbRow.Code, &dbRow.Name, &dbRow.Group,
		&dbRow.Severity, &dbRow.IsActive, &dbRow.CreatedAt, &dbRow.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &dbRow, nil
}

func (r *defectCodeRepository) GetDefectCodes(ctx context.Context, filter types.Filter) ([]dto.DefectCodeDTO, uint64, error) {
	var args []interface{}
	whereClauses := []string{}

	if raw, ok := filter.Filter["is_active"]; ok {
		whereClauses = append(whereClauses, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, fmt.Sprintf("%v", raw) == "true")
	} else {
		whereClauses = append(whereClauses, "is_active = TRUE")
	}

	if raw, ok := filter.Filter["group"]; ok {
		whereClauses = append(whereClauses, fmt.Sprintf(`"group" = $%d`, len(args)+1))
		args = append(args, fmt.Sprintf("%v", raw))
	}

	if filter.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	whereClause := "WHERE " + strings.Join(whereClauses, " AND ")

	var total uint64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", defectCodeTable, whereClause)
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []dto.DefectCodeDTO{}, 0, nil
	}

	queryArgs := append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY code LIMIT $%d OFFSET $%d",
		defectCodeFields, defectCodeTable, whereClause, len(args)+1, len(args)+2)

	rows, err := r.storage.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	codes := make([]dto.DefectCodeDTO, 0)
	for rows.Next() {
		var dbRow dbDefectCode
		if err := rows.Scan(&dbRow.ID, &dbRow.Code, &dbRow.Name, &dbRow.Group,
			&dbRow.Severity, &dbRow.IsActive, &dbRow.CreatedAt, &dbRow.UpdatedAt); err != nil {
			return nil, 0, err
		}
		codes = append(codes, dbRow.ToDTO())
	}
	return codes, total, rows.Err()
}

func (r *defectCodeRepository) FindDefectCode(ctx context.Context, id uint64) (*dto.DefectCodeDTO, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", defectCodeFields, defectCodeTable)
	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	codeDTO := dbRow.ToDTO()
	return &codeDTO, nil
}

func (r *defectCodeRepository) CreateDefectCode(ctx context.Context, payload dto.CreateDefectCodeDTO) (*dto.DefectCodeDTO, error) {
	query := fmt.Sprintf(`INSERT INTO %s (code, name, "group", severity) VALUES ($1, $2, $3, $4) RETURNING %s`,
		defectCodeTable, defectCodeFields)
	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, payload.Code, payload.Name, payload.Group, payload.Severity))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}
	codeDTO := dbRow.ToDTO()
	return &codeDTO, nil
}

func (r *defectCodeRepository) UpdateDefectCode(ctx context.Context, id uint64, payload dto.UpdateDefectCodeDTO) (*dto.DefectCodeDTO, error) {
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
	if payload.Group.Valid {
		setClauses = append(setClauses, fmt.Sprintf(`"group" = $%d`, argID))
		args = append(args, payload.Group.String)
		argID++
	}
	if payload.Severity.Valid {
		setClauses = append(setClauses, fmt.Sprintf("severity = $%d", argID))
		args = append(args, payload.Severity.Int)
		argID++
	}
	if payload.IsActive.Valid {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argID))
		args = append(args, payload.IsActive.Bool)
		argID++
	}
	if len(setClauses) == 0 {
		return r.FindDefectCode(ctx, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		defectCodeTable, strings.Join(setClauses, ", "), argID, defectCodeFields)
	args = append(args, id)

	dbRow, err := r.scanRow(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrConflict
		}
		return nil, err
	}
	codeDTO := dbRow.ToDTO()
	return &codeDTO, nil
}

func (r *defectCodeRepository) DeactivateDefectCode(ctx context.Context, id uint64) error {
	query := fmt.Sprintf("UPDATE %s SET is_active = FALSE, updated_at = NOW() WHERE id = $1", defectCodeTable)
	result, err := r.storage.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
