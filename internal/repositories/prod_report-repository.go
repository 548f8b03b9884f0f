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

type dbProdReport struct {
	ID            uint64
	POID          uint64
	OrderCode     string
	ProductName   string
	OperationID   uint64
	OperationName string
	OperatorID    uint64
	OperatorName  string
	ShiftID       uint64
	ShiftName     string
	Line          string
	StartedAt     time.Time
	EndedAt       sql.NullTime
	QtyOK         int
	QtyNG         int
	RuntimeMin    int
	DowntimeMin   int
	Note          string
}

func (db *dbProdReport) ToDTO() dto.ProdReportDTO {
	return dto.ProdReportDTO{
		ID:            db.ID,
		POID:          db.POID,
		OrderCode:     db.OrderCode,
		ProductName:   db.ProductName,
		OperationID:   db.OperationID,
		OperationName: db.OperationName,
		OperatorID:    db.OperatorID,
		OperatorName:  db.OperatorName,
		ShiftID:       db.ShiftID,
		ShiftName:     db.ShiftName,
		Line:          db.Line,
		StartedAt:     db.StartedAt.Local().Format("2006-01-02 15:04:05"),
		EndedAt:       utils.NullTimeToEmptyString(db.EndedAt),
		QtyOK:         db.QtyOK,
		QtyNG:         db.QtyNG,
		RuntimeMin:    db.RuntimeMin,
		DowntimeMin:   db.DowntimeMin,
		Note:          db.Note,
	}
}

const (
	prodReportTable   = "prod_reports"
	defectReportTable = "defect_reports"
	prodReportFields  = `pr.id, pr.po_id, po.code, p.name, pr.operation_id, o.name, pr.user_id, u.full_name,
		pr.shift_id, s.name, pr.line, pr.started_at, pr.ended_at, pr.qty_ok, pr.qty_ng, pr.runtime_min, pr.downtime_min, pr.note`
	prodReportJoinSQL = `prod_reports pr
		JOIN production_orders po ON po.id = pr.po_id
		JOIN products p ON p.id = po.product_id
		JOIN operations o ON o.id = pr.operation_id
		JOIN users u ON u.id = pr.user_id
		JOIN shifts s ON s.id = pr.shift_id`
)

// LockedReport — строка рапорта, захваченная FOR UPDATE на время закрытия.
type LockedReport struct {
	ID          uint64
	POID        uint64
	OperationID uint64
	UserID      uint64
	EndedAt     sql.NullTime
}

type ProdReportRepositoryInterface interface {
	InsertReportInTx(ctx context.Context, tx querier, userID uint64, payload dto.StartProductionDTO) (uint64, time.Time, error)
	FindOpenReportID(ctx context.Context, userID, poID, operationID uint64) (uint64, error)
	LockReportInTx(ctx context.Context, tx querier, reportID uint64) (*LockedReport, error)
	AccumulateInTx(ctx context.Context, tx querier, reportID uint64, payload dto.StopProductionDTO) error
	InsertDefectInTx(ctx context.Context, tx querier, reportID uint64, defect dto.DefectInputDTO) error
	SumQtyOKForOrderInTx(ctx context.Context, tx querier, poID uint64) (int64, error)
	SumQtyOKForOperationInTx(ctx context.Context, tx querier, poID, operationID uint64) (int64, error)
	SumQtyOKForOperation(ctx context.Context, poID, operationID uint64) (int64, error)
	GetReports(ctx context.Context, filter types.Filter) ([]dto.ProdReportDTO, uint64, error)
	FindReportByID(ctx context.Context, id uint64) (*dto.ProdReportDTO, error)
}

type prodReportRepository struct{ storage *pgxpool.Pool }

func NewProdReportRepository(storage *pgxpool.Pool) ProdReportRepositoryInterface {
	return &prodReportRepository{storage: storage}
}

func (r *prodReportRepository) InsertReportInTx(ctx context.Context, tx querier, userID uint64, payload dto.StartProductionDTO) (uint64, time.Time, error) {
	var id uint64
	var startedAt time.Time
	query := fmt.Sprintf(
		"INSERT INTO %s (po_id, operation_id, user_id, shift_id, line) VALUES ($1, $2, $3, $4, $5) RETURNING id, started_at",
		prodReportTable)
	err := tx.QueryRow(ctx, query, payload.POID, payload.OperationID, userID, payload.ShiftID, payload.Line).Scan(&id, &startedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				// Частичный уникальный индекс поймал гонку двух стартов.
				return 0, time.Time{}, apperrors.ErrActiveSessionExists
			case "23503":
				return 0, time.Time{}, apperrors.ErrBadRequest
			}
		}
		return 0, time.Time{}, err
	}
	return id, startedAt, nil
}

// FindOpenReportID ищет незакрытую сессию оператора по той же операции заказа.
func (r *prodReportRepository) FindOpenReportID(ctx context.Context, userID, poID, operationID uint64) (uint64, error) {
	var id uint64
	query := fmt.Sprintf(
		"SELECT id FROM %s WHERE user_id = $1 AND po_id = $2 AND operation_id = $3 AND ended_at IS NULL",
		prodReportTable)
	err := r.storage.QueryRow(ctx, query, userID, poID, operationID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

func (r *prodReportRepository) LockReportInTx(ctx context.Context, tx querier, reportID uint64) (*LockedReport, error) {
	var report LockedReport
	query := fmt.Sprintf("SELECT id, po_id, operation_id, user_id, ended_at FROM %s WHERE id = $1 FOR UPDATE", prodReportTable)
	err := tx.QueryRow(ctx, query, reportID).Scan(&report.ID, &report.POID, &report.OperationID, &report.UserID, &report.EndedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

// AccumulateInTx прибавляет дельты текущего стопа к накопленным итогам
// рапорта. Заметки склеиваются через " | ", ended_at проставляется только
// на финальном стопе.
func (r *prodReportRepository) AccumulateInTx(ctx context.Context, tx querier, reportID uint64, payload dto.StopProductionDTO) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			qty_ok = qty_ok + $1,
			qty_ng = qty_ng + $2,
			runtime_min = runtime_min + $3,
			downtime_min = downtime_min + $4,
			note = CASE WHEN $5 = '' THEN note WHEN note = '' THEN $5 ELSE note || ' | ' || $5 END,
			ended_at = CASE WHEN $6 THEN NOW() ELSE ended_at END
		WHERE id = $7`, prodReportTable)
	_, err := tx.Exec(ctx, query,
		payload.QtyOK, payload.QtyNG, payload.RuntimeMin, payload.DowntimeMin, payload.Note, payload.IsFinal, reportID)
	return err
}

func (r *prodReportRepository) InsertDefectInTx(ctx context.Context, tx querier, reportID uint64, defect dto.DefectInputDTO) error {
	var imagePath interface{}
	if defect.ImagePath != "" {
		imagePath = defect.ImagePath
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (prod_report_id, defect_code_id, qty, note, image_path) VALUES ($1, $2, $3, $4, $5)",
		defectReportTable)
	_, err := tx.Exec(ctx, query, reportID, defect.DefectCodeID, defect.Qty, defect.Note, imagePath)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperrors.ErrBadRequest
		}
		return err
	}
	return nil
}

func (r *prodReportRepository) SumQtyOKForOrderInTx(ctx context.Context, tx querier, poID uint64) (int64, error) {
	var total int64
	query := fmt.Sprintf("SELECT COALESCE(SUM(qty_ok), 0) FROM %s WHERE po_id = $1", prodReportTable)
	err := tx.QueryRow(ctx, query, poID).Scan(&total)
	return total, err
}

func (r *prodReportRepository) SumQtyOKForOperationInTx(ctx context.Context, tx querier, poID, operationID uint64) (int64, error) {
	var total int64
	query := fmt.Sprintf("SELECT COALESCE(SUM(qty_ok), 0) FROM %s WHERE po_id = $1 AND operation_id = $2", prodReportTable)
	err := tx.QueryRow(ctx, query, poID, operationID).Scan(&total)
	return total, err
}

func (r *prodReportRepository) SumQtyOKForOperation(ctx context.Context, poID, operationID uint64) (int64, error) {
	return r.SumQtyOKForOperationInTx(ctx, r.storage, poID, operationID)
}

func (r *prodReportRepository) GetReports(ctx context.Context, filter types.Filter) ([]dto.ProdReportDTO, uint64, error) {
	var args []interface{}
	whereClauses := []string{}

	for column, key := range map[string]string{
		"pr.po_id":        "po_id",
		"pr.operation_id": "operation_id",
		"pr.user_id":      "user_id",
		"pr.shift_id":     "shift_id",
	} {
		if raw, ok := filter.Filter[key]; ok {
			whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, len(args)+1))
			args = append(args, raw)
		}
	}
	if raw, ok := filter.Filter["line"]; ok {
		whereClauses = append(whereClauses, fmt.Sprintf("pr.line = $%d", len(args)+1))
		args = append(args, fmt.Sprintf("%v", raw))
	}
	if raw, ok := filter.Filter["open"]; ok && fmt.Sprintf("%v", raw) == "true" {
		whereClauses = append(whereClauses, "pr.ended_at IS NULL")
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	var total uint64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", prodReportJoinSQL, whereClause)
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []dto.ProdReportDTO{}, 0, nil
	}

	queryArgs := append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY pr.id DESC LIMIT $%d OFFSET $%d",
		prodReportFields, prodReportJoinSQL, whereClause, len(args)+1, len(args)+2)

	rows, err := r.storage.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reports := make([]dto.ProdReportDTO, 0)
	for rows.Next() {
		var dbRow dbProdReport
		if err := rows.Scan(&dbRow.ID, &dbRow.POID, &dbRow.OrderCode, &dbRow.ProductName,
			&dbRow.OperationID, &dbRow.OperationName, &dbRow.OperatorID, &dbRow.OperatorName,
			&dbRow.ShiftID, &dbRow.ShiftName, &dbRow.Line, &dbRow.StartedAt, &dbRow.EndedAt,
			&dbRow.QtyOK, &dbRow.QtyNG, &dbRow.RuntimeMin, &dbRow.DowntimeMin, &dbRow.Note); err != nil {
			return nil, 0, err
		}
		reports = append(reports, dbRow.ToDTO())
	}
	return reports, total, rows.Err()
}

func (r *prodReportRepository) FindReportByID(ctx context.Context, id uint64) (*dto.ProdReportDTO, error) {
	var dbRow dbProdReport
	query := fmt.Sprintf("SELECT %s FROM %s WHERE pr.id = $1", prodReportFields, prodReportJoinSQL)
	err := r.storage.QueryRow(ctx, query, id).Scan(&dbRow.ID, &dbRow.POID, &dbRow.OrderCode, &dbRow.ProductName,
		&dbRow.OperationID, &dbRow.OperationName, &dbRow.OperatorID, &dbRow.OperatorName,
		&dbRow.ShiftID, &dbRow.ShiftName, &dbRow.Line, &dbRow.StartedAt, &dbRow.EndedAt,
		&dbRow.QtyOK, &dbRow.QtyNG, &dbRow.RuntimeMin, &dbRow.DowntimeMin, &dbRow.Note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	reportDTO := dbRow.ToDTO()

	defectsQuery := fmt.Sprintf(`
		SELECT dr.id, dc.code, dc.name, dr.qty, dr.note, COALESCE(dr.image_path, '')
		FROM %s dr
		JOIN defect_codes dc ON dc.id = dr.defect_code_id
		WHERE dr.prod_report_id = $1
		ORDER BY dr.id`, defectReportTable)
	rows, err := r.storage.Query(ctx, defectsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var defect dto.DefectReportDTO
		if err := rows.Scan(&defect.ID, &defect.DefectCode, &defect.DefectName, &defect.Qty, &defect.Note, &defect.ImagePath); err != nil {
			return nil, err
		}
		reportDTO.Defects = append(reportDTO.Defects, defect)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &reportDTO, nil
}
