package repositories

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"mes-system/internal/entities"
)

type AnalyticsRepositoryInterface interface {
	GetParetoRows(ctx context.Context, filter entities.ReportFilter, limit uint64) ([]entities.ParetoRow, error)
	GetDashboardRows(ctx context.Context, filter entities.ReportFilter) ([]entities.DashboardRow, error)
	GetOrdersOverlappingRange(ctx context.Context, from, to time.Time) ([]entities.OrderSpan, error)
	GetDailyActuals(ctx context.Context, from, to time.Time) ([]entities.DailyActual, error)
}

type analyticsRepository struct {
	storage *pgxpool.Pool
	builder sq.StatementBuilderType
}

func NewAnalyticsRepository(storage *pgxpool.Pool) AnalyticsRepositoryInterface {
	return &analyticsRepository{
		storage: storage,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func applyReportFilter(builder sq.SelectBuilder, filter entities.ReportFilter) sq.SelectBuilder {
	if filter.DateFrom != nil {
		builder = builder.Where(sq.GtOrEq{"pr.started_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		// Верхняя граница включает весь день: до начала следующих суток.
		builder = builder.Where(sq.Lt{"pr.started_at": filter.DateTo.AddDate(0, 0, 1)})
	}
	if filter.POID != nil {
		builder = builder.Where(sq.Eq{"pr.po_id": *filter.POID})
	}
	if filter.ProductID != nil {
		builder = builder.Where(sq.Eq{"po.product_id": *filter.ProductID})
	}
	if filter.OperationID != nil {
		builder = builder.Where(sq.Eq{"pr.operation_id": *filter.OperationID})
	}
	if filter.ShiftID != nil {
		builder = builder.Where(sq.Eq{"pr.shift_id": *filter.ShiftID})
	}
	if filter.Line != "" {
		builder = builder.Where(sq.Eq{"pr.line": filter.Line})
	}
	return builder
}

func (r *analyticsRepository) GetParetoRows(ctx context.Context, filter entities.ReportFilter, limit uint64) ([]entities.ParetoRow, error) {
	builder := r.builder.
		Select("dc.code", "dc.name", `dc."group"`, "SUM(dr.qty) AS total_qty").
		From("defect_reports dr").
		Join("prod_reports pr ON pr.id = dr.prod_report_id").
		Join("production_orders po ON po.id = pr.po_id").
		Join("defect_codes dc ON dc.id = dr.defect_code_id").
		GroupBy("dc.code", "dc.name", `dc."group"`).
		OrderBy("total_qty DESC", "dc.code").
		Limit(limit)
	builder = applyReportFilter(builder, filter)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]entities.ParetoRow, 0)
	for rows.Next() {
		var row entities.ParetoRow
		if err := rows.Scan(&row.DefectCode, &row.DefectName, &row.DefectGroup, &row.TotalQty); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) GetDashboardRows(ctx context.Context, filter entities.ReportFilter) ([]entities.DashboardRow, error) {
	builder := r.builder.
		Select(
			"pr.po_id", "po.code", "po.qty_plan",
			"pr.operation_id", "o.name",
			"pr.shift_id", "s.name",
			"pr.line",
			"po.product_id", "p.name",
			"SUM(pr.qty_ok)", "SUM(pr.qty_ng)", "SUM(pr.runtime_min)", "SUM(pr.downtime_min)",
		).
		From("prod_reports pr").
		Join("production_orders po ON po.id = pr.po_id").
		Join("products p ON p.id = po.product_id").
		Join("operations o ON o.id = pr.operation_id").
		Join("shifts s ON s.id = pr.shift_id").
		GroupBy("pr.po_id", "po.code", "po.qty_plan", "pr.operation_id", "o.name",
			"pr.shift_id", "s.name", "pr.line", "po.product_id", "p.name").
		OrderBy("po.code", "pr.operation_id", "pr.shift_id", "pr.line")
	builder = applyReportFilter(builder, filter)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]entities.DashboardRow, 0)
	for rows.Next() {
		var row entities.DashboardRow
		if err := rows.Scan(&row.POID, &row.POCode, &row.QtyPlan,
			&row.OperationID, &row.OperationName,
			&row.ShiftID, &row.ShiftName, &row.Line,
			&row.ProductID, &row.ProductName,
			&row.TotalQtyOK, &row.TotalQtyNG, &row.TotalRuntimeMin, &row.TotalDowntimeMin); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// GetOrdersOverlappingRange отбирает заказы, плановый интервал которых
// пересекается с запрошенным диапазоном дат.
func (r *analyticsRepository) GetOrdersOverlappingRange(ctx context.Context, from, to time.Time) ([]entities.OrderSpan, error) {
	builder := r.builder.
		Select("id", "code", "qty_plan", "start_plan", "end_plan").
		From("production_orders").
		Where(sq.LtOrEq{"start_plan": to}).
		Where(sq.GtOrEq{"end_plan": from}).
		OrderBy("id")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]entities.OrderSpan, 0)
	for rows.Next() {
		var span entities.OrderSpan
		if err := rows.Scan(&span.ID, &span.Code, &span.QtyPlan, &span.StartPlan, &span.EndPlan); err != nil {
			return nil, err
		}
		result = append(result, span)
	}
	return result, rows.Err()
}

func (r *analyticsRepository) GetDailyActuals(ctx context.Context, from, to time.Time) ([]entities.DailyActual, error) {
	builder := r.builder.
		Select("date_trunc('day', pr.started_at) AS day", "SUM(pr.qty_ok)", "SUM(pr.qty_ng)").
		From("prod_reports pr").
		Where(sq.GtOrEq{"pr.started_at": from}).
		Where(sq.Lt{"pr.started_at": to.AddDate(0, 0, 1)}).
		GroupBy("day").
		OrderBy("day")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]entities.DailyActual, 0)
	for rows.Next() {
		var actual entities.DailyActual
		if err := rows.Scan(&actual.Day, &actual.TotalOK, &actual.TotalNG); err != nil {
			return nil, err
		}
		result = append(result, actual)
	}
	return result, rows.Err()
}
