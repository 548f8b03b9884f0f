package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/entities"
	"mes-system/internal/services"
	apperrors "mes-system/pkg/errors"
	"mes-system/pkg/utils"
)

const defaultParetoLimit = 10

type DashboardController struct {
	analyticsService services.AnalyticsServiceInterface
	logger           *zap.Logger
}

func NewDashboardController(analyticsService services.AnalyticsServiceInterface, logger *zap.Logger) *DashboardController {
	return &DashboardController{analyticsService: analyticsService, logger: logger}
}

func parseReportFilter(ctx echo.Context) (entities.ReportFilter, error) {
	var filter entities.ReportFilter

	for name, target := range map[string]**time.Time{
		"date_from": &filter.DateFrom,
		"date_to":   &filter.DateTo,
	} {
		raw := ctx.QueryParam(name)
		if raw == "" {
			continue
		}
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return filter, apperrors.NewInvalidInputError("параметр %s должен быть датой в формате YYYY-MM-DD", name)
		}
		*target = &parsed
	}

	for name, target := range map[string]**uint64{
		"po_id":        &filter.POID,
		"product_id":   &filter.ProductID,
		"operation_id": &filter.OperationID,
		"shift_id":     &filter.ShiftID,
	} {
		raw := ctx.QueryParam(name)
		if raw == "" {
			continue
		}
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, apperrors.NewInvalidInputError("параметр %s должен быть числом", name)
		}
		*target = &parsed
	}

	filter.Line = ctx.QueryParam("line")
	return filter, nil
}

func (c *DashboardController) GetSummary(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	filter, err := parseReportFilter(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	rows, err := c.analyticsService.GetDashboard(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, rows, "Сводка дашборда успешно получена", http.StatusOK)
}

func (c *DashboardController) GetPareto(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	filter, err := parseReportFilter(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	limit := uint64(defaultParetoLimit)
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			return utils.ErrorResponse(ctx,
				apperrors.NewInvalidInputError("параметр limit должен быть положительным числом"), c.logger)
		}
		limit = parsed
	}

	rows, err := c.analyticsService.GetPareto(reqCtx, filter, limit)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if ctx.QueryParam("format") == "xlsx" {
		return c.exportParetoXLSX(ctx, rows)
	}
	return utils.SuccessResponse(ctx, rows, "Pareto-отчёт по дефектам успешно получен", http.StatusOK)
}

func (c *DashboardController) GetDaily(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	from, err := parseRequiredDate(ctx, "date_from")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	to, err := parseRequiredDate(ctx, "date_to")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	rows, err := c.analyticsService.GetDailyReport(reqCtx, from, to)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if ctx.QueryParam("format") == "xlsx" {
		return c.exportDailyXLSX(ctx, rows)
	}
	return utils.SuccessResponse(ctx, rows, "Дневной план/факт успешно получен", http.StatusOK)
}

func parseRequiredDate(ctx echo.Context, name string) (time.Time, error) {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return time.Time{}, apperrors.NewInvalidInputError("параметр %s обязателен", name)
	}
	parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, apperrors.NewInvalidInputError("параметр %s должен быть датой в формате YYYY-MM-DD", name)
	}
	return parsed, nil
}

func (c *DashboardController) exportParetoXLSX(ctx echo.Context, rows []dto.ParetoRowDTO) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"Код дефекта", "Наименование", "Группа", "Кол-во", "Накопл. кол-во", "Накопл. доля"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}
	for rowIdx, row := range rows {
		values := []interface{}{row.DefectCode, row.DefectName, row.DefectGroup, row.TotalQty, row.CumulativeQty, row.CumulativePercentage}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	return writeXLSX(ctx, f, fmt.Sprintf("pareto-%s.xlsx", time.Now().Format("2006-01-02")), c.logger)
}

func (c *DashboardController) exportDailyXLSX(ctx echo.Context, rows []dto.DailyRowDTO) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"Дата", "План", "Годных", "Брак", "Выполнение плана"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}
	for rowIdx, row := range rows {
		values := []interface{}{row.Date, row.TotalPlan, row.TotalOK, row.TotalNG, row.PlanAttainment}
		for colIdx, value := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	return writeXLSX(ctx, f, fmt.Sprintf("daily-%s.xlsx", time.Now().Format("2006-01-02")), c.logger)
}

func writeXLSX(ctx echo.Context, f *excelize.File, filename string, logger *zap.Logger) error {
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Response().WriteHeader(http.StatusOK)
	if err := f.Write(ctx.Response().Writer); err != nil {
		logger.Error("не удалось выгрузить XLSX", zap.String("filename", filename), zap.Error(err))
		return err
	}
	return nil
}
