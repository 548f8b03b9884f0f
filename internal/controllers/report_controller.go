package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/services"
	apperrors "mes-system/pkg/errors"
	"mes-system/pkg/filestorage"
	"mes-system/pkg/utils"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	fileStorage   filestorage.FileStorageInterface
	logger        *zap.Logger
}

func NewReportController(
	reportService services.ReportServiceInterface,
	fileStorage filestorage.FileStorageInterface,
	logger *zap.Logger,
) *ReportController {
	return &ReportController{reportService: reportService, fileStorage: fileStorage, logger: logger}
}

func (c *ReportController) StartProduction(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.StartProductionDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	report, err := c.reportService.StartProduction(reqCtx, uint64(userID), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, report, "Производство начато", http.StatusCreated)
}

func (c *ReportController) StopProduction(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.StopProductionDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	report, err := c.reportService.StopProduction(reqCtx, uint64(userID), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, report, "Рапорт сохранён", http.StatusOK)
}

func (c *ReportController) GetReports(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	reports, total, err := c.reportService.GetReports(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, reports, "Список рапортов успешно получен", http.StatusOK, total)
}

func (c *ReportController) FindReport(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	report, err := c.reportService.FindReport(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, report, "Рапорт успешно найден", http.StatusOK)
}

// UploadDefectImage принимает фото дефекта и возвращает путь, который
// оператор вкладывает в defects[].image_path при закрытии рапорта.
func (c *ReportController) UploadDefectImage(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Файл 'file' обязателен", err, nil), c.logger)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusInternalServerError, "Не удалось прочитать файл", err, nil), c.logger)
	}
	defer src.Close()

	path, err := c.fileStorage.Save(src, fileHeader.Filename, "defects")
	if err != nil {
		c.logger.Error("не удалось сохранить фото дефекта", zap.String("filename", fileHeader.Filename), zap.Error(err))
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusInternalServerError, "Не удалось сохранить файл", err, nil), c.logger)
	}

	return utils.SuccessResponse(ctx, map[string]string{"image_path": path}, "Файл успешно загружен", http.StatusCreated)
}
