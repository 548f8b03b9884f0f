package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/services"
	apperrors "mes-system/pkg/errors"
	"mes-system/pkg/utils"
)

type DefectCodeController struct {
	defectCodeService services.DefectCodeServiceInterface
	logger            *zap.Logger
}

func NewDefectCodeController(defectCodeService services.DefectCodeServiceInterface, logger *zap.Logger) *DefectCodeController {
	return &DefectCodeController{defectCodeService: defectCodeService, logger: logger}
}

func (c *DefectCodeController) GetDefectCodes(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	codes, total, err := c.defectCodeService.GetDefectCodes(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, codes, "Список кодов дефектов успешно получен", http.StatusOK, total)
}

func (c *DefectCodeController) FindDefectCode(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	code, err := c.defectCodeService.FindDefectCode(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, code, "Код дефекта успешно найден", http.StatusOK)
}

func (c *DefectCodeController) CreateDefectCode(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.CreateDefectCodeDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	actorID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	code, err := c.defectCodeService.CreateDefectCode(reqCtx, payload, uint64(actorID))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, code, "Код дефекта успешно создан", http.StatusCreated)
}

func (c *DefectCodeController) UpdateDefectCode(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateDefectCodeDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверное тело запроса", err, nil), c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	actorID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	code, err := c.defectCodeService.UpdateDefectCode(reqCtx, id, payload, uint64(actorID))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, code, "Код дефекта успешно обновлён", http.StatusOK)
}

func (c *DefectCodeController) DeactivateDefectCode(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	actorID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.defectCodeService.DeactivateDefectCode(reqCtx, id, uint64(actorID)); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "Код дефекта деактивирован", http.StatusOK)
}
