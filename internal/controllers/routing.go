package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/services"
	apperrors "mes-system/pkg/errors"
	"mes-system/pkg/utils"
)

type RoutingController struct {
	routingService services.RoutingServiceInterface
	logger         *zap.Logger
}

func NewRoutingController(routingService services.RoutingServiceInterface, logger *zap.Logger) *RoutingController {
	return &RoutingController{routingService: routingService, logger: logger}
}

func parseProductIDParam(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("productId"), 10, 64)
	if err != nil {
		return 0, apperrors.NewHttpError(
			http.StatusBadRequest,
			"Неверный ID продукта",
			err,
			map[string]interface{}{"param": ctx.Param("productId")},
		)
	}
	return id, nil
}

func (c *RoutingController) CreateRouting(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.CreateRoutingDTO
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

	routing, err := c.routingService.CreateRouting(reqCtx, payload, uint64(actorID))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, routing, "Маршрут успешно опубликован", http.StatusCreated)
}

func (c *RoutingController) GetActiveRouting(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	productID, err := parseProductIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	routing, err := c.routingService.GetActiveRouting(reqCtx, productID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, routing, "Активный маршрут успешно получен", http.StatusOK)
}

func (c *RoutingController) ListRoutingsForProduct(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	productID, err := parseProductIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	routings, err := c.routingService.ListRoutingsForProduct(reqCtx, productID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, routings, "История маршрутов успешно получена", http.StatusOK)
}
