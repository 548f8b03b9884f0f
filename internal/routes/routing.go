package routes

import (
	"github.com/labstack/echo/v4"

	"mes-system/internal/controllers"
	"mes-system/pkg/middleware"
)

func runRoutingRouter(group *echo.Group, routingCtrl *controllers.RoutingController, authMW *middleware.AuthMiddleware) {
	group.POST("/routings", routingCtrl.CreateRouting, authMW.RequireRoles("Admin", "Planner"))
	group.GET("/routings/product/:productId/active", routingCtrl.GetActiveRouting)
	group.GET("/routings/product/:productId", routingCtrl.ListRoutingsForProduct)
}
