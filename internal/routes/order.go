package routes

import (
	"github.com/labstack/echo/v4"

	"mes-system/internal/controllers"
	"mes-system/pkg/middleware"
)

func runOrderRouter(group *echo.Group, orderCtrl *controllers.OrderController, authMW *middleware.AuthMiddleware) {
	planners := authMW.RequireRoles("Admin", "Planner")

	group.GET("/orders", orderCtrl.GetOrders)
	group.GET("/orders/:id", orderCtrl.FindOrder)
	group.GET("/orders/:id/progress", orderCtrl.GetOrderProgress)
	group.POST("/orders", orderCtrl.CreateOrder, planners)
	group.PUT("/orders/:id", orderCtrl.UpdateOrder, planners)
}
