package routes

import (
	"github.com/labstack/echo/v4"

	"mes-system/internal/controllers"
	"mes-system/pkg/middleware"
)

// Сводки доступны только ролям, работающим с планом и качеством.
func runDashboardRouter(group *echo.Group, dashboardCtrl *controllers.DashboardController, authMW *middleware.AuthMiddleware) {
	viewers := authMW.RequireRoles("Admin", "Planner", "QC")

	group.GET("/dashboard/summary", dashboardCtrl.GetSummary, viewers)
	group.GET("/dashboard/pareto", dashboardCtrl.GetPareto, viewers)
	group.GET("/dashboard/daily", dashboardCtrl.GetDaily, viewers)
}
