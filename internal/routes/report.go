package routes

import (
	"github.com/labstack/echo/v4"

	"mes-system/internal/controllers"
	"mes-system/pkg/middleware"
)

func runReportRouter(group *echo.Group, reportCtrl *controllers.ReportController, authMW *middleware.AuthMiddleware) {
	operators := authMW.RequireRoles("Admin", "Operator")

	group.POST("/prod-reports/start", reportCtrl.StartProduction, operators)
	group.POST("/prod-reports/stop", reportCtrl.StopProduction, operators)
	group.POST("/prod-reports/defect-image", reportCtrl.UploadDefectImage,
		authMW.RequireRoles("Admin", "Operator", "QC"))
	group.GET("/prod-reports", reportCtrl.GetReports)
	group.GET("/prod-reports/:id", reportCtrl.FindReport)
}
