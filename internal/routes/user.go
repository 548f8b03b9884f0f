package routes

import (
	"github.com/labstack/echo/v4"

	"mes-system/internal/controllers"
	"mes-system/pkg/middleware"
)

func runUserRouter(group *echo.Group, userCtrl *controllers.UserController, auditCtrl *controllers.AuditController, authMW *middleware.AuthMiddleware) {
	admins := authMW.RequireRoles("Admin")

	group.GET("/users", userCtrl.GetUsers, admins)
	group.GET("/users/:id", userCtrl.FindUser, admins)
	group.POST("/users", userCtrl.CreateUser, admins)
	group.PUT("/users/:id", userCtrl.UpdateUser, admins)
	group.DELETE("/users/:id", userCtrl.DeactivateUser, admins)

	group.GET("/audit-logs", auditCtrl.GetLogs, admins)
}
