package routes

import (
	"github.com/labstack/echo/v4"

	"mes-system/internal/controllers"
	"mes-system/pkg/middleware"
)

func runAuthRouter(api *echo.Group, authCtrl *controllers.AuthController, authMW *middleware.AuthMiddleware) {
	api.POST("/auth/login", authCtrl.Login)
	api.POST("/auth/refresh", authCtrl.RefreshToken)
	api.GET("/auth/me", authCtrl.GetProfile, authMW.Auth)
}
