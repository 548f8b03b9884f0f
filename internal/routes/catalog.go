package routes

import (
	"github.com/labstack/echo/v4"

	"mes-system/internal/controllers"
	"mes-system/pkg/middleware"
)

// Чтение справочников доступно всем авторизованным ролям, правки — только
// администратору и планировщику.
func runCatalogRouter(
	group *echo.Group,
	productCtrl *controllers.ProductController,
	operationCtrl *controllers.OperationController,
	shiftCtrl *controllers.ShiftController,
	defectCodeCtrl *controllers.DefectCodeController,
	authMW *middleware.AuthMiddleware,
) {
	editors := authMW.RequireRoles("Admin", "Planner")

	group.GET("/products", productCtrl.GetProducts)
	group.GET("/products/:id", productCtrl.FindProduct)
	group.POST("/products", productCtrl.CreateProduct, editors)
	group.PUT("/products/:id", productCtrl.UpdateProduct, editors)
	group.DELETE("/products/:id", productCtrl.DeactivateProduct, editors)

	group.GET("/operations", operationCtrl.GetOperations)
	group.GET("/operations/:id", operationCtrl.FindOperation)
	group.POST("/operations", operationCtrl.CreateOperation, editors)
	group.PUT("/operations/:id", operationCtrl.UpdateOperation, editors)
	group.DELETE("/operations/:id", operationCtrl.DeactivateOperation, editors)

	group.GET("/shifts", shiftCtrl.GetShifts)
	group.GET("/shifts/:id", shiftCtrl.FindShift)
	group.POST("/shifts", shiftCtrl.CreateShift, editors)
	group.PUT("/shifts/:id", shiftCtrl.UpdateShift, editors)
	group.DELETE("/shifts/:id", shiftCtrl.DeleteShift, editors)

	qcEditors := authMW.RequireRoles("Admin", "Planner", "QC")
	group.GET("/defect-codes", defectCodeCtrl.GetDefectCodes)
	group.GET("/defect-codes/:id", defectCodeCtrl.FindDefectCode)
	group.POST("/defect-codes", defectCodeCtrl.CreateDefectCode, qcEditors)
	group.PUT("/defect-codes/:id", defectCodeCtrl.UpdateDefectCode, qcEditors)
	group.DELETE("/defect-codes/:id", defectCodeCtrl.DeactivateDefectCode, qcEditors)
}
