package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"mes-system/internal/controllers"
	"mes-system/internal/repositories"
	"mes-system/internal/services"
	"mes-system/pkg/config"
	"mes-system/pkg/filestorage"
	"mes-system/pkg/middleware"
	"mes-system/pkg/service"
)

func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	jwtSvc service.JWTService,
	logger *zap.Logger,
	cfg *config.Config,
) error {
	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)

	fileStorage, err := filestorage.NewLocalFileStorage("uploads")
	if err != nil {
		return err
	}

	// --- репозитории ---
	productRepo := repositories.NewProductRepository(dbConn)
	operationRepo := repositories.NewOperationRepository(dbConn)
	shiftRepo := repositories.NewShiftRepository(dbConn)
	defectCodeRepo := repositories.NewDefectCodeRepository(dbConn)
	routingRepo := repositories.NewRoutingRepository(dbConn)
	orderRepo := repositories.NewOrderRepository(dbConn)
	prodReportRepo := repositories.NewProdReportRepository(dbConn)
	analyticsRepo := repositories.NewAnalyticsRepository(dbConn)
	auditRepo := repositories.NewAuditRepository(dbConn)
	userRepo := repositories.NewUserRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- сервисы ---
	auditService := services.NewAuditService(auditRepo, logger)
	productService := services.NewProductService(productRepo, auditService, logger)
	operationService := services.NewOperationService(operationRepo, auditService, logger)
	shiftService := services.NewShiftService(shiftRepo, auditService, logger)
	defectCodeService := services.NewDefectCodeService(defectCodeRepo, auditService, logger)
	routingService := services.NewRoutingService(dbConn, routingRepo, productRepo, auditService, logger)
	orderService := services.NewOrderService(dbConn, orderRepo, routingRepo, productRepo, prodReportRepo, auditService, logger)
	reportService := services.NewReportService(dbConn, prodReportRepo, orderRepo, cacheRepo, auditService, logger)
	analyticsService := services.NewAnalyticsService(analyticsRepo, cacheRepo, cfg.Dashboard.CacheTTL, logger)
	authService := services.NewAuthService(userRepo, jwtSvc, logger)
	userService := services.NewUserService(userRepo, auditService, logger)

	// --- контроллеры ---
	productCtrl := controllers.NewProductController(productService, logger)
	operationCtrl := controllers.NewOperationController(operationService, logger)
	shiftCtrl := controllers.NewShiftController(shiftService, logger)
	defectCodeCtrl := controllers.NewDefectCodeController(defectCodeService, logger)
	routingCtrl := controllers.NewRoutingController(routingService, logger)
	orderCtrl := controllers.NewOrderController(orderService, logger)
	reportCtrl := controllers.NewReportController(reportService, fileStorage, logger)
	dashboardCtrl := controllers.NewDashboardController(analyticsService, logger)
	authCtrl := controllers.NewAuthController(authService, logger)
	userCtrl := controllers.NewUserController(userService, logger)
	auditCtrl := controllers.NewAuditController(auditService, logger)

	// --- маршруты ---
	runAuthRouter(api, authCtrl, authMW)

	secureGroup := api.Group("", authMW.Auth)
	runCatalogRouter(secureGroup, productCtrl, operationCtrl, shiftCtrl, defectCodeCtrl, authMW)
	runRoutingRouter(secureGroup, routingCtrl, authMW)
	runOrderRouter(secureGroup, orderCtrl, authMW)
	runReportRouter(secureGroup, reportCtrl, authMW)
	runDashboardRouter(secureGroup, dashboardCtrl, authMW)
	runUserRouter(secureGroup, userCtrl, auditCtrl, authMW)

	logger.Info("маршруты зарегистрированы")
	return nil
}
