package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mes-system/internal/controllers"
	"mes-system/internal/dto"
	"mes-system/internal/entities"
	"mes-system/pkg/middleware"
	"mes-system/pkg/service"
)

type stubAnalyticsService struct{}

func (stubAnalyticsService) GetPareto(ctx context.Context, filter entities.ReportFilter, limit uint64) ([]dto.ParetoRowDTO, error) {
	return []dto.ParetoRowDTO{}, nil
}

func (stubAnalyticsService) GetDashboard(ctx context.Context, filter entities.ReportFilter) ([]dto.DashboardRowDTO, error) {
	return []dto.DashboardRowDTO{}, nil
}

func (stubAnalyticsService) GetDailyReport(ctx context.Context, from, to time.Time) ([]dto.DailyRowDTO, error) {
	return []dto.DailyRowDTO{}, nil
}

func newDashboardTestRouter(t *testing.T) (*echo.Echo, service.JWTService) {
	t.Helper()
	e := echo.New()
	logger := zap.NewNop()
	jwtSvc := service.NewJWTService("test-secret", time.Minute, time.Hour)
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)

	group := e.Group("/api", authMW.Auth)
	runDashboardRouter(group, controllers.NewDashboardController(stubAnalyticsService{}, logger), authMW)
	return e, jwtSvc
}

func dashboardRequest(t *testing.T, e *echo.Echo, jwtSvc service.JWTService, path, role string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		access, _, err := jwtSvc.GenerateTokens(1, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+access)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestDashboardRoutesRequireAnalystRole(t *testing.T) {
	e, jwtSvc := newDashboardTestRouter(t)

	for _, role := range []string{"Admin", "Planner", "QC"} {
		assert.Equal(t, http.StatusOK, dashboardRequest(t, e, jwtSvc, "/api/dashboard/summary", role), role)
		assert.Equal(t, http.StatusOK, dashboardRequest(t, e, jwtSvc, "/api/dashboard/pareto", role), role)
	}

	assert.Equal(t, http.StatusForbidden, dashboardRequest(t, e, jwtSvc, "/api/dashboard/summary", "Operator"))
	assert.Equal(t, http.StatusForbidden, dashboardRequest(t, e, jwtSvc, "/api/dashboard/pareto", "Operator"))
	assert.Equal(t, http.StatusForbidden, dashboardRequest(t, e, jwtSvc, "/api/dashboard/daily", "Operator"))
}

func TestDashboardRoutesRejectAnonymous(t *testing.T) {
	e, jwtSvc := newDashboardTestRouter(t)
	assert.Equal(t, http.StatusUnauthorized, dashboardRequest(t, e, jwtSvc, "/api/dashboard/summary", ""))
}
