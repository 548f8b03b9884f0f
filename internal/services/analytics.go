package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mes-system/internal/dto"
	"mes-system/internal/entities"
	"mes-system/internal/repositories"
	apperrors "mes-system/pkg/errors"
)

const dashboardCachePrefix = "dashboard:"

type AnalyticsServiceInterface interface {
	GetPareto(ctx context.Context, filter entities.ReportFilter, limit uint64) ([]dto.ParetoRowDTO, error)
	GetDashboard(ctx context.Context, filter entities.ReportFilter) ([]dto.DashboardRowDTO, error)
	GetDailyReport(ctx context.Context, from, to time.Time) ([]dto.DailyRowDTO, error)
}

type AnalyticsService struct {
	analyticsRepository repositories.AnalyticsRepositoryInterface
	cacheRepository     repositories.CacheRepositoryInterface
	cacheTTL            time.Duration
	logger              *zap.Logger
}

func NewAnalyticsService(
	analyticsRepository repositories.AnalyticsRepositoryInterface,
	cacheRepository repositories.CacheRepositoryInterface,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		analyticsRepository: analyticsRepository,
		cacheRepository:     cacheRepository,
		cacheTTL:            cacheTTL,
		logger:              logger,
	}
}

// GetPareto возвращает топ дефектов с накопленными долями. Доли считаются
// от суммы строк, попавших в топ, а не от всего массива дефектов.
// Без явного диапазона дат отчёт строится за последние 7 дней.
func (s *AnalyticsService) GetPareto(ctx context.Context, filter entities.ReportFilter, limit uint64) ([]dto.ParetoRowDTO, error) {
	if filter.DateFrom == nil && filter.DateTo == nil {
		weekAgo := time.Now().AddDate(0, 0, -7)
		filter.DateFrom = &weekAgo
	}

	rows, err := s.analyticsRepository.GetParetoRows(ctx, filter, limit)
	if err != nil {
		return nil, err
	}

	var grandTotal int64
	for _, row := range rows {
		grandTotal += row.TotalQty
	}

	result := make([]dto.ParetoRowDTO, 0, len(rows))
	var cumulative int64
	for _, row := range rows {
		cumulative += row.TotalQty
		share := 0.0
		if grandTotal > 0 {
			share = float64(cumulative) / float64(grandTotal)
		}
		result = append(result, dto.ParetoRowDTO{
			DefectCode:           row.DefectCode,
			DefectName:           row.DefectName,
			DefectGroup:          row.DefectGroup,
			TotalQty:             row.TotalQty,
			CumulativeQty:        cumulative,
			CumulativePercentage: share,
		})
	}
	return result, nil
}

func (s *AnalyticsService) GetDashboard(ctx context.Context, filter entities.ReportFilter) ([]dto.DashboardRowDTO, error) {
	cacheKey := dashboardCacheKey(filter)
	if cached, err := s.cacheRepository.Get(ctx, cacheKey); err == nil {
		var result []dto.DashboardRowDTO
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
	} else if !errors.Is(err, repositories.ErrCacheMiss) {
		s.logger.Warn("кэш дашборда недоступен", zap.Error(err))
	}

	rows, err := s.analyticsRepository.GetDashboardRows(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := make([]dto.DashboardRowDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, buildDashboardRow(row))
	}

	if encoded, err := json.Marshal(result); err == nil {
		if err := s.cacheRepository.Set(ctx, cacheKey, encoded, s.cacheTTL); err != nil {
			s.logger.Warn("не удалось закэшировать сводку дашборда", zap.Error(err))
		}
	}
	return result, nil
}

func buildDashboardRow(row entities.DashboardRow) dto.DashboardRowDTO {
	// Выполнение плана — доля (1.0 = план закрыт); уровень брака ниже — в
	// процентах от годных.
	planAttainment := 0.0
	if row.QtyPlan > 0 {
		planAttainment = float64(row.TotalQtyOK) / float64(row.QtyPlan)
	}

	// Доля брака меряется от годных: при нулевом выпуске и наличии брака
	// показываем 100, чтобы строка не выглядела чистой.
	defectRate := 0.0
	switch {
	case row.TotalQtyOK > 0:
		defectRate = float64(row.TotalQtyNG) * 100 / float64(row.TotalQtyOK)
	case row.TotalQtyNG > 0:
		defectRate = 100
	}

	efficiency := 0.0
	if row.TotalRuntimeMin > 0 {
		efficiency = float64(row.TotalQtyOK) / float64(row.TotalRuntimeMin)
	}

	return dto.DashboardRowDTO{
		POID:             row.POID,
		POCode:           row.POCode,
		QtyPlan:          row.QtyPlan,
		OperationID:      row.OperationID,
		OperationName:    row.OperationName,
		ShiftID:          row.ShiftID,
		ShiftName:        row.ShiftName,
		Line:             row.Line,
		ProductID:        row.ProductID,
		ProductName:      row.ProductName,
		TotalQtyOK:       row.TotalQtyOK,
		TotalQtyNG:       row.TotalQtyNG,
		TotalRuntimeMin:  row.TotalRuntimeMin,
		TotalDowntimeMin: row.TotalDowntimeMin,
		PlanAttainment:   planAttainment,
		DefectRate:       defectRate,
		EfficiencyPerMin: efficiency,
	}
}

// GetDailyReport строит календарь план/факт. План заказа размазывается
// равномерно по всем дням его планового интервала; факт берётся из сумм
// рапортов за календарные сутки.
func (s *AnalyticsService) GetDailyReport(ctx context.Context, from, to time.Time) ([]dto.DailyRowDTO, error) {
	from = truncateToDay(from)
	to = truncateToDay(to)
	if to.Before(from) {
		return nil, apperrors.NewInvalidInputError("дата конца диапазона раньше даты начала")
	}

	orders, err := s.analyticsRepository.GetOrdersOverlappingRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	actuals, err := s.analyticsRepository.GetDailyActuals(ctx, from, to)
	if err != nil {
		return nil, err
	}

	actualByDay := make(map[string]entities.DailyActual, len(actuals))
	for _, actual := range actuals {
		actualByDay[actual.Day.Format("2006-01-02")] = actual
	}

	planByDay := make(map[string]float64)
	for _, order := range orders {
		spanStart := truncateToDay(order.StartPlan)
		spanEnd := truncateToDay(order.EndPlan)
		days := int(spanEnd.Sub(spanStart).Hours()/24) + 1
		if days < 1 {
			days = 1
		}
		perDay := float64(order.QtyPlan) / float64(days)
		for day := spanStart; !day.After(spanEnd); day = day.AddDate(0, 0, 1) {
			if day.Before(from) || day.After(to) {
				continue
			}
			planByDay[day.Format("2006-01-02")] += perDay
		}
	}

	result := make([]dto.DailyRowDTO, 0)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		row := dto.DailyRowDTO{Date: key, TotalPlan: planByDay[key]}
		if actual, ok := actualByDay[key]; ok {
			row.TotalOK = actual.TotalOK
			row.TotalNG = actual.TotalNG
		}
		if row.TotalPlan > 0 {
			row.PlanAttainment = float64(row.TotalOK) / row.TotalPlan
		}
		result = append(result, row)
	}
	return result, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dashboardCacheKey(filter entities.ReportFilter) string {
	raw, _ := json.Marshal(filter)
	return fmt.Sprintf("%s%x", dashboardCachePrefix, sha256.Sum256(raw))
}
