package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mes-system/internal/entities"
	"mes-system/internal/repositories"
)

type fakeAnalyticsRepo struct {
	paretoRows []entities.ParetoRow
	dashRows   []entities.DashboardRow
	orders     []entities.OrderSpan
	actuals    []entities.DailyActual

	lastParetoFilter entities.ReportFilter
}

func (f *fakeAnalyticsRepo) GetParetoRows(ctx context.Context, filter entities.ReportFilter, limit uint64) ([]entities.ParetoRow, error) {
	f.lastParetoFilter = filter
	if uint64(len(f.paretoRows)) > limit {
		return f.paretoRows[:limit], nil
	}
	return f.paretoRows, nil
}

func (f *fakeAnalyticsRepo) GetDashboardRows(ctx context.Context, filter entities.ReportFilter) ([]entities.DashboardRow, error) {
	return f.dashRows, nil
}

func (f *fakeAnalyticsRepo) GetOrdersOverlappingRange(ctx context.Context, from, to time.Time) ([]entities.OrderSpan, error) {
	return f.orders, nil
}

func (f *fakeAnalyticsRepo) GetDailyActuals(ctx context.Context, from, to time.Time) ([]entities.DailyActual, error) {
	return f.actuals, nil
}

type fakeCacheRepo struct {
	store map[string][]byte
}

func newFakeCacheRepo() *fakeCacheRepo { return &fakeCacheRepo{store: make(map[string][]byte)} }

func (f *fakeCacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := f.store[key]; ok {
		return value, nil
	}
	return nil, repositories.ErrCacheMiss
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.store[key] = value
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.store = make(map[string][]byte)
	return nil
}

func newAnalyticsServiceForTest(repo *fakeAnalyticsRepo) *AnalyticsService {
	return NewAnalyticsService(repo, newFakeCacheRepo(), time.Second, zap.NewNop())
}

func TestGetParetoCumulativeShares(t *testing.T) {
	repo := &fakeAnalyticsRepo{paretoRows: []entities.ParetoRow{
		{DefectCode: "SCR", DefectName: "Царапина", TotalQty: 60},
		{DefectCode: "DNT", DefectName: "Вмятина", TotalQty: 30},
		{DefectCode: "CLR", DefectName: "Цвет", TotalQty: 10},
	}}
	svc := newAnalyticsServiceForTest(repo)

	rows, err := svc.GetPareto(context.Background(), entities.ReportFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, int64(60), rows[0].CumulativeQty)
	assert.InDelta(t, 0.6, rows[0].CumulativePercentage, 1e-9)
	assert.Equal(t, int64(90), rows[1].CumulativeQty)
	assert.InDelta(t, 0.9, rows[1].CumulativePercentage, 1e-9)
	assert.Equal(t, int64(100), rows[2].CumulativeQty)
	assert.InDelta(t, 1.0, rows[2].CumulativePercentage, 1e-9)
}

// Доли считаются от суммы попавших в топ строк: после отсечки лимитом
// последняя строка всё равно закрывает единицу.
func TestGetParetoSharesAfterLimitTruncation(t *testing.T) {
	repo := &fakeAnalyticsRepo{paretoRows: []entities.ParetoRow{
		{DefectCode: "SCR", TotalQty: 60},
		{DefectCode: "DNT", TotalQty: 30},
		{DefectCode: "CLR", TotalQty: 10},
	}}
	svc := newAnalyticsServiceForTest(repo)

	rows, err := svc.GetPareto(context.Background(), entities.ReportFilter{}, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.InDelta(t, 2.0/3.0, rows[0].CumulativePercentage, 1e-9)
	assert.InDelta(t, 1.0, rows[1].CumulativePercentage, 1e-9)
}

func TestGetParetoDefaultsToTrailingWeek(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	svc := newAnalyticsServiceForTest(repo)

	_, err := svc.GetPareto(context.Background(), entities.ReportFilter{}, 10)
	require.NoError(t, err)

	require.NotNil(t, repo.lastParetoFilter.DateFrom)
	assert.Nil(t, repo.lastParetoFilter.DateTo)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -7), *repo.lastParetoFilter.DateFrom, time.Minute)

	// Явный диапазон не перетирается.
	from, _ := time.ParseInLocation("2006-01-02", "2026-01-01", time.Local)
	_, err = svc.GetPareto(context.Background(), entities.ReportFilter{DateFrom: &from}, 10)
	require.NoError(t, err)
	assert.Equal(t, from, *repo.lastParetoFilter.DateFrom)
}

func TestGetParetoEmpty(t *testing.T) {
	svc := newAnalyticsServiceForTest(&fakeAnalyticsRepo{})
	rows, err := svc.GetPareto(context.Background(), entities.ReportFilter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestBuildDashboardRowMetrics(t *testing.T) {
	row := buildDashboardRow(entities.DashboardRow{
		QtyPlan:         200,
		TotalQtyOK:      100,
		TotalQtyNG:      25,
		TotalRuntimeMin: 50,
	})
	assert.InDelta(t, 0.5, row.PlanAttainment, 1e-9)
	assert.InDelta(t, 25.0, row.DefectRate, 0.001)
	assert.InDelta(t, 2.0, row.EfficiencyPerMin, 0.001)
}

func TestBuildDashboardRowDefectRateEdgeCases(t *testing.T) {
	onlyDefects := buildDashboardRow(entities.DashboardRow{TotalQtyOK: 0, TotalQtyNG: 5})
	assert.InDelta(t, 100.0, onlyDefects.DefectRate, 0.001)

	noOutput := buildDashboardRow(entities.DashboardRow{TotalQtyOK: 0, TotalQtyNG: 0, TotalRuntimeMin: 30})
	assert.Zero(t, noOutput.DefectRate)
	assert.Zero(t, noOutput.EfficiencyPerMin)
	assert.Zero(t, noOutput.PlanAttainment)
}

func TestGetDashboardUsesCache(t *testing.T) {
	repo := &fakeAnalyticsRepo{dashRows: []entities.DashboardRow{{POID: 1, QtyPlan: 10, TotalQtyOK: 5}}}
	cache := newFakeCacheRepo()
	svc := NewAnalyticsService(repo, cache, time.Minute, zap.NewNop())

	first, err := svc.GetDashboard(context.Background(), entities.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Повторный запрос обслуживается из кэша даже после смены данных в репозитории.
	repo.dashRows = nil
	second, err := svc.GetDashboard(context.Background(), entities.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetDailyReportApportionsPlanEvenly(t *testing.T) {
	day := func(s string) time.Time {
		t0, _ := time.ParseInLocation("2006-01-02", s, time.Local)
		return t0
	}
	repo := &fakeAnalyticsRepo{
		orders: []entities.OrderSpan{
			// 100 штук на 4 дня: по 25 в день.
			{ID: 1, Code: "PO-1", QtyPlan: 100, StartPlan: day("2026-03-01"), EndPlan: day("2026-03-04")},
		},
		actuals: []entities.DailyActual{
			{Day: day("2026-03-02"), TotalOK: 50, TotalNG: 5},
		},
	}
	svc := newAnalyticsServiceForTest(repo)

	rows, err := svc.GetDailyReport(context.Background(), day("2026-03-01"), day("2026-03-03"))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "2026-03-01", rows[0].Date)
	assert.InDelta(t, 25.0, rows[0].TotalPlan, 0.001)
	assert.Zero(t, rows[0].TotalOK)

	assert.Equal(t, "2026-03-02", rows[1].Date)
	assert.InDelta(t, 25.0, rows[1].TotalPlan, 0.001)
	assert.Equal(t, int64(50), rows[1].TotalOK)
	assert.Equal(t, int64(5), rows[1].TotalNG)
	assert.InDelta(t, 2.0, rows[1].PlanAttainment, 1e-9)

	assert.Equal(t, "2026-03-03", rows[2].Date)
}

func TestGetDailyReportRejectsInvertedRange(t *testing.T) {
	svc := newAnalyticsServiceForTest(&fakeAnalyticsRepo{})
	from, _ := time.ParseInLocation("2006-01-02", "2026-03-05", time.Local)
	to, _ := time.ParseInLocation("2006-01-02", "2026-03-01", time.Local)

	_, err := svc.GetDailyReport(context.Background(), from, to)
	assert.Error(t, err)
}
