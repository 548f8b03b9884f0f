package entities

import "time"

// ReportFilter — общий фильтр для Pareto-отчёта и сводки дашборда.
type ReportFilter struct {
	DateFrom    *time.Time
	DateTo      *time.Time
	POID        *uint64
	ProductID   *uint64
	OperationID *uint64
	ShiftID     *uint64
	Line        string
}

// ParetoRow — сгруппированная строка дефектов до вычисления накопленных долей.
type ParetoRow struct {
	DefectCode  string
	DefectName  string
	DefectGroup string
	TotalQty    int64
}

// DashboardRow — строка сводки по (заказ, операция, смена, линия).
type DashboardRow struct {
	POID             uint64
	POCode           string
	QtyPlan          int64
	OperationID      uint64
	OperationName    string
	ShiftID          uint64
	ShiftName        string
	Line             string
	ProductID        uint64
	ProductName      string
	TotalQtyOK       int64
	TotalQtyNG       int64
	TotalRuntimeMin  int64
	TotalDowntimeMin int64
}

// OrderSpan — заказ, пересекающийся с диапазоном дат дневного отчёта.
type OrderSpan struct {
	ID        uint64
	Code      string
	QtyPlan   int64
	StartPlan time.Time
	EndPlan   time.Time
}

// DailyActual — фактические суммы отчётов за один календарный день.
type DailyActual struct {
	Day     time.Time
	TotalOK int64
	TotalNG int64
}
