package dto

type ParetoRowDTO struct {
	DefectCode           string  `json:"defect_code"`
	DefectName           string  `json:"defect_name"`
	DefectGroup          string  `json:"defect_group"`
	TotalQty             int64   `json:"total_qty"`
	CumulativeQty        int64   `json:"cumulative_qty"`
	CumulativePercentage float64 `json:"cumulative_percentage"`
}

type DashboardRowDTO struct {
	POID             uint64  `json:"po_id"`
	POCode           string  `json:"po_code"`
	QtyPlan          int64   `json:"qty_plan"`
	OperationID      uint64  `json:"operation_id"`
	OperationName    string  `json:"operation_name"`
	ShiftID          uint64  `json:"shift_id"`
	ShiftName        string  `json:"shift_name"`
	Line             string  `json:"line"`
	ProductID        uint64  `json:"product_id"`
	ProductName      string  `json:"product_name"`
	TotalQtyOK       int64   `json:"total_qty_ok"`
	TotalQtyNG       int64   `json:"total_qty_ng"`
	TotalRuntimeMin  int64   `json:"total_runtime_min"`
	TotalDowntimeMin int64   `json:"total_downtime_min"`
	PlanAttainment   float64 `json:"plan_attainment"`
	DefectRate       float64 `json:"defect_rate"`
	EfficiencyPerMin float64 `json:"efficiency_output_per_min"`
}

type DailyRowDTO struct {
	Date           string  `json:"date"`
	TotalPlan      float64 `json:"total_plan"`
	TotalOK        int64   `json:"total_ok"`
	TotalNG        int64   `json:"total_ng"`
	PlanAttainment float64 `json:"plan_attainment"`
}
