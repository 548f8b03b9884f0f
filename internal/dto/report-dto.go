package dto

type StartProductionDTO struct {
	POID        uint64 `json:"po_id" validate:"required"`
	OperationID uint64 `json:"operation_id" validate:"required"`
	ShiftID     uint64 `json:"shift_id" validate:"required"`
	Line        string `json:"line"`
}

type DefectInputDTO struct {
	DefectCodeID uint64 `json:"defect_code_id" validate:"required"`
	Qty          int    `json:"qty" validate:"required,gt=0"`
	Note         string `json:"note"`
	ImagePath    string `json:"image_path"`
}

type StopProductionDTO struct {
	ReportID    uint64           `json:"prod_report_id" validate:"required"`
	QtyOK       int              `json:"qty_ok" validate:"min=0"`
	QtyNG       int              `json:"qty_ng" validate:"min=0"`
	RuntimeMin  int              `json:"runtime_min" validate:"min=0"`
	DowntimeMin int              `json:"downtime_min" validate:"min=0"`
	Note        string           `json:"note"`
	IsFinal     bool             `json:"is_final"`
	Defects     []DefectInputDTO `json:"defects" validate:"dive"`
}

type DefectReportDTO struct {
	ID         uint64 `json:"id"`
	DefectCode string `json:"defect_code"`
	DefectName string `json:"defect_name"`
	Qty        int    `json:"qty"`
	Note       string `json:"note,omitempty"`
	ImagePath  string `json:"image_path,omitempty"`
}

type ProdReportDTO struct {
	ID            uint64            `json:"id"`
	POID          uint64            `json:"po_id"`
	OrderCode     string            `json:"order_code"`
	ProductName   string            `json:"product_name"`
	OperationID   uint64            `json:"operation_id"`
	OperationName string            `json:"operation_name"`
	OperatorID    uint64            `json:"operator_id"`
	OperatorName  string            `json:"operator_name"`
	ShiftID       uint64            `json:"shift_id"`
	ShiftName     string            `json:"shift_name"`
	Line          string            `json:"line"`
	StartedAt     string            `json:"started_at"`
	EndedAt       string            `json:"ended_at,omitempty"`
	QtyOK         int               `json:"qty_ok"`
	QtyNG         int               `json:"qty_ng"`
	RuntimeMin    int               `json:"runtime_min"`
	DowntimeMin   int               `json:"downtime_min"`
	Note          string            `json:"note,omitempty"`
	Defects       []DefectReportDTO `json:"defects,omitempty"`
}
