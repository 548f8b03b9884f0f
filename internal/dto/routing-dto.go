package dto

type RoutingStepInputDTO struct {
	StepNo      int    `json:"step_no" validate:"required,min=1"`
	OperationID uint64 `json:"operation_id" validate:"required"`
	StdTimeSec  int    `json:"std_time_sec" validate:"min=0"`
}

type CreateRoutingDTO struct {
	ProductID uint64                `json:"product_id" validate:"required"`
	Version   string                `json:"version" validate:"required"`
	Steps     []RoutingStepInputDTO `json:"steps" validate:"required,min=1,dive"`
}

type RoutingStepDTO struct {
	StepNo        int    `json:"step_no"`
	OperationID   uint64 `json:"operation_id"`
	OperationName string `json:"operation_name"`
	StdTimeSec    int    `json:"std_time_sec"`
}

type RoutingDTO struct {
	ID        uint64           `json:"id"`
	ProductID uint64           `json:"product_id"`
	Version   string           `json:"version"`
	IsActive  bool             `json:"is_active"`
	CreatedAt string           `json:"created_at"`
	Steps     []RoutingStepDTO `json:"steps"`
}
