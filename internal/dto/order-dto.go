package dto

type CreateOrderDTO struct {
	Code      string `json:"code" validate:"required,entity_code"`
	ProductID uint64 `json:"product_id" validate:"required"`
	QtyPlan   int    `json:"qty_plan" validate:"required,gt=0"`
	StartPlan string `json:"start_plan" validate:"required,datetime=2006-01-02"`
	EndPlan   string `json:"end_plan" validate:"required,datetime=2006-01-02"`
}

// Полное обновление строки заказа; снапшот операций не пересоздаётся.
type UpdateOrderDTO struct {
	Code      string `json:"code" validate:"required,entity_code"`
	ProductID uint64 `json:"product_id" validate:"required"`
	QtyPlan   int    `json:"qty_plan" validate:"required,gt=0"`
	StartPlan string `json:"start_plan" validate:"required,datetime=2006-01-02"`
	EndPlan   string `json:"end_plan" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"required,order_status"`
}

type OrderOperationDTO struct {
	ID            uint64 `json:"id"`
	StepNo        int    `json:"step_no"`
	OperationID   uint64 `json:"operation_id"`
	OperationName string `json:"operation_name"`
	QtyPlan       int    `json:"qty_plan"`
	Status        string `json:"status"`
}

type OrderDTO struct {
	ID          uint64              `json:"id"`
	Code        string              `json:"code"`
	ProductID   uint64              `json:"product_id"`
	ProductName string              `json:"product_name,omitempty"`
	QtyPlan     int                 `json:"qty_plan"`
	StartPlan   string              `json:"start_plan"`
	EndPlan     string              `json:"end_plan"`
	Status      string              `json:"status"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at,omitempty"`
	Operations  []OrderOperationDTO `json:"operations,omitempty"`
}

// Прогресс считается только по выходу финальной операции маршрута,
// в отличие от правила завершения заказа (сумма по всем операциям).
type OrderProgressDTO struct {
	OrderID          uint64  `json:"order_id"`
	QtyPlan          int     `json:"qty_plan"`
	FinalStepNo      int     `json:"final_step_no"`
	FinalOperationID uint64  `json:"final_operation_id"`
	FinalOperationOK int64   `json:"final_operation_ok"`
	Progress         float64 `json:"progress"`
}
