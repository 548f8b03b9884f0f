package dto

import "github.com/aarondl/null/v8"

type OperationDTO struct {
	ID           uint64 `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	MachineType  string `json:"machine_type"`
	CycleTimeSec int    `json:"cycle_time_sec"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

type CreateOperationDTO struct {
	Code         string `json:"code" validate:"required,entity_code"`
	Name         string `json:"name" validate:"required"`
	MachineType  string `json:"machine_type"`
	CycleTimeSec int    `json:"cycle_time_sec" validate:"min=0"`
}

type UpdateOperationDTO struct {
	Code         null.String `json:"code,omitempty"`
	Name         null.String `json:"name,omitempty"`
	MachineType  null.String `json:"machine_type,omitempty"`
	CycleTimeSec null.Int    `json:"cycle_time_sec,omitempty"`
	IsActive     null.Bool   `json:"is_active,omitempty"`
}
