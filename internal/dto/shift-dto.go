package dto

import "github.com/aarondl/null/v8"

type ShiftDTO struct {
	ID        uint64 `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type CreateShiftDTO struct {
	Code      string `json:"code" validate:"required,entity_code"`
	Name      string `json:"name" validate:"required"`
	StartTime string `json:"start_time" validate:"required,time_of_day"`
	EndTime   string `json:"end_time" validate:"required,time_of_day"`
}

type UpdateShiftDTO struct {
	Code      null.String `json:"code,omitempty"`
	Name      null.String `json:"name,omitempty"`
	StartTime null.String `json:"start_time,omitempty" validate:"omitempty,time_of_day"`
	EndTime   null.String `json:"end_time,omitempty" validate:"omitempty,time_of_day"`
}
