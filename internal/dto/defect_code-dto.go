package dto

import "github.com/aarondl/null/v8"

type DefectCodeDTO struct {
	ID        uint64 `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Group     string `json:"group"`
	Severity  int    `json:"severity"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type CreateDefectCodeDTO struct {
	Code     string `json:"code" validate:"required,entity_code"`
	Name     string `json:"name" validate:"required"`
	Group    string `json:"group"`
	Severity int    `json:"severity" validate:"min=0,max=10"`
}

type UpdateDefectCodeDTO struct {
	Code     null.String `json:"code,omitempty"`
	Name     null.String `json:"name,omitempty"`
	Group    null.String `json:"group,omitempty"`
	Severity null.Int    `json:"severity,omitempty"`
	IsActive null.Bool   `json:"is_active,omitempty"`
}
