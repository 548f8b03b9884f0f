package dto

import "github.com/aarondl/null/v8"

type ProductDTO struct {
	ID          uint64                 `json:"id"`
	Code        string                 `json:"code"`
	Name        string                 `json:"name"`
	Version     string                 `json:"version"`
	UOM         string                 `json:"uom"`
	QualitySpec map[string]interface{} `json:"quality_spec,omitempty"`
	IsActive    bool                   `json:"is_active"`
	CreatedAt   string                 `json:"created_at"`
	UpdatedAt   string                 `json:"updated_at,omitempty"`
}

type CreateProductDTO struct {
	Code        string                 `json:"code" validate:"required,entity_code"`
	Name        string                 `json:"name" validate:"required"`
	Version     string                 `json:"version"`
	UOM         string                 `json:"uom"`
	QualitySpec map[string]interface{} `json:"quality_spec"`
}

type UpdateProductDTO struct {
	Code        null.String            `json:"code,omitempty"`
	Name        null.String            `json:"name,omitempty"`
	Version     null.String            `json:"version,omitempty"`
	UOM         null.String            `json:"uom,omitempty"`
	QualitySpec map[string]interface{} `json:"quality_spec,omitempty"`
	IsActive    null.Bool              `json:"is_active,omitempty"`
}
