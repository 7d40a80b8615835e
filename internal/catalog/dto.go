package catalog

import (
	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/core/common/validation"
)

type CatalogItemDTO struct {
	Name             string   `json:"name" validate:"required,max=200"`
	Description      string   `json:"description" validate:"max=2000"`
	ProductType      string   `json:"product_type" validate:"required"`
	DemoDurationDays int      `json:"demo_duration_days" validate:"min=1,max=365"`
	DemoSeats        int      `json:"demo_seats" validate:"min=1"`
	DemoFeatures     []string `json:"demo_features"`
	IsActive         *bool    `json:"is_active"`
}

func (dto CatalogItemDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	v := validation.NewValidator()
	v.Field("product_type", dto.ProductType).OneOf(internal.ErrCodeValidationFailed, ProductTypeSoftware, ProductTypeService)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type TierDTO struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	MaxSeats    int    `json:"max_seats" validate:"min=1"`
}

func (dto TierDTO) Validate() error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	return nil
}

type CatalogResponse struct {
	Items []*CatalogItem `json:"items"`
}

type TiersResponse struct {
	Tiers []*LicenseTier `json:"tiers"`
}
