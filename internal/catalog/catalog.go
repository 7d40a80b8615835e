package catalog

import (
	"time"

	catalogDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/catalog"
)

const (
	ProductTypeSoftware = "software"
	ProductTypeService  = "service"
)

type CatalogItem struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	ProductType      string    `json:"product_type"`
	DemoDurationDays int       `json:"demo_duration_days"`
	DemoSeats        int       `json:"demo_seats"`
	DemoFeatures     []string  `json:"demo_features"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (c *CatalogItem) Activate() {
	c.IsActive = true
	c.UpdatedAt = time.Now()
}

func (c *CatalogItem) Deactivate() {
	c.IsActive = false
	c.UpdatedAt = time.Now()
}

type LicenseTier struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MaxSeats    int       `json:"max_seats"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToDataModel(c *CatalogItem) *catalogDatamodel.CatalogItem {
	return &catalogDatamodel.CatalogItem{
		ID:               c.ID,
		Name:             c.Name,
		Description:      c.Description,
		ProductType:      c.ProductType,
		DemoDurationDays: c.DemoDurationDays,
		DemoSeats:        c.DemoSeats,
		DemoFeatures:     c.DemoFeatures,
		IsActive:         c.IsActive,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func FromDataModel(c *catalogDatamodel.CatalogItem) *CatalogItem {
	features := c.DemoFeatures
	if features == nil {
		features = []string{}
	}
	return &CatalogItem{
		ID:               c.ID,
		Name:             c.Name,
		Description:      c.Description,
		ProductType:      c.ProductType,
		DemoDurationDays: c.DemoDurationDays,
		DemoSeats:        c.DemoSeats,
		DemoFeatures:     features,
		IsActive:         c.IsActive,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func TierFromDataModel(t *catalogDatamodel.LicenseTier) *LicenseTier {
	return &LicenseTier{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		MaxSeats:    t.MaxSeats,
		CreatedAt:   t.CreatedAt,
	}
}
