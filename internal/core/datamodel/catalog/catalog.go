package catalog

import "time"

type CatalogItem struct {
	ID               int64     `gorm:"primaryKey"`
	Name             string    `gorm:"column:name;uniqueIndex;not null"`
	Description      string    `gorm:"column:description"`
	ProductType      string    `gorm:"column:product_type;not null"`
	DemoDurationDays int       `gorm:"column:demo_duration_days;not null"`
	DemoSeats        int       `gorm:"column:demo_seats;not null"`
	DemoFeatures     []string  `gorm:"column:demo_features;serializer:json"`
	IsActive         bool      `gorm:"column:is_active;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CatalogItem) TableName() string { return "license_catalog" }

type LicenseTier struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	MaxSeats    int       `gorm:"column:max_seats;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (LicenseTier) TableName() string { return "license_tiers" }
