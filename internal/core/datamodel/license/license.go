package license

import (
	"time"

	catalogDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/catalog"
)

type ProductLicense struct {
	ID                 int64                         `gorm:"primaryKey"`
	LicenseKey         string                        `gorm:"column:license_key;uniqueIndex;not null"`
	ProductName        string                        `gorm:"column:product_name;index;uniqueIndex:idx_product_licenses_demo_owner,where:is_demo;not null"`
	TierID             *int64                        `gorm:"column:tier_id"`
	Tier               *catalogDatamodel.LicenseTier `gorm:"foreignKey:TierID"`
	AssignedTo         *string                       `gorm:"column:assigned_to;index;uniqueIndex:idx_product_licenses_demo_owner,expression:LOWER(assigned_to)"`
	Seats              int                           `gorm:"column:seats;not null"`
	ExpiryDate         time.Time                     `gorm:"column:expiry_date;not null"`
	Status             string                        `gorm:"column:status;index;not null"`
	Features           []string                      `gorm:"column:features;serializer:json"`
	Addons             []string                      `gorm:"column:addons;serializer:json"`
	MaxHosts           *int                          `gorm:"column:max_hosts"`
	AllowedNetworks    []string                      `gorm:"column:allowed_networks;serializer:json"`
	ConcurrentSessions int                           `gorm:"column:concurrent_sessions;not null"`
	UsageHoursLimit    *int                          `gorm:"column:usage_hours_limit"`
	AccountID          *int64                        `gorm:"column:account_id;index"`
	IsDemo             bool                          `gorm:"column:is_demo;not null"`
	Version            int64                         `gorm:"column:version;not null"`
	CreatedAt          time.Time                     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                     `gorm:"column:updated_at;autoUpdateTime"`
	LastActive         *time.Time                    `gorm:"column:last_active"`
}

func (ProductLicense) TableName() string { return "product_licenses" }
