package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/license-portal/internal"
	licenseDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/license"
	"github.com/frahmantamala/license-portal/internal/license"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LicenseRepository struct {
	db *gorm.DB
}

func NewLicenseRepository(db *gorm.DB) license.RepositoryAPI {
	return &LicenseRepository{db: db}
}

func (r *LicenseRepository) Create(ctx context.Context, l *licenseDatamodel.ProductLicense) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if l.IsDemo && l.AssignedTo != nil {
		held, checkErr := r.hasDemo(ctx, l.ProductName, *l.AssignedTo)
		if checkErr != nil {
			return checkErr
		}
		if held {
			return license.ErrAlreadyLicensed
		}
	}
	return license.ErrDuplicateKey
}

// hasDemo reports whether a row already occupies the demo owner index for
// the product and assignee.
func (r *LicenseRepository) hasDemo(ctx context.Context, productName, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&licenseDatamodel.ProductLicense{}).
		Where("is_demo AND product_name = ? AND LOWER(assigned_to) = LOWER(?)", productName, email).
		Count(&count).Error
	return count > 0, err
}

func (r *LicenseRepository) GetByID(ctx context.Context, id int64) (*licenseDatamodel.ProductLicense, error) {
	var l licenseDatamodel.ProductLicense
	err := r.db.WithContext(ctx).Preload("Tier").Where("id = ?", id).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *LicenseRepository) List(ctx context.Context, filter license.ListFilter) ([]*licenseDatamodel.ProductLicense, error) {
	var rows []*licenseDatamodel.ProductLicense
	q := r.db.WithContext(ctx).Preload("Tier").Order("expiry_date ASC, id ASC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ProductName != "" {
		q = q.Where("product_name = ?", filter.ProductName)
	}
	if filter.AssignedTo != "" {
		q = q.Where("LOWER(assigned_to) = LOWER(?)", filter.AssignedTo)
	}
	if filter.AccountID != nil {
		q = q.Where("account_id = ?", *filter.AccountID)
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *LicenseRepository) ListByIDs(ctx context.Context, ids []int64) ([]*licenseDatamodel.ProductLicense, error) {
	var rows []*licenseDatamodel.ProductLicense
	err := r.db.WithContext(ctx).Preload("Tier").Where("id IN ?", ids).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *LicenseRepository) ExistsForProduct(ctx context.Context, productName, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&licenseDatamodel.ProductLicense{}).
		Where("product_name = ? AND LOWER(assigned_to) = LOWER(?)", productName, email).
		Count(&count).Error
	return count > 0, err
}

// Update writes every column of l when the stored version still equals
// expectedVersion, and bumps the version.
func (r *LicenseRepository) Update(ctx context.Context, l *licenseDatamodel.ProductLicense, expectedVersion int64) error {
	l.Version = expectedVersion + 1
	res := r.db.WithContext(ctx).Model(l).
		Where("version = ?", expectedVersion).
		Select("*").
		Omit("id", "license_key", "created_at", clause.Associations).
		Updates(l)
	if res.Error != nil {
		l.Version = expectedVersion
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return license.ErrAlreadyLicensed
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		l.Version = expectedVersion
		return internal.ErrVersionConflict
	}
	return nil
}

func (r *LicenseRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&licenseDatamodel.ProductLicense{}, id).Error
}

func (r *LicenseRepository) ListLapsed(ctx context.Context, now time.Time) ([]*licenseDatamodel.ProductLicense, error) {
	var rows []*licenseDatamodel.ProductLicense
	err := r.db.WithContext(ctx).
		Where("status = ? AND expiry_date < ?", string(license.StatusActive), now).
		Order("expiry_date ASC").
		Find(&rows).Error
	return rows, err
}
