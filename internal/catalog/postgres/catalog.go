package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/license-portal/internal/catalog"
	catalogDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/catalog"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) catalog.RepositoryAPI {
	return &CatalogRepository{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return catalog.ErrDuplicateKey
	}
	return err
}

func (r *CatalogRepository) ListItems(ctx context.Context, activeOnly bool) ([]*catalogDatamodel.CatalogItem, error) {
	var items []*catalogDatamodel.CatalogItem
	q := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&items).Error
	return items, err
}

func (r *CatalogRepository) GetItem(ctx context.Context, id int64) (*catalogDatamodel.CatalogItem, error) {
	var item catalogDatamodel.CatalogItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *CatalogRepository) CreateItem(ctx context.Context, item *catalogDatamodel.CatalogItem) error {
	return translate(r.db.WithContext(ctx).Create(item).Error)
}

func (r *CatalogRepository) UpdateItem(ctx context.Context, item *catalogDatamodel.CatalogItem) error {
	return translate(r.db.WithContext(ctx).Save(item).Error)
}

func (r *CatalogRepository) DeleteItem(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&catalogDatamodel.CatalogItem{}, id).Error
}

func (r *CatalogRepository) ListTiers(ctx context.Context) ([]*catalogDatamodel.LicenseTier, error) {
	var tiers []*catalogDatamodel.LicenseTier
	err := r.db.WithContext(ctx).Order("id ASC").Find(&tiers).Error
	return tiers, err
}

func (r *CatalogRepository) GetTier(ctx context.Context, id int64) (*catalogDatamodel.LicenseTier, error) {
	return r.firstTier(ctx, r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *CatalogRepository) GetTierByName(ctx context.Context, name string) (*catalogDatamodel.LicenseTier, error) {
	return r.firstTier(ctx, r.db.WithContext(ctx).Where("name = ?", name))
}

func (r *CatalogRepository) FirstTier(ctx context.Context) (*catalogDatamodel.LicenseTier, error) {
	return r.firstTier(ctx, r.db.WithContext(ctx).Order("id ASC"))
}

func (r *CatalogRepository) firstTier(_ context.Context, q *gorm.DB) (*catalogDatamodel.LicenseTier, error) {
	var tier catalogDatamodel.LicenseTier
	if err := q.First(&tier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

func (r *CatalogRepository) CreateTier(ctx context.Context, tier *catalogDatamodel.LicenseTier) error {
	return translate(r.db.WithContext(ctx).Create(tier).Error)
}
