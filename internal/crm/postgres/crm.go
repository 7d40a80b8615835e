package postgres

import (
	"context"
	"errors"

	crmDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/crm"
	licenseDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/license"
	ticketDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/ticket"
	"github.com/frahmantamala/license-portal/internal/crm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CRMRepository struct {
	db *gorm.DB
}

func NewCRMRepository(db *gorm.DB) crm.RepositoryAPI {
	return &CRMRepository{db: db}
}

// first loads one row by id and reports nil when it does not exist.
func first[T any](ctx context.Context, db *gorm.DB, id int64) (*T, error) {
	var row T
	err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func byAccount(q *gorm.DB, accountID *int64) *gorm.DB {
	if accountID != nil {
		return q.Where("account_id = ?", *accountID)
	}
	return q
}

// ----------------- ACCOUNTS -----------------

func (r *CRMRepository) ListAccounts(ctx context.Context, search string) ([]*crmDatamodel.Account, error) {
	var rows []*crmDatamodel.Account
	q := r.db.WithContext(ctx).Order("name ASC, id ASC")
	if search != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
	}
	err := q.Find(&rows).Error
	return rows, err
}

func (r *CRMRepository) GetAccount(ctx context.Context, id int64) (*crmDatamodel.Account, error) {
	return first[crmDatamodel.Account](ctx, r.db, id)
}

func (r *CRMRepository) CreateAccount(ctx context.Context, a *crmDatamodel.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *CRMRepository) UpdateAccount(ctx context.Context, a *crmDatamodel.Account) error {
	return r.db.WithContext(ctx).Model(a).Select("*").Omit("id", "created_at").Updates(a).Error
}

// DeleteAccount nulls account_id on every child table, licenses included,
// before deleting the account row.
func (r *CRMRepository) DeleteAccount(ctx context.Context, id int64) (int64, error) {
	var licenses int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&crmDatamodel.Contact{},
			&crmDatamodel.Deal{},
			&crmDatamodel.Activity{},
			&crmDatamodel.CustomerOnboarding{},
		} {
			if err := tx.Model(model).Where("account_id = ?", id).Update("account_id", nil).Error; err != nil {
				return err
			}
		}
		unlinkVersioned := map[string]interface{}{"account_id": nil, "version": gorm.Expr("version + 1")}
		if err := tx.Model(&ticketDatamodel.SupportTicket{}).Where("account_id = ?", id).Updates(unlinkVersioned).Error; err != nil {
			return err
		}
		res := tx.Model(&licenseDatamodel.ProductLicense{}).Where("account_id = ?", id).Updates(unlinkVersioned)
		if res.Error != nil {
			return res.Error
		}
		licenses = res.RowsAffected
		return tx.Delete(&crmDatamodel.Account{}, id).Error
	})
	if err != nil {
		return 0, err
	}
	return licenses, nil
}

// ----------------- CONTACTS -----------------

func (r *CRMRepository) ListContacts(ctx context.Context, accountID *int64) ([]*crmDatamodel.Contact, error) {
	var rows []*crmDatamodel.Contact
	q := byAccount(r.db.WithContext(ctx), accountID).Order("is_primary DESC, last_name ASC, first_name ASC, id ASC")
	err := q.Find(&rows).Error
	return rows, err
}

func (r *CRMRepository) GetContact(ctx context.Context, id int64) (*crmDatamodel.Contact, error) {
	return first[crmDatamodel.Contact](ctx, r.db, id)
}

func (r *CRMRepository) CreateContact(ctx context.Context, c *crmDatamodel.Contact) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return clearOtherPrimaries(tx, c)
	})
}

func (r *CRMRepository) UpdateContact(ctx context.Context, c *crmDatamodel.Contact) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(c).Select("*").Omit("id", "created_at").Updates(c).Error; err != nil {
			return err
		}
		return clearOtherPrimaries(tx, c)
	})
}

func clearOtherPrimaries(tx *gorm.DB, c *crmDatamodel.Contact) error {
	if !c.IsPrimary || c.AccountID == nil {
		return nil
	}
	return tx.Model(&crmDatamodel.Contact{}).
		Where("account_id = ? AND id <> ? AND is_primary = ?", *c.AccountID, c.ID, true).
		Update("is_primary", false).Error
}

// DeleteContact detaches deals and activities that referenced the contact.
func (r *CRMRepository) DeleteContact(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&crmDatamodel.Deal{}).Where("contact_id = ?", id).Update("contact_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&crmDatamodel.Activity{}).Where("contact_id = ?", id).Update("contact_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&crmDatamodel.Contact{}, id).Error
	})
}

// ----------------- DEALS -----------------

func (r *CRMRepository) ListDeals(ctx context.Context, accountID *int64) ([]*crmDatamodel.Deal, error) {
	var rows []*crmDatamodel.Deal
	err := byAccount(r.db.WithContext(ctx), accountID).Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

func (r *CRMRepository) GetDeal(ctx context.Context, id int64) (*crmDatamodel.Deal, error) {
	return first[crmDatamodel.Deal](ctx, r.db, id)
}

func (r *CRMRepository) CreateDeal(ctx context.Context, d *crmDatamodel.Deal) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *CRMRepository) UpdateDeal(ctx context.Context, d *crmDatamodel.Deal) error {
	return r.db.WithContext(ctx).Model(d).Select("*").Omit("id", "created_at").Updates(d).Error
}

func (r *CRMRepository) DeleteDeal(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&crmDatamodel.Activity{}).Where("deal_id = ?", id).Update("deal_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&crmDatamodel.Deal{}, id).Error
	})
}

// ----------------- ACTIVITIES -----------------

func (r *CRMRepository) ListActivities(ctx context.Context, accountID *int64) ([]*crmDatamodel.Activity, error) {
	var rows []*crmDatamodel.Activity
	err := byAccount(r.db.WithContext(ctx), accountID).Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

func (r *CRMRepository) GetActivity(ctx context.Context, id int64) (*crmDatamodel.Activity, error) {
	return first[crmDatamodel.Activity](ctx, r.db, id)
}

func (r *CRMRepository) CreateActivity(ctx context.Context, a *crmDatamodel.Activity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *CRMRepository) UpdateActivity(ctx context.Context, a *crmDatamodel.Activity) error {
	return r.db.WithContext(ctx).Model(a).Select("*").Omit("id", "created_at").Updates(a).Error
}

func (r *CRMRepository) DeleteActivity(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&crmDatamodel.Activity{}, id).Error
}

// ----------------- ONBOARDING -----------------

func orderedSteps(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

func (r *CRMRepository) ListOnboarding(ctx context.Context, accountID *int64) ([]*crmDatamodel.CustomerOnboarding, error) {
	var rows []*crmDatamodel.CustomerOnboarding
	q := byAccount(r.db.WithContext(ctx), accountID).
		Preload("Steps", orderedSteps).
		Order("started_at DESC, id DESC")
	err := q.Find(&rows).Error
	return rows, err
}

func (r *CRMRepository) GetOnboarding(ctx context.Context, id int64) (*crmDatamodel.CustomerOnboarding, error) {
	var row crmDatamodel.CustomerOnboarding
	err := r.db.WithContext(ctx).Preload("Steps", orderedSteps).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *CRMRepository) SetOnboardingAccount(ctx context.Context, id int64, accountID *int64) error {
	return r.db.WithContext(ctx).Model(&crmDatamodel.CustomerOnboarding{}).
		Where("id = ?", id).
		Omit(clause.Associations).
		Update("account_id", accountID).Error
}
