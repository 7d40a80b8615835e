package crm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/audit"
	crmDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/crm"
	"github.com/frahmantamala/license-portal/internal/license"
	"github.com/frahmantamala/license-portal/internal/role"
)

var (
	ErrAccountNotFound    = internal.NewNotFoundError("account not found", internal.ErrCodeAccountNotFound)
	ErrContactNotFound    = internal.NewNotFoundError("contact not found", internal.ErrCodeContactNotFound)
	ErrDealNotFound       = internal.NewNotFoundError("deal not found", internal.ErrCodeDealNotFound)
	ErrActivityNotFound   = internal.NewNotFoundError("activity not found", internal.ErrCodeActivityNotFound)
	ErrOnboardingNotFound = internal.NewNotFoundError("onboarding record not found", internal.ErrCodeOnboardingMissing)
	ErrCRMAccessDenied    = internal.NewForbiddenError("insufficient role for CRM access", internal.ErrCodeUnauthorizedView)
)

type RepositoryAPI interface {
	ListAccounts(ctx context.Context, search string) ([]*crmDatamodel.Account, error)
	GetAccount(ctx context.Context, id int64) (*crmDatamodel.Account, error)
	CreateAccount(ctx context.Context, a *crmDatamodel.Account) error
	UpdateAccount(ctx context.Context, a *crmDatamodel.Account) error
	// DeleteAccount unlinks contacts, deals, activities, onboarding records,
	// tickets and licenses and removes the account in one transaction. It
	// reports how many licenses were unlinked.
	DeleteAccount(ctx context.Context, id int64) (int64, error)

	ListContacts(ctx context.Context, accountID *int64) ([]*crmDatamodel.Contact, error)
	GetContact(ctx context.Context, id int64) (*crmDatamodel.Contact, error)
	// CreateContact and UpdateContact clear the other primaries of the
	// account in the same transaction when c.IsPrimary is set.
	CreateContact(ctx context.Context, c *crmDatamodel.Contact) error
	UpdateContact(ctx context.Context, c *crmDatamodel.Contact) error
	DeleteContact(ctx context.Context, id int64) error

	ListDeals(ctx context.Context, accountID *int64) ([]*crmDatamodel.Deal, error)
	GetDeal(ctx context.Context, id int64) (*crmDatamodel.Deal, error)
	CreateDeal(ctx context.Context, d *crmDatamodel.Deal) error
	UpdateDeal(ctx context.Context, d *crmDatamodel.Deal) error
	DeleteDeal(ctx context.Context, id int64) error

	ListActivities(ctx context.Context, accountID *int64) ([]*crmDatamodel.Activity, error)
	GetActivity(ctx context.Context, id int64) (*crmDatamodel.Activity, error)
	CreateActivity(ctx context.Context, a *crmDatamodel.Activity) error
	UpdateActivity(ctx context.Context, a *crmDatamodel.Activity) error
	DeleteActivity(ctx context.Context, id int64) error

	ListOnboarding(ctx context.Context, accountID *int64) ([]*crmDatamodel.CustomerOnboarding, error)
	GetOnboarding(ctx context.Context, id int64) (*crmDatamodel.CustomerOnboarding, error)
	SetOnboardingAccount(ctx context.Context, id int64, accountID *int64) error
}

// LicenseLinker is the part of the license service the CRM joins against.
type LicenseLinker interface {
	ListByAccount(ctx context.Context, accountID int64) ([]*license.License, error)
	SetAccount(ctx context.Context, id int64, accountID *int64, actor *internal.Principal) (*license.License, error)
	AccountRemoved(ctx context.Context, accountID, unlinked int64)
}

type Service struct {
	repo        RepositoryAPI
	licenses    LicenseLinker
	audit       audit.Recorder
	concurrency int
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, licenses LicenseLinker, recorder audit.Recorder, concurrency int, logger *slog.Logger) *Service {
	if concurrency < 1 {
		concurrency = 4
	}
	return &Service{
		repo:        repo,
		licenses:    licenses,
		audit:       recorder,
		concurrency: concurrency,
		logger:      logger,
	}
}

func authorize(p *internal.Principal) error {
	if p == nil || !role.NewChecker(p.Roles).CanViewCRM() {
		return ErrCRMAccessDenied
	}
	return nil
}

// ----------------- ACCOUNTS -----------------

func (s *Service) ListAccounts(ctx context.Context, p *internal.Principal, search string) ([]*Account, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListAccounts(ctx, strings.TrimSpace(search))
	if err != nil {
		s.logger.Error("failed to list accounts", "error", err)
		return nil, internal.NewInternalError("failed to list accounts", err)
	}
	out := make([]*Account, 0, len(rows))
	for _, r := range rows {
		out = append(out, AccountFromDataModel(r))
	}
	return out, nil
}

func (s *Service) GetAccount(ctx context.Context, p *internal.Principal, id int64) (*Account, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	return s.account(ctx, id)
}

func (s *Service) account(ctx context.Context, id int64) (*Account, error) {
	row, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		s.logger.Error("failed to get account", "account_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get account", err)
	}
	if row == nil {
		return nil, ErrAccountNotFound
	}
	return AccountFromDataModel(row), nil
}

// requireAccount accepts nil, which means "no account".
func (s *Service) requireAccount(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.account(ctx, *id)
	return err
}

func (s *Service) CreateAccount(ctx context.Context, dto AccountDTO, actor *internal.Principal) (*Account, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a := &Account{}
	applyAccount(a, dto)
	row := AccountToDataModel(a)
	if err := s.repo.CreateAccount(ctx, row); err != nil {
		s.logger.Error("failed to create account", "name", a.Name, "error", err)
		return nil, internal.NewInternalError("failed to create account", err)
	}

	created := AccountFromDataModel(row)
	s.audit.Record(ctx, audit.EntityAccount, created.ID, "created", actor, nil, created)
	return created, nil
}

func (s *Service) UpdateAccount(ctx context.Context, id int64, dto AccountDTO, actor *internal.Principal) (*Account, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	a, err := s.account(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *a
	applyAccount(a, dto)

	row := AccountToDataModel(a)
	if err := s.repo.UpdateAccount(ctx, row); err != nil {
		s.logger.Error("failed to update account", "account_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update account", err)
	}
	updated := AccountFromDataModel(row)
	s.audit.Record(ctx, audit.EntityAccount, id, "updated", actor, &before, updated)
	return updated, nil
}

func applyAccount(a *Account, dto AccountDTO) {
	a.Name = strings.TrimSpace(dto.Name)
	a.Industry = dto.Industry
	a.Website = dto.Website
	a.Phone = dto.Phone
	a.Status = dto.Status
	if a.Status == "" {
		a.Status = AccountStatusProspect
	}
	a.OwnerID = dto.OwnerID
}

// DeleteAccount removes the account and unlinks everything attached to it.
// Linked records survive with a null account; on failure nothing changes.
func (s *Service) DeleteAccount(ctx context.Context, id int64, actor *internal.Principal) error {
	if err := authorize(actor); err != nil {
		return err
	}
	a, err := s.account(ctx, id)
	if err != nil {
		return err
	}

	unlinked, err := s.repo.DeleteAccount(ctx, id)
	if err != nil {
		s.logger.Error("failed to delete account", "account_id", id, "error", err)
		return internal.NewInternalError("failed to delete account", err)
	}
	s.licenses.AccountRemoved(ctx, id, unlinked)

	s.audit.Record(ctx, audit.EntityAccount, id, "deleted", actor, a, map[string]int64{"licenses_unlinked": unlinked})
	s.logger.Info("account deleted", "account_id", id, "licenses_unlinked", unlinked)
	return nil
}

// Overview gathers everything attached to an account. The reads run
// concurrently; the first failure cancels the rest.
func (s *Service) Overview(ctx context.Context, p *internal.Principal, id int64) (*AccountOverview, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	a, err := s.account(ctx, id)
	if err != nil {
		return nil, err
	}

	ov := &AccountOverview{Account: a}
	g := pool.New().WithContext(ctx).WithCancelOnError()
	g.Go(func(ctx context.Context) error {
		var err error
		ov.Contacts, err = s.contacts(ctx, &id)
		return err
	})
	g.Go(func(ctx context.Context) error {
		var err error
		ov.Deals, err = s.deals(ctx, &id)
		return err
	})
	g.Go(func(ctx context.Context) error {
		var err error
		ov.Activities, err = s.activities(ctx, &id)
		return err
	})
	g.Go(func(ctx context.Context) error {
		var err error
		ov.Licenses, err = s.licenses.ListByAccount(ctx, id)
		return err
	})
	g.Go(func(ctx context.Context) error {
		var err error
		ov.Onboarding, err = s.onboarding(ctx, &id)
		return err
	})
	if err := g.Wait(); err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		return nil, internal.NewInternalError("failed to load account overview", err)
	}

	ov.Pipeline = Pipeline(ov.Deals)
	return ov, nil
}

// Pipeline totals open deals and weights them by probability.
func Pipeline(deals []*Deal) PipelineSummary {
	var ps PipelineSummary
	for _, d := range deals {
		switch {
		case d.Stage == StageClosedWon:
			ps.WonAmount += d.Amount
		case !d.IsClosed():
			ps.OpenDeals++
			ps.OpenAmount += d.Amount
			ps.WeightedValue += d.Amount * float64(d.Probability) / 100
		}
	}
	return ps
}

// ----------------- CONTACTS -----------------

func (s *Service) ListContacts(ctx context.Context, p *internal.Principal, filter ListFilter) ([]*Contact, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	return s.contacts(ctx, filter.AccountID)
}

func (s *Service) contacts(ctx context.Context, accountID *int64) ([]*Contact, error) {
	rows, err := s.repo.ListContacts(ctx, accountID)
	if err != nil {
		s.logger.Error("failed to list contacts", "error", err)
		return nil, internal.NewInternalError("failed to list contacts", err)
	}
	out := make([]*Contact, 0, len(rows))
	for _, r := range rows {
		out = append(out, ContactFromDataModel(r))
	}
	return out, nil
}

func (s *Service) GetContact(ctx context.Context, p *internal.Principal, id int64) (*Contact, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	return s.contact(ctx, id)
}

func (s *Service) contact(ctx context.Context, id int64) (*Contact, error) {
	row, err := s.repo.GetContact(ctx, id)
	if err != nil {
		s.logger.Error("failed to get contact", "contact_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get contact", err)
	}
	if row == nil {
		return nil, ErrContactNotFound
	}
	return ContactFromDataModel(row), nil
}

func (s *Service) CreateContact(ctx context.Context, dto ContactDTO, actor *internal.Principal) (*Contact, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	return s.createContact(ctx, dto, actor)
}

func (s *Service) createContact(ctx context.Context, dto ContactDTO, actor *internal.Principal) (*Contact, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, dto.AccountID); err != nil {
		return nil, err
	}

	c := &Contact{}
	applyContact(c, dto)
	row := ContactToDataModel(c)
	if err := s.repo.CreateContact(ctx, row); err != nil {
		s.logger.Error("failed to create contact", "email", c.Email, "error", err)
		return nil, internal.NewInternalError("failed to create contact", err)
	}

	created := ContactFromDataModel(row)
	s.audit.Record(ctx, audit.EntityContact, created.ID, "created", actor, nil, created)
	return created, nil
}

func (s *Service) UpdateContact(ctx context.Context, id int64, dto ContactDTO, actor *internal.Principal) (*Contact, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	c, err := s.contact(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, dto.AccountID); err != nil {
		return nil, err
	}

	before := *c
	applyContact(c, dto)
	row := ContactToDataModel(c)
	if err := s.repo.UpdateContact(ctx, row); err != nil {
		s.logger.Error("failed to update contact", "contact_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update contact", err)
	}
	updated := ContactFromDataModel(row)
	s.audit.Record(ctx, audit.EntityContact, id, "updated", actor, &before, updated)
	return updated, nil
}

// applyContact drops the primary flag from contacts without an account;
// primary only has meaning within one.
func applyContact(c *Contact, dto ContactDTO) {
	c.AccountID = dto.AccountID
	c.FirstName = strings.TrimSpace(dto.FirstName)
	c.LastName = strings.TrimSpace(dto.LastName)
	c.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	c.Phone = dto.Phone
	c.Title = dto.Title
	c.IsPrimary = dto.IsPrimary && dto.AccountID != nil
}

func (s *Service) DeleteContact(ctx context.Context, id int64, actor *internal.Principal) error {
	if err := authorize(actor); err != nil {
		return err
	}
	c, err := s.contact(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteContact(ctx, id); err != nil {
		s.logger.Error("failed to delete contact", "contact_id", id, "error", err)
		return internal.NewInternalError("failed to delete contact", err)
	}
	s.audit.Record(ctx, audit.EntityContact, id, "deleted", actor, c, nil)
	return nil
}

// ----------------- DEALS -----------------

func (s *Service) ListDeals(ctx context.Context, p *internal.Principal, filter ListFilter) ([]*Deal, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	return s.deals(ctx, filter.AccountID)
}

func (s *Service) deals(ctx context.Context, accountID *int64) ([]*Deal, error) {
	rows, err := s.repo.ListDeals(ctx, accountID)
	if err != nil {
		s.logger.Error("failed to list deals", "error", err)
		return nil, internal.NewInternalError("failed to list deals", err)
	}
	out := make([]*Deal, 0, len(rows))
	for _, r := range rows {
		out = append(out, DealFromDataModel(r))
	}
	return out, nil
}

func (s *Service) GetDeal(ctx context.Context, p *internal.Principal, id int64) (*Deal, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	return s.deal(ctx, id)
}

func (s *Service) deal(ctx context.Context, id int64) (*Deal, error) {
	row, err := s.repo.GetDeal(ctx, id)
	if err != nil {
		s.logger.Error("failed to get deal", "deal_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get deal", err)
	}
	if row == nil {
		return nil, ErrDealNotFound
	}
	return DealFromDataModel(row), nil
}

func (s *Service) CreateDeal(ctx context.Context, dto DealDTO, actor *internal.Principal) (*Deal, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if err := s.checkDeal(ctx, dto); err != nil {
		return nil, err
	}

	d := &Deal{}
	applyDeal(d, dto)
	row := DealToDataModel(d)
	if err := s.repo.CreateDeal(ctx, row); err != nil {
		s.logger.Error("failed to create deal", "title", d.Title, "error", err)
		return nil, internal.NewInternalError("failed to create deal", err)
	}
	created := DealFromDataModel(row)
	s.audit.Record(ctx, audit.EntityDeal, created.ID, "created", actor, nil, created)
	return created, nil
}

func (s *Service) UpdateDeal(ctx context.Context, id int64, dto DealDTO, actor *internal.Principal) (*Deal, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	d, err := s.deal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkDeal(ctx, dto); err != nil {
		return nil, err
	}

	before := *d
	applyDeal(d, dto)
	row := DealToDataModel(d)
	if err := s.repo.UpdateDeal(ctx, row); err != nil {
		s.logger.Error("failed to update deal", "deal_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update deal", err)
	}
	updated := DealFromDataModel(row)

	action := "updated"
	if before.Stage != updated.Stage {
		action = "stage_changed"
	}
	s.audit.Record(ctx, audit.EntityDeal, id, action, actor, &before, updated)
	return updated, nil
}

func (s *Service) checkDeal(ctx context.Context, dto DealDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	if err := s.requireAccount(ctx, dto.AccountID); err != nil {
		return err
	}
	if dto.ContactID != nil {
		if _, err := s.contact(ctx, *dto.ContactID); err != nil {
			return err
		}
	}
	return nil
}

func applyDeal(d *Deal, dto DealDTO) {
	d.AccountID = dto.AccountID
	d.ContactID = dto.ContactID
	d.Title = strings.TrimSpace(dto.Title)
	d.Stage = dto.Stage
	d.Amount = dto.Amount
	d.Probability = dto.Probability
	d.ExpectedCloseDate = dto.ExpectedCloseDate
}

func (s *Service) DeleteDeal(ctx context.Context, id int64, actor *internal.Principal) error {
	if err := authorize(actor); err != nil {
		return err
	}
	d, err := s.deal(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteDeal(ctx, id); err != nil {
		s.logger.Error("failed to delete deal", "deal_id", id, "error", err)
		return internal.NewInternalError("failed to delete deal", err)
	}
	s.audit.Record(ctx, audit.EntityDeal, id, "deleted", actor, d, nil)
	return nil
}

// ----------------- ACTIVITIES -----------------

func (s *Service) ListActivities(ctx context.Context, p *internal.Principal, filter ListFilter) ([]*Activity, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	return s.activities(ctx, filter.AccountID)
}

func (s *Service) activities(ctx context.Context, accountID *int64) ([]*Activity, error) {
	rows, err := s.repo.ListActivities(ctx, accountID)
	if err != nil {
		s.logger.Error("failed to list activities", "error", err)
		return nil, internal.NewInternalError("failed to list activities", err)
	}
	out := make([]*Activity, 0, len(rows))
	for _, r := range rows {
		out = append(out, ActivityFromDataModel(r))
	}
	return out, nil
}

func (s *Service) GetActivity(ctx context.Context, p *internal.Principal, id int64) (*Activity, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	return s.activity(ctx, id)
}

func (s *Service) activity(ctx context.Context, id int64) (*Activity, error) {
	row, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		s.logger.Error("failed to get activity", "activity_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get activity", err)
	}
	if row == nil {
		return nil, ErrActivityNotFound
	}
	return ActivityFromDataModel(row), nil
}

func (s *Service) CreateActivity(ctx context.Context, dto ActivityDTO, actor *internal.Principal) (*Activity, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if err := s.checkActivity(ctx, dto); err != nil {
		return nil, err
	}

	a := &Activity{}
	applyActivity(a, dto)
	row := ActivityToDataModel(a)
	if err := s.repo.CreateActivity(ctx, row); err != nil {
		s.logger.Error("failed to create activity", "subject", a.Subject, "error", err)
		return nil, internal.NewInternalError("failed to create activity", err)
	}
	created := ActivityFromDataModel(row)
	s.audit.Record(ctx, audit.EntityActivity, created.ID, "created", actor, nil, created)
	return created, nil
}

func (s *Service) UpdateActivity(ctx context.Context, id int64, dto ActivityDTO, actor *internal.Principal) (*Activity, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	a, err := s.activity(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkActivity(ctx, dto); err != nil {
		return nil, err
	}

	before := *a
	applyActivity(a, dto)
	row := ActivityToDataModel(a)
	if err := s.repo.UpdateActivity(ctx, row); err != nil {
		s.logger.Error("failed to update activity", "activity_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update activity", err)
	}
	updated := ActivityFromDataModel(row)
	s.audit.Record(ctx, audit.EntityActivity, id, "updated", actor, &before, updated)
	return updated, nil
}

func (s *Service) checkActivity(ctx context.Context, dto ActivityDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	if err := s.requireAccount(ctx, dto.AccountID); err != nil {
		return err
	}
	if dto.ContactID != nil {
		if _, err := s.contact(ctx, *dto.ContactID); err != nil {
			return err
		}
	}
	if dto.DealID != nil {
		if _, err := s.deal(ctx, *dto.DealID); err != nil {
			return err
		}
	}
	return nil
}

func applyActivity(a *Activity, dto ActivityDTO) {
	a.AccountID = dto.AccountID
	a.ContactID = dto.ContactID
	a.DealID = dto.DealID
	a.ActivityType = dto.ActivityType
	a.Subject = strings.TrimSpace(dto.Subject)
	a.Description = dto.Description
	a.DueDate = dto.DueDate
	a.Status = dto.Status
	if a.Status == "" {
		a.Status = ActivityPending
	}
}

func (s *Service) DeleteActivity(ctx context.Context, id int64, actor *internal.Principal) error {
	if err := authorize(actor); err != nil {
		return err
	}
	a, err := s.activity(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteActivity(ctx, id); err != nil {
		s.logger.Error("failed to delete activity", "activity_id", id, "error", err)
		return internal.NewInternalError("failed to delete activity", err)
	}
	s.audit.Record(ctx, audit.EntityActivity, id, "deleted", actor, a, nil)
	return nil
}

// ----------------- ONBOARDING & LINKS -----------------

func (s *Service) ListOnboarding(ctx context.Context, p *internal.Principal, filter ListFilter) ([]*Onboarding, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	return s.onboarding(ctx, filter.AccountID)
}

func (s *Service) onboarding(ctx context.Context, accountID *int64) ([]*Onboarding, error) {
	rows, err := s.repo.ListOnboarding(ctx, accountID)
	if err != nil {
		s.logger.Error("failed to list onboarding", "error", err)
		return nil, internal.NewInternalError("failed to list onboarding", err)
	}
	out := make([]*Onboarding, 0, len(rows))
	for _, r := range rows {
		out = append(out, OnboardingFromDataModel(r))
	}
	return out, nil
}

// Timeline returns one onboarding record with its steps ordered by position.
func (s *Service) Timeline(ctx context.Context, p *internal.Principal, id int64) (*Onboarding, error) {
	if err := authorize(p); err != nil {
		return nil, err
	}
	row, err := s.repo.GetOnboarding(ctx, id)
	if err != nil {
		s.logger.Error("failed to get onboarding", "onboarding_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get onboarding", err)
	}
	if row == nil {
		return nil, ErrOnboardingNotFound
	}
	return OnboardingFromDataModel(row), nil
}

// LinkOnboarding sets or clears the account of an onboarding record.
func (s *Service) LinkOnboarding(ctx context.Context, id int64, accountID *int64, actor *internal.Principal) (*Onboarding, error) {
	o, err := s.Timeline(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}

	before := o.AccountID
	if err := s.repo.SetOnboardingAccount(ctx, id, accountID); err != nil {
		s.logger.Error("failed to link onboarding", "onboarding_id", id, "error", err)
		return nil, internal.NewInternalError("failed to link onboarding", err)
	}
	o.AccountID = accountID

	s.audit.Record(ctx, audit.EntityOnboarding, id, linkAction(accountID), actor,
		map[string]*int64{"account_id": before}, map[string]*int64{"account_id": accountID})
	return o, nil
}

// LinkLicense sets or clears the account of a license.
func (s *Service) LinkLicense(ctx context.Context, licenseID int64, accountID *int64, actor *internal.Principal) (*license.License, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.licenses.SetAccount(ctx, licenseID, accountID, actor)
}

func linkAction(accountID *int64) string {
	if accountID == nil {
		return "account_unlinked"
	}
	return "account_linked"
}
