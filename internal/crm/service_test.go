package crm_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/audit"
	auditPostgres "github.com/frahmantamala/license-portal/internal/audit/postgres"
	auditDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/audit"
	catalogDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/catalog"
	crmDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/crm"
	licenseDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/license"
	ticketDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/ticket"
	"github.com/frahmantamala/license-portal/internal/crm"
	crmPostgres "github.com/frahmantamala/license-portal/internal/crm/postgres"
	"github.com/frahmantamala/license-portal/internal/license"
	licensePostgres "github.com/frahmantamala/license-portal/internal/license/postgres"
	"github.com/frahmantamala/license-portal/internal/role"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestCRM(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CRM Suite")
}

func openDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	Expect(err).NotTo(HaveOccurred())
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	Expect(db.AutoMigrate(
		&catalogDatamodel.LicenseTier{},
		&licenseDatamodel.ProductLicense{},
		&ticketDatamodel.SupportTicket{},
		&crmDatamodel.Account{},
		&crmDatamodel.Contact{},
		&crmDatamodel.Deal{},
		&crmDatamodel.Activity{},
		&crmDatamodel.CustomerOnboarding{},
		&crmDatamodel.OnboardingStep{},
		&auditDatamodel.AuditLog{},
	)).To(Succeed())
	return db
}

func int64Ptr(v int64) *int64 { return &v }

var _ = Describe("CRM Service", func() {
	var (
		db          *gorm.DB
		ctx         context.Context
		service     *crm.Service
		licenseSvc  *license.Service
		licenseRepo license.RepositoryAPI
		auditSvc    *audit.Service
		rep         *internal.Principal
		customer    *internal.Principal
		account     *crm.Account
	)

	newLicense := func(product string) *licenseDatamodel.ProductLicense {
		row := &licenseDatamodel.ProductLicense{
			LicenseKey:  "LIC-" + strings.ToUpper(product),
			ProductName: product,
			Seats:       5,
			ExpiryDate:  time.Now().UTC().AddDate(0, 6, 0),
			Status:      string(license.StatusActive),
			Version:     1,
		}
		Expect(licenseRepo.Create(ctx, row)).To(Succeed())
		return row
	}

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx = context.Background()
		db = openDB()

		auditSvc = audit.NewService(auditPostgres.NewAuditRepository(db), 20, slogger)
		licenseRepo = licensePostgres.NewLicenseRepository(db)
		licenseSvc = license.NewService(licenseRepo, nil, auditSvc, internal.LicensingConfig{}, slogger)
		service = crm.NewService(crmPostgres.NewCRMRepository(db), licenseSvc, auditSvc, 2, slogger)

		rep = &internal.Principal{ID: 2, Email: "rep@example.com", Roles: role.Grants{role.AccountRep}}
		customer = &internal.Principal{ID: 3, Email: "buyer@example.com", Roles: role.Grants{role.Customer}}

		var err error
		account, err = service.CreateAccount(ctx, crm.AccountDTO{Name: "Acme Corp", Industry: "Manufacturing"}, rep)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("access", func() {
		It("rejects callers without a CRM role", func() {
			_, err := service.ListAccounts(ctx, customer, "")
			Expect(err).To(MatchError(crm.ErrCRMAccessDenied))

			_, err = service.CreateContact(ctx, crm.ContactDTO{FirstName: "Eve"}, customer)
			Expect(err).To(MatchError(crm.ErrCRMAccessDenied))
		})

		It("lets marketing read accounts", func() {
			marketing := &internal.Principal{ID: 4, Roles: role.Grants{role.Marketing}}
			accounts, err := service.ListAccounts(ctx, marketing, "acme")
			Expect(err).NotTo(HaveOccurred())
			Expect(accounts).To(HaveLen(1))
			Expect(accounts[0].Status).To(Equal(crm.AccountStatusProspect))
		})
	})

	Describe("contacts", func() {
		It("keeps a single primary contact per account", func() {
			first, err := service.CreateContact(ctx, crm.ContactDTO{AccountID: &account.ID, FirstName: "Ada", IsPrimary: true}, rep)
			Expect(err).NotTo(HaveOccurred())
			second, err := service.CreateContact(ctx, crm.ContactDTO{AccountID: &account.ID, FirstName: "Grace", IsPrimary: true}, rep)
			Expect(err).NotTo(HaveOccurred())

			reloaded, err := service.GetContact(ctx, rep, first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.IsPrimary).To(BeFalse())

			_, err = service.UpdateContact(ctx, first.ID, crm.ContactDTO{AccountID: &account.ID, FirstName: "Ada", IsPrimary: true}, rep)
			Expect(err).NotTo(HaveOccurred())
			reloaded, err = service.GetContact(ctx, rep, second.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.IsPrimary).To(BeFalse())
		})

		It("never marks an unlinked contact primary", func() {
			c, err := service.CreateContact(ctx, crm.ContactDTO{FirstName: "Lone", IsPrimary: true}, rep)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.IsPrimary).To(BeFalse())
		})

		It("rejects an unknown account", func() {
			_, err := service.CreateContact(ctx, crm.ContactDTO{AccountID: int64Ptr(999), FirstName: "Ghost"}, rep)
			Expect(err).To(MatchError(crm.ErrAccountNotFound))
		})
	})

	Describe("deals and activities", func() {
		It("validates stage and probability", func() {
			_, err := service.CreateDeal(ctx, crm.DealDTO{Title: "Renewal", Stage: "won", Probability: 50}, rep)
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))

			_, err = service.CreateDeal(ctx, crm.DealDTO{Title: "Renewal", Stage: crm.StageProposal, Probability: 101}, rep)
			Expect(err).To(HaveOccurred())

			d, err := service.CreateDeal(ctx, crm.DealDTO{AccountID: &account.ID, Title: "Renewal", Stage: crm.StageProposal, Probability: 100}, rep)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Probability).To(Equal(100))
		})

		It("defaults activities to pending and checks the deal reference", func() {
			a, err := service.CreateActivity(ctx, crm.ActivityDTO{ActivityType: crm.ActivityCall, Subject: "Kickoff"}, rep)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Status).To(Equal(crm.ActivityPending))

			_, err = service.CreateActivity(ctx, crm.ActivityDTO{ActivityType: crm.ActivityCall, Subject: "x", DealID: int64Ptr(42)}, rep)
			Expect(err).To(MatchError(crm.ErrDealNotFound))

			_, err = service.CreateActivity(ctx, crm.ActivityDTO{ActivityType: "fax", Subject: "x"}, rep)
			Expect(err).To(HaveOccurred())
		})

		It("records stage changes in the audit log", func() {
			d, err := service.CreateDeal(ctx, crm.DealDTO{Title: "Expansion", Stage: crm.StageDiscovery, Probability: 20}, rep)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.UpdateDeal(ctx, d.ID, crm.DealDTO{Title: "Expansion", Stage: crm.StageClosedWon, Probability: 100}, rep)
			Expect(err).NotTo(HaveOccurred())

			entries, err := auditSvc.ListByEntity(ctx, audit.EntityDeal, strconv.FormatInt(d.ID, 10), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries[0].Action).To(Equal("stage_changed"))
		})
	})

	Describe("linking", func() {
		It("links and unlinks a license without deleting it", func() {
			row := newLicense("sentinel")

			linked, err := service.LinkLicense(ctx, row.ID, &account.ID, rep)
			Expect(err).NotTo(HaveOccurred())
			Expect(linked.AccountID).To(Equal(&account.ID))
			Expect(linked.Version).To(Equal(int64(2)))

			byAccount, err := licenseSvc.ListByAccount(ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byAccount).To(HaveLen(1))

			unlinked, err := service.LinkLicense(ctx, row.ID, nil, rep)
			Expect(err).NotTo(HaveOccurred())
			Expect(unlinked.AccountID).To(BeNil())

			stored, err := licenseRepo.GetByID(ctx, row.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).NotTo(BeNil())
		})

		It("refuses to link to a missing account", func() {
			row := newLicense("vault")
			_, err := service.LinkLicense(ctx, row.ID, int64Ptr(404), rep)
			Expect(err).To(MatchError(crm.ErrAccountNotFound))
		})

		It("unlinks every child when the account is deleted", func() {
			row := newLicense("sentinel")
			_, err := service.LinkLicense(ctx, row.ID, &account.ID, rep)
			Expect(err).NotTo(HaveOccurred())
			contact, err := service.CreateContact(ctx, crm.ContactDTO{AccountID: &account.ID, FirstName: "Ada", IsPrimary: true}, rep)
			Expect(err).NotTo(HaveOccurred())
			onboarding := &crmDatamodel.CustomerOnboarding{AccountID: &account.ID, CustomerName: "Acme", Status: "in_progress", StartedAt: time.Now().UTC()}
			Expect(db.Create(onboarding).Error).To(Succeed())

			Expect(service.DeleteAccount(ctx, account.ID, rep)).To(Succeed())

			_, err = service.GetAccount(ctx, rep, account.ID)
			Expect(err).To(MatchError(crm.ErrAccountNotFound))

			c, err := service.GetContact(ctx, rep, contact.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.AccountID).To(BeNil())

			stored, err := licenseRepo.GetByID(ctx, row.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.AccountID).To(BeNil())
			Expect(stored.Version).To(Equal(int64(3)))

			o, err := service.Timeline(ctx, rep, onboarding.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(o.AccountID).To(BeNil())
		})
	})

	Describe("account removal failures", func() {
		It("keeps every link when the account row cannot be deleted", func() {
			row := newLicense("sentinel")
			_, err := service.LinkLicense(ctx, row.ID, &account.ID, rep)
			Expect(err).NotTo(HaveOccurred())
			contact, err := service.CreateContact(ctx, crm.ContactDTO{AccountID: &account.ID, FirstName: "Ada"}, rep)
			Expect(err).NotTo(HaveOccurred())

			Expect(db.Callback().Delete().Before("gorm:delete").Register("fail_account_delete", func(tx *gorm.DB) {
				if tx.Statement.Table == "crm_accounts" {
					_ = tx.AddError(errors.New("disk full"))
				}
			})).To(Succeed())

			err = service.DeleteAccount(ctx, account.ID, rep)
			Expect(err).To(HaveOccurred())

			_, err = service.GetAccount(ctx, rep, account.ID)
			Expect(err).NotTo(HaveOccurred())
			stored, err := licenseRepo.GetByID(ctx, row.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.AccountID).To(Equal(&account.ID))
			Expect(stored.Version).To(Equal(int64(2)))
			c, err := service.GetContact(ctx, rep, contact.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.AccountID).To(Equal(&account.ID))
		})
	})

	Describe("onboarding", func() {
		It("orders the timeline by step position and links to an account", func() {
			onboarding := &crmDatamodel.CustomerOnboarding{
				CustomerName: "Globex", Status: "in_progress", StartedAt: time.Now().UTC(),
				Steps: []crmDatamodel.OnboardingStep{
					{Position: 3, Title: "Go live", Status: "pending"},
					{Position: 1, Title: "Kickoff", Status: "done"},
					{Position: 2, Title: "Install", Status: "pending"},
				},
			}
			Expect(db.Create(onboarding).Error).To(Succeed())

			o, err := service.Timeline(ctx, rep, onboarding.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(o.Steps).To(HaveLen(3))
			Expect([]string{o.Steps[0].Title, o.Steps[1].Title, o.Steps[2].Title}).
				To(Equal([]string{"Kickoff", "Install", "Go live"}))

			linked, err := service.LinkOnboarding(ctx, onboarding.ID, &account.ID, rep)
			Expect(err).NotTo(HaveOccurred())
			Expect(linked.AccountID).To(Equal(&account.ID))

			_, err = service.Timeline(ctx, rep, 999)
			Expect(err).To(MatchError(crm.ErrOnboardingNotFound))
		})
	})

	Describe("Overview", func() {
		It("aggregates the account's records and totals the pipeline", func() {
			row := newLicense("sentinel")
			_, err := service.LinkLicense(ctx, row.ID, &account.ID, rep)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateContact(ctx, crm.ContactDTO{AccountID: &account.ID, FirstName: "Ada"}, rep)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateDeal(ctx, crm.DealDTO{AccountID: &account.ID, Title: "Open", Stage: crm.StageProposal, Amount: 1000, Probability: 50}, rep)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateDeal(ctx, crm.DealDTO{AccountID: &account.ID, Title: "Won", Stage: crm.StageClosedWon, Amount: 400, Probability: 100}, rep)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.CreateDeal(ctx, crm.DealDTO{Title: "Elsewhere", Stage: crm.StageProposal, Amount: 9999, Probability: 90}, rep)
			Expect(err).NotTo(HaveOccurred())

			ov, err := service.Overview(ctx, rep, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ov.Contacts).To(HaveLen(1))
			Expect(ov.Deals).To(HaveLen(2))
			Expect(ov.Licenses).To(HaveLen(1))
			Expect(ov.Onboarding).To(BeEmpty())
			Expect(ov.Pipeline.OpenDeals).To(Equal(1))
			Expect(ov.Pipeline.WeightedValue).To(BeNumerically("~", 500.0))
			Expect(ov.Pipeline.WonAmount).To(BeNumerically("~", 400.0))
		})
	})

	Describe("ImportContacts", func() {
		It("reports partial success keyed by line number", func() {
			csvData := "first_name,last_name,email\nAda,Lovelace,ada@example.com\n,Nobody,nobody@example.com\nGrace,Hopper,grace@example.com\n"
			res, err := service.ImportContacts(ctx, strings.NewReader(csvData), &account.ID, rep)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(Equal(2))
			Expect(res.Failed).To(Equal(1))
			Expect(res.Errors).To(HaveLen(1))
			Expect(res.Errors[0]).To(HavePrefix("3: "))

			contacts, err := service.ListContacts(ctx, rep, crm.ListFilter{AccountID: &account.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(contacts).To(HaveLen(2))
		})

		It("rejects a file without a first_name column", func() {
			_, err := service.ImportContacts(ctx, strings.NewReader("email\na@example.com\n"), nil, rep)
			Expect(err).To(MatchError(crm.ErrImportHeader))
		})
	})
})
