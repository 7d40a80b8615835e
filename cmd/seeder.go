package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/frahmantamala/license-portal/internal/catalog"
	"github.com/frahmantamala/license-portal/internal/core/keygen"
	catalogDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/catalog"
	crmDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/crm"
	licenseDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/license"
	userDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/license-portal/internal/license"
	"github.com/frahmantamala/license-portal/internal/role"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			if err := clearTables(db); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		if err := seed(db, cfg.Security.BCryptCost); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		fmt.Println("Seeding complete")
	},
}

// clearTables empties every portal table, children first.
func clearTables(db *gorm.DB) error {
	tables := []string{
		"audit_log", "ticket_comments", "support_tickets", "product_licenses",
		"onboarding_steps", "customer_onboarding", "crm_activities", "crm_deals",
		"crm_contacts", "crm_accounts", "license_catalog", "license_tiers",
		"user_roles", "users",
	}
	for _, t := range tables {
		if err := db.Exec("TRUNCATE TABLE " + t + " RESTART IDENTITY CASCADE").Error; err != nil {
			return fmt.Errorf("truncate %s: %w", t, err)
		}
	}
	return nil
}

type seedUser struct {
	Email string
	Name  string
	Roles []role.AppRole
}

var seedUsers = []seedUser{
	{"admin@portal.local", "Portal Admin", []role.AppRole{role.Admin}},
	{"rep@portal.local", "Account Rep", []role.AppRole{role.AccountRep}},
	{"moderator@portal.local", "Ticket Moderator", []role.AppRole{role.Moderator}},
	{"customer@portal.local", "Sample Customer", []role.AppRole{role.Customer}},
}

func seed(db *gorm.DB, bcryptCost int) error {
	password := "password"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var adminID int64
		for _, su := range seedUsers {
			u := userDatamodel.User{Email: su.Email}
			err := tx.Where(userDatamodel.User{Email: su.Email}).
				Attrs(userDatamodel.User{Name: su.Name, PasswordHash: string(hash), Approved: true}).
				FirstOrCreate(&u).Error
			if err != nil {
				return fmt.Errorf("user %s: %w", su.Email, err)
			}
			if su.Roles[0] == role.Admin {
				adminID = u.ID
			}
			for _, r := range su.Roles {
				ur := userDatamodel.UserRole{UserID: u.ID, Role: string(r)}
				if err := tx.Where(ur).FirstOrCreate(&ur).Error; err != nil {
					return fmt.Errorf("role %s for %s: %w", r, su.Email, err)
				}
			}
			fmt.Println("Seeded user:", su.Email, su.Roles)
		}

		tiers := []catalogDatamodel.LicenseTier{
			{Name: "Demo", Description: "Time limited evaluation", MaxSeats: 1},
			{Name: "Pro", Description: "Small teams", MaxSeats: 25},
			{Name: "Enterprise", Description: "Unlimited deployments", MaxSeats: 500},
		}
		tierIDs := map[string]int64{}
		for i := range tiers {
			t := tiers[i]
			if err := tx.Where(catalogDatamodel.LicenseTier{Name: t.Name}).Attrs(t).FirstOrCreate(&t).Error; err != nil {
				return fmt.Errorf("tier %s: %w", t.Name, err)
			}
			tierIDs[t.Name] = t.ID
		}
		fmt.Println("Seeded license tiers")

		items := []catalogDatamodel.CatalogItem{
			{Name: "Network Analyzer", Description: "Packet capture and flow analytics", ProductType: catalog.ProductTypeSoftware, DemoDurationDays: 14, DemoSeats: 1, DemoFeatures: []string{"capture", "dashboards"}, IsActive: true},
			{Name: "Endpoint Guard", Description: "Endpoint protection agent", ProductType: catalog.ProductTypeSoftware, DemoDurationDays: 30, DemoSeats: 3, DemoFeatures: []string{"realtime_scan"}, IsActive: true},
			{Name: "Managed Onboarding", Description: "Guided rollout by our engineers", ProductType: catalog.ProductTypeService, DemoDurationDays: 7, DemoSeats: 1, IsActive: false},
		}
		for i := range items {
			item := items[i]
			if err := tx.Where(catalogDatamodel.CatalogItem{Name: item.Name}).Attrs(item).FirstOrCreate(&item).Error; err != nil {
				return fmt.Errorf("catalog item %s: %w", item.Name, err)
			}
		}
		fmt.Println("Seeded license catalog")

		account := crmDatamodel.Account{Name: "Acme Corp"}
		err := tx.Where(crmDatamodel.Account{Name: account.Name}).
			Attrs(crmDatamodel.Account{Industry: "Manufacturing", Website: "https://acme.example", Status: "active", OwnerID: &adminID}).
			FirstOrCreate(&account).Error
		if err != nil {
			return fmt.Errorf("crm account: %w", err)
		}

		var licenseCount int64
		if err := tx.Model(&licenseDatamodel.ProductLicense{}).Count(&licenseCount).Error; err != nil {
			return err
		}
		if licenseCount > 0 {
			fmt.Println("Licenses already present; skipping sample licenses")
			return nil
		}

		now := time.Now().UTC()
		customer := "customer@portal.local"
		proTier := tierIDs["Pro"]
		key, err := keygen.LicenseKey("LIC", "Network Analyzer", now)
		if err != nil {
			return err
		}
		sample := licenseDatamodel.ProductLicense{
			LicenseKey:         key,
			ProductName:        "Network Analyzer",
			TierID:             &proTier,
			AssignedTo:         &customer,
			Seats:              10,
			ExpiryDate:         now.AddDate(1, 0, 0),
			Status:             string(license.StatusActive),
			Features:           []string{"capture", "dashboards", "alerts"},
			ConcurrentSessions: 5,
			AccountID:          &account.ID,
			Version:            1,
		}
		if err := tx.Create(&sample).Error; err != nil {
			return fmt.Errorf("sample license: %w", err)
		}
		fmt.Println("Seeded sample license:", sample.LicenseKey)
		return nil
	})
}
