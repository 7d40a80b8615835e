package role_test

import (
	"testing"

	"github.com/frahmantamala/license-portal/internal/role"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRole(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Role Suite")
}

var _ = Describe("Role resolver", func() {
	Describe("Grants.Highest", func() {
		It("should fall back to user when nothing is held", func() {
			Expect(role.Grants{}.Highest()).To(Equal(role.User))
		})

		It("should follow precedence", func() {
			g := role.Grants{role.Customer, role.Moderator, role.VAR}
			Expect(g.Highest()).To(Equal(role.VAR))
		})
	})

	Describe("ParseGrants", func() {
		It("should dedupe and order by precedence", func() {
			g, err := role.ParseGrants([]string{"customer", "ADMIN", "customer"})
			Expect(err).NotTo(HaveOccurred())
			Expect(g).To(Equal(role.Grants{role.Admin, role.Customer}))
		})

		It("should reject unknown roles", func() {
			_, err := role.ParseGrants([]string{"superuser"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SelectActiveRole", func() {
		It("should default to the highest held role", func() {
			active, err := role.SelectActiveRole(role.Grants{role.Customer, role.CustomerRep}, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(active.Role()).To(Equal(role.CustomerRep))
			Expect(active.IsPreview()).To(BeFalse())
		})

		It("should let an admin preview a role they do not hold", func() {
			active, err := role.SelectActiveRole(role.Grants{role.Admin}, role.Customer)
			Expect(err).NotTo(HaveOccurred())
			Expect(active.Role()).To(Equal(role.Customer))
			Expect(active.IsPreview()).To(BeTrue())
		})

		It("should treat a held role as granted even for admins", func() {
			active, err := role.SelectActiveRole(role.Grants{role.Admin, role.Marketing}, role.Marketing)
			Expect(err).NotTo(HaveOccurred())
			Expect(active.IsPreview()).To(BeFalse())
		})

		It("should refuse a non-admin switching to an unheld role", func() {
			_, err := role.SelectActiveRole(role.Grants{role.AccountRep}, role.Admin)
			Expect(err).To(MatchError(role.ErrRoleNotHeld))
		})
	})

	Describe("Resolve", func() {
		It("should deny user listing to a customer_rep", func() {
			// Given
			grants := role.Grants{role.CustomerRep}
			active, _ := role.SelectActiveRole(grants, "")

			// When
			caps := role.Resolve(grants, active)

			// Then
			Expect(caps.CanViewAllUsers).To(BeFalse())
			Expect(caps.CanViewCRM).To(BeTrue())
			Expect(caps.CanViewTickets).To(BeTrue())
		})

		It("should grant an admin every capability whatever persona is active", func() {
			grants := role.Grants{role.Admin}
			for _, r := range role.All() {
				active, err := role.SelectActiveRole(grants, r)
				Expect(err).NotTo(HaveOccurred())

				caps := role.Resolve(grants, active)
				Expect(caps.CanViewAllUsers).To(BeTrue(), string(r))
				Expect(caps.CanViewAllLicenses).To(BeTrue(), string(r))
				Expect(caps.CanViewCRM).To(BeTrue(), string(r))
				Expect(caps.CanViewTickets).To(BeTrue(), string(r))
				Expect(caps.CanModerateTickets).To(BeTrue(), string(r))
				Expect(caps.CanManageCatalog).To(BeTrue(), string(r))
			}
		})

		It("should key dashboard copy by the active persona", func() {
			grants := role.Grants{role.Admin}
			active, _ := role.SelectActiveRole(grants, role.Customer)
			Expect(role.Resolve(grants, active).DashboardTitle).To(Equal("Customer Dashboard"))
		})

		It("should give marketing and var CRM access only", func() {
			for _, r := range []role.AppRole{role.Marketing, role.VAR} {
				caps := role.Resolve(role.Grants{r}, role.Granted(r))
				Expect(caps.CanViewCRM).To(BeTrue())
				Expect(caps.CanViewAllUsers).To(BeFalse())
				Expect(caps.CanViewAllLicenses).To(BeFalse())
			}
		})
	})

	Describe("Checker", func() {
		It("should ignore the active persona and use grants", func() {
			c := role.NewChecker(role.Grants{role.Moderator})
			Expect(c.CanModerateTickets()).To(BeTrue())
			Expect(c.CanManageTickets()).To(BeTrue())
			Expect(c.CanViewCRM()).To(BeFalse())
			Expect(c.IsAdmin()).To(BeFalse())
		})

		It("should let account reps see all licenses but not manage them", func() {
			c := role.NewChecker(role.Grants{role.AccountRep})
			Expect(c.CanViewAllLicenses()).To(BeTrue())
			Expect(c.CanManageLicenses()).To(BeFalse())
		})
	})
})
