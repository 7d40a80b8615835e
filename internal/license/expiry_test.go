package license_test

import (
	"time"

	"github.com/frahmantamala/license-portal/internal/license"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Expiry buckets", func() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mk := func(id int64, status license.Status, expiry time.Time) *license.License {
		return &license.License{ID: id, ProductName: "Product", Status: status, ExpiryDate: expiry}
	}

	It("should partition active licenses and ignore suspended ones", func() {
		// Given
		soon := mk(1, license.StatusActive, now.AddDate(0, 0, 10))
		lapsed := mk(2, license.StatusActive, now.AddDate(0, 0, -1))
		suspended := mk(3, license.StatusSuspended, now.AddDate(0, 0, -5))

		// When
		b := license.ComputeExpiryBuckets([]*license.License{soon, lapsed, suspended}, now)

		// Then
		Expect(b.Expiring).To(ConsistOf(soon))
		Expect(b.Expired).To(ConsistOf(lapsed))
	})

	It("should count swept licenses as expired and keep revoked ones out", func() {
		swept := mk(1, license.StatusExpired, now.AddDate(0, 0, -3))
		b := license.ComputeExpiryBuckets([]*license.License{
			swept,
			mk(2, license.StatusRevoked, now.AddDate(0, 0, 3)),
			mk(3, license.StatusRevoked, now.AddDate(0, 0, -3)),
		}, now)

		Expect(b.Expiring).To(BeEmpty())
		Expect(b.Expired).To(ConsistOf(swept))
	})

	It("should sort expiring licenses soonest first", func() {
		later := mk(1, license.StatusActive, now.AddDate(0, 0, 20))
		sooner := mk(2, license.StatusActive, now.AddDate(0, 0, 2))

		b := license.ComputeExpiryBuckets([]*license.License{later, sooner}, now)

		Expect(b.Expiring).To(Equal([]*license.License{sooner, later}))
	})

	It("should include the 30 day boundary and exclude day 31", func() {
		edge := mk(1, license.StatusActive, now.AddDate(0, 0, 30))
		beyond := mk(2, license.StatusActive, now.AddDate(0, 0, 30).Add(time.Minute))

		b := license.ComputeExpiryBuckets([]*license.License{edge, beyond}, now)

		Expect(b.Expiring).To(ConsistOf(edge))
	})

	It("should treat a license expiring exactly now as expiring", func() {
		b := license.ComputeExpiryBuckets([]*license.License{mk(1, license.StatusActive, now)}, now)

		Expect(b.Expiring).To(HaveLen(1))
		Expect(b.Expired).To(BeEmpty())
	})

	It("should not modify its input", func() {
		in := []*license.License{mk(1, license.StatusActive, now.AddDate(0, 0, -1))}

		_ = license.ComputeExpiryBuckets(in, now)

		Expect(in[0].Status).To(Equal(license.StatusActive))
	})

	Describe("DaysUntil", func() {
		It("should round partial days up", func() {
			Expect(license.DaysUntil(now.Add(36*time.Hour), now)).To(Equal(2))
			Expect(license.DaysUntil(now.Add(-36*time.Hour), now)).To(Equal(-1))
		})
	})

	Describe("RenewalNotice", func() {
		It("should prefer expired over expiring with destructive severity", func() {
			b := license.ComputeExpiryBuckets([]*license.License{
				mk(1, license.StatusActive, now.AddDate(0, 0, 5)),
				mk(2, license.StatusActive, now.AddDate(0, 0, -1)),
				mk(3, license.StatusActive, now.AddDate(0, 0, -2)),
			}, now)

			n := license.RenewalNotice(b, now)

			Expect(n).NotTo(BeNil())
			Expect(n.Severity).To(Equal(license.SeverityDestructive))
			Expect(n.Count).To(Equal(2))
			Expect(n.Message).To(ContainSubstring("2 licenses have expired"))
		})

		It("should name the soonest product and day count", func() {
			first := mk(1, license.StatusActive, now.AddDate(0, 0, 7))
			first.ProductName = "Sentinel EDR"
			b := license.ComputeExpiryBuckets([]*license.License{
				mk(2, license.StatusActive, now.AddDate(0, 0, 25)),
				first,
			}, now)

			n := license.RenewalNotice(b, now)

			Expect(n.Severity).To(Equal(license.SeverityInfo))
			Expect(n.Message).To(Equal("Your Sentinel EDR license expires in 7 days."))
		})

		It("should return nil when everything is healthy", func() {
			b := license.ComputeExpiryBuckets([]*license.License{mk(1, license.StatusActive, now.AddDate(1, 0, 0))}, now)

			Expect(license.RenewalNotice(b, now)).To(BeNil())
		})
	})
})
