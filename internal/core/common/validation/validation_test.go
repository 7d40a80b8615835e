package validation_test

import (
	"testing"

	errors "github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/core/common/validation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestValidation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Validation Suite")
}

type sampleDTO struct {
	Email string `json:"email" validate:"required,email"`
	Seats int    `json:"seats" validate:"min=1"`
}

var _ = Describe("Validation", func() {
	Describe("builder", func() {
		It("should collect every failing field", func() {
			v := validation.NewValidator()
			v.Field("reason", "   ").Required()
			v.Field("seats", 0).MinInt(1, errors.ErrCodeValidationFailed)
			v.Field("stage", "won").OneOf(errors.ErrCodeInvalidStatus, "closed_won", "closed_lost")

			err := v.Validate()

			Expect(err).NotTo(BeNil())
			details := err.Details.(errors.ValidationErrors)
			Expect(details.Errors).To(HaveLen(3))
			Expect(details.Errors[0].Field).To(Equal("reason"))
			Expect(details.Errors[2].Code).To(Equal(string(errors.ErrCodeInvalidStatus)))
		})

		It("should pass valid input", func() {
			v := validation.NewValidator()
			v.Field("probability", 40).MinInt(0, errors.ErrCodeValidationFailed).MaxInt(100, errors.ErrCodeValidationFailed)
			Expect(v.Validate()).To(BeNil())
		})
	})

	Describe("Struct", func() {
		It("should report json field names", func() {
			err := validation.Struct(sampleDTO{Email: "nope", Seats: 0})

			Expect(err).NotTo(BeNil())
			details := err.Details.(errors.ValidationErrors)
			fields := []string{}
			for _, e := range details.Errors {
				fields = append(fields, e.Field)
			}
			Expect(fields).To(ConsistOf("email", "seats"))
		})
	})

	Describe("ParseNetworks", func() {
		It("should split, trim and drop empty entries", func() {
			nets, err := validation.ParseNetworks(" 10.0.0.0/8, ,192.168.1.10,, 2001:db8::/32 ")
			Expect(err).To(BeNil())
			Expect(nets).To(Equal([]string{"10.0.0.0/8", "192.168.1.10", "2001:db8::/32"}))
		})

		It("should reject malformed entries", func() {
			_, err := validation.ParseNetworks("10.0.0.0/8, office-lan")
			Expect(err).NotTo(BeNil())
			Expect(err.Error()).To(ContainSubstring("office-lan"))
		})

		It("should return an empty list for blank input", func() {
			nets, err := validation.ParseNetworks("")
			Expect(err).To(BeNil())
			Expect(nets).To(BeEmpty())
		})
	})
})
