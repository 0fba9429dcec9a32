package label

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/logiflow/internal/address"
	"github.com/zombor/logiflow/internal/scanning"
)

var _ = Describe("Merge", func() {
	var (
		raw    scanning.AddressData
		fb     Fallbacks
		merged address.Record
	)

	BeforeEach(func() {
		raw = scanning.AddressData{
			Name:    "João Silva",
			Street:  "Rua A 123",
			City:    "São Paulo",
			State:   "SP",
			Phone:   "11 99999-0000",
			Country: "Brasil",
		}
		fb = Fallbacks{PostalCode: "01310-100", District: "Jardim Paulista"}
	})

	JustBeforeEach(func() {
		merged = Merge(raw, fb)
	})

	When("the service left postal code and district empty", func() {
		It("should use the pattern matches", func() {
			Expect(merged.PostalCode).To(Equal("01310-100"))
			Expect(merged.District).To(Equal("Jardim Paulista"))
		})

		It("should pass the other fields through", func() {
			Expect(merged.Name).To(Equal("João Silva"))
			Expect(merged.Street).To(Equal("Rua A 123"))
			Expect(merged.City).To(Equal("São Paulo"))
			Expect(merged.State).To(Equal("SP"))
			Expect(merged.Phone).To(Equal("11 99999-0000"))
			Expect(merged.Country).To(Equal("Brasil"))
		})
	})

	When("the service found postal code and district", func() {
		BeforeEach(func() {
			raw.PostalCode = "04567-000"
			raw.District = "Moema"
		})

		It("should prefer the service values", func() {
			Expect(merged.PostalCode).To(Equal("04567-000"))
			Expect(merged.District).To(Equal("Moema"))
		})
	})

	When("neither source has a value", func() {
		BeforeEach(func() {
			fb = Fallbacks{}
		})

		It("should leave the fields empty", func() {
			Expect(merged.PostalCode).To(BeEmpty())
			Expect(merged.District).To(BeEmpty())
		})
	})
})
