package label

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/logiflow/internal/lexicon"
)

func cleanedOf(lines ...string) CleanedText {
	return CleanedText{Text: strings.Join(lines, "\n"), Lines: lines}
}

var _ = Describe("Postcode", func() {
	DescribeTable("finds the first postal code",
		func(text CleanedText, expected string) {
			Expect(Postcode(text)).To(Equal(expected))
		},
		Entry("hyphenated", cleanedOf("Rua A 123", "CEP 01310-100 São Paulo"), "01310-100"),
		Entry("without hyphen", cleanedOf("CEP: 01310100"), "01310100"),
		Entry("first of two", cleanedOf("01310-100", "04567-000"), "01310-100"),
		Entry("too many digits", cleanedOf("Pedido 0131010099"), ""),
		Entry("none", cleanedOf("Rua A 123"), ""),
	)
})

var _ = Describe("FieldExtractor", func() {
	var extractor *FieldExtractor

	BeforeEach(func() {
		extractor = NewFieldExtractor(lexicon.Default())
	})

	Describe("Neighborhood", func() {
		DescribeTable("finds the neighborhood line",
			func(text CleanedText, expected string) {
				Expect(extractor.Neighborhood(text)).To(Equal(expected))
			},
			Entry("marker word", cleanedOf("João Silva", "Rua A 123", "Bairro Jardim Paulista", "São Paulo - SP"), "Jardim Paulista"),
			Entry("marker with colon", cleanedOf("BAIRRO: Centro"), "Centro"),
			Entry("prefix word kept", cleanedOf("Rua B 45", "Vila Mariana"), "Vila Mariana"),
			Entry("accented prefix", cleanedOf("chacara Santo Antônio"), "chacara Santo Antônio"),
			Entry("unaccented text against accented lexicon", cleanedOf("Chácara Flora"), "Chácara Flora"),
			Entry("marker only line is skipped", cleanedOf("Bairro", "Jardim América"), "Jardim América"),
			Entry("trailing marker word", cleanedOf("Rua A 123", "Jardim Paulista Bairro"), "Jardim Paulista"),
			Entry("marker after a comma", cleanedOf("Rua A 123, Bairro: Centro"), "Rua A 123, Centro"),
			Entry("prefix inside another word", cleanedOf("Rua Vilanova 10", "Jardineira Sul"), ""),
			Entry("nothing", cleanedOf("Rua A 123", "São Paulo"), ""),
		)
	})

	Describe("Extract", func() {
		It("should return both candidates", func() {
			fb := extractor.Extract(cleanedOf("Rua A 123", "Bairro Centro", "01310-100"))
			Expect(fb).To(Equal(Fallbacks{PostalCode: "01310-100", District: "Centro"}))
		})
	})
})
