package scanning

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server    *ghttp.Server
		extractor *Ollama
		data      *AddressData
		err       error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		extractor, err = NewOllama(server.URL(), "llama3.1")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		data, err = extractor.ExtractAddress(context.Background(), "João Silva\nRua A 123")
	})

	When("the model answers with JSON", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				ghttp.VerifyJSON(`{
					"model": "llama3.1",
					"format": "json",
					"stream": false,
					"options": {"temperature": 0},
					"messages": [
						{"role": "system", "content": `+quoteJSON(labelExtractionPrompt)+`},
						{"role": "user", "content": "João Silva\nRua A 123"}
					]
				}`),
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaReply{
					Message: ollamaTurn{Role: "assistant", Content: `{"name": "João Silva", "street": "Rua A 123"}`},
					Done:    true,
				}),
			))
		})

		It("should parse the address", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(data.Name).To(Equal("João Silva"))
			Expect(data.Street).To(Equal("Rua A 123"))
			Expect(data.City).To(BeEmpty())
		})
	})

	When("the model answers with no content", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaReply{Done: true}))
		})

		It("should return ErrExtractionServiceEmpty", func() {
			Expect(err).To(MatchError(ErrExtractionServiceEmpty))
		})
	})

	When("the server fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("should return an error carrying the body", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("model not loaded"))
		})
	})
})
