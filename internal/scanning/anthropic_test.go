package scanning

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

type messagesBody struct {
	Model       string   `json:"model"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
	System      []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func messageWith(blocks ...map[string]any) map[string]any {
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-3-5-haiku-latest",
		"content":     blocks,
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 20},
	}
}

func textBlock(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

var _ = Describe("Anthropic", func() {
	var (
		server    *ghttp.Server
		extractor *Anthropic
		sent      messagesBody
		data      *AddressData
		err       error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		sent = messagesBody{}
		extractor, err = NewAnthropic("test-key", server.URL()+"/", "claude-3-5-haiku-latest")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		data, err = extractor.ExtractAddress(context.Background(), "João Silva\nRua A 123")
	})

	When("the model answers across text blocks", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/v1/messages"),
				ghttp.VerifyHeader(http.Header{"X-Api-Key": []string{"test-key"}}),
				func(w http.ResponseWriter, r *http.Request) {
					body, readErr := io.ReadAll(r.Body)
					Expect(readErr).NotTo(HaveOccurred())
					Expect(json.Unmarshal(body, &sent)).To(Succeed())
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, messageWith(
					textBlock(`Here it is: {"name": "João Silva", `),
					textBlock(`"city": "São Paulo", "state": "SP"}`),
				)),
			))
		})

		It("should send the recipient prompt at temperature 0", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(sent.Model).To(Equal("claude-3-5-haiku-latest"))
			Expect(sent.MaxTokens).To(Equal(1024))
			Expect(sent.Temperature).NotTo(BeNil())
			Expect(*sent.Temperature).To(BeZero())
			Expect(sent.System).To(HaveLen(1))
			Expect(sent.System[0].Text).To(Equal(labelExtractionPrompt))
			Expect(sent.Messages).To(HaveLen(1))
			Expect(sent.Messages[0].Role).To(Equal("user"))
			Expect(sent.Messages[0].Content[0].Text).To(Equal("João Silva\nRua A 123"))
		})

		It("should parse the joined answer", func() {
			Expect(data.Name).To(Equal("João Silva"))
			Expect(data.City).To(Equal("São Paulo"))
			Expect(data.State).To(Equal("SP"))
			Expect(data.Street).To(BeEmpty())
		})
	})

	When("the model answers with no text", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, messageWith()))
		})

		It("should return ErrExtractionServiceEmpty", func() {
			Expect(err).To(MatchError(ErrExtractionServiceEmpty))
		})
	})

	When("the API rejects the request", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusBadRequest, map[string]any{
				"type":  "error",
				"error": map[string]any{"type": "invalid_request_error", "message": "bad model"},
			}))
		})

		It("should return the API error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("creating message"))
			Expect(data).To(BeNil())
		})
	})
})
