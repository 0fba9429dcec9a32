package voice

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("OpenAISynthesizer", func() {
	var (
		server *ghttp.Server
		clips  *LocalClipStore
		synth  *OpenAISynthesizer
		done   chan error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()

		var err error
		clips, err = NewLocalClipStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		synth, err = NewOpenAISynthesizer("test-key", server.URL()+"/", "gpt-4o-mini-tts", "", clips)
		Expect(err).NotTo(HaveOccurred())

		done = make(chan error, 1)
	})

	AfterEach(func() {
		server.Close()
	})

	It("should require an api key and a clip store", func() {
		_, err := NewOpenAISynthesizer("", "", "", "", clips)
		Expect(err).To(HaveOccurred())
		_, err = NewOpenAISynthesizer("key", "", "", "", nil)
		Expect(err).To(HaveOccurred())
	})

	When("the speech endpoint answers", func() {
		var saved chan string

		BeforeEach(func() {
			saved = make(chan string, 1)
			synth.OnClip = func(name string) { saved <- name }

			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/audio/speech"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer test-key"),
				ghttp.VerifyJSON(`{
					"model": "gpt-4o-mini-tts",
					"input": "Você tem 3 entregas pendentes",
					"voice": "alloy",
					"response_format": "mp3",
					"instructions": "Speak clearly in the pt-BR locale."
				}`),
				ghttp.RespondWith(http.StatusOK, []byte("ID3 fake mp3"), http.Header{"Content-Type": {"audio/mpeg"}}),
			))
		})

		It("should save the clip and complete", func() {
			Expect(synth.Speak("pt-BR", "Você tem 3 entregas pendentes", func(err error) { done <- err })).To(Succeed())

			Eventually(done).Should(Receive(BeNil()))

			var name string
			Expect(saved).To(Receive(&name))
			data, err := clips.Get(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("ID3 fake mp3"))
		})
	})

	When("the speech endpoint rejects the request", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusBadRequest, `{"error": {"message": "bad voice"}}`))
		})

		It("should complete with an error", func() {
			Expect(synth.Speak("pt-BR", "olá", func(err error) { done <- err })).To(Succeed())

			var err error
			Eventually(done).Should(Receive(&err))
			Expect(err).To(MatchError(ContainSubstring("calling speech API")))
		})
	})
})
