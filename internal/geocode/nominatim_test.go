package geocode

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Nominatim", func() {
	var (
		server   *ghttp.Server
		client   *Nominatim
		cfg      NominatimConfig
		hits     []Hit
		err      error
		language string
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		cfg = NominatimConfig{BaseURL: server.URL() + "/", Rate: 1000}
		language = "pt-BR"
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		client = NewNominatim(cfg)
		hits, err = client.Search(context.Background(), "São Paulo, SP", language)
	})

	When("the search finds a place", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/search", "addressdetails=1&format=json&limit=1&q=S%C3%A3o+Paulo%2C+SP"),
				ghttp.VerifyHeaderKV("User-Agent", DefaultUserAgent),
				ghttp.VerifyHeaderKV("Accept-Language", "pt-BR"),
				ghttp.RespondWith(http.StatusOK, `[{"lat": "-23.5505", "lon": "-46.6333", "display_name": "São Paulo"}]`),
			))
		})

		It("should parse the coordinates", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(Equal([]Hit{{Lat: -23.5505, Lon: -46.6333, DisplayName: "São Paulo"}}))
		})
	})

	When("the search finds nothing", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `[]`))
		})

		It("should return no hits and no error", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(BeEmpty())
		})
	})

	When("the service is unavailable", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusServiceUnavailable, "busy"))
		})

		It("should return a tier failure", func() {
			Expect(err).To(MatchError(ErrTierFailure))
			Expect(err.Error()).To(ContainSubstring("503"))
		})
	})

	When("the coordinates are malformed", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `[{"lat": "north", "lon": "-46.6"}]`))
		})

		It("should return a tier failure", func() {
			Expect(err).To(MatchError(ErrTierFailure))
		})
	})

	When("a custom user agent is configured", func() {
		BeforeEach(func() {
			cfg.UserAgent = "LogiFlow-Test/2.0"
			language = ""
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyHeaderKV("User-Agent", "LogiFlow-Test/2.0"),
				func(w http.ResponseWriter, r *http.Request) {
					Expect(r.Header.Get("Accept-Language")).To(BeEmpty())
				},
				ghttp.RespondWith(http.StatusOK, `[]`),
			))
		})

		It("should send it", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("caching is enabled", func() {
		BeforeEach(func() {
			cfg.CacheSize = 8
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `[{"lat": "1.5", "lon": "2.5"}]`))
		})

		It("should answer repeated searches from the cache", func() {
			Expect(err).NotTo(HaveOccurred())

			again, againErr := client.Search(context.Background(), "São Paulo, SP", "pt-BR")
			Expect(againErr).NotTo(HaveOccurred())
			Expect(again).To(Equal(hits))
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})

		It("should key the cache by language", func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `[]`))

			other, otherErr := client.Search(context.Background(), "São Paulo, SP", "en")
			Expect(otherErr).NotTo(HaveOccurred())
			Expect(other).To(BeEmpty())
			Expect(server.ReceivedRequests()).To(HaveLen(2))
		})
	})
})
