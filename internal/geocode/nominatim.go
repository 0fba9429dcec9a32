package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// ErrTierFailure marks a single search that failed on the network or with a
// non-success status. Resolver treats it as a miss.
var ErrTierFailure = errors.New("geocoding search failed")

const (
	// DefaultBaseURL is the public OpenStreetMap Nominatim instance
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies the client, which Nominatim requires
	DefaultUserAgent = "LogiFlow-App/1.0"
)

// Hit is one geocoding search result
type Hit struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// Searcher defines the interface for a free-text geocoding search
type Searcher interface {
	// Search returns at most one hit for query. An empty slice is a miss.
	Search(ctx context.Context, query string, language string) ([]Hit, error)
}

// NominatimConfig holds the search client settings. Zero values fall back
// to the public instance, one request per second and no cache.
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Rate      float64
	CacheSize int
	CacheTTL  time.Duration
}

// Nominatim implements Searcher against a Nominatim /search endpoint
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	cache     *expirable.LRU[string, Hit]
}

// NewNominatim creates a new Nominatim search client
func NewNominatim(cfg NominatimConfig) *Nominatim {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}

	n := &Nominatim{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(cfg.Rate), 1),
	}
	if cfg.CacheSize > 0 {
		n.cache = expirable.NewLRU[string, Hit](cfg.CacheSize, nil, cfg.CacheTTL)
	}

	return n
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search queries Nominatim for a single result
func (n *Nominatim) Search(ctx context.Context, query string, language string) ([]Hit, error) {
	key := language + "\x00" + query
	if n.cache != nil {
		if hit, ok := n.cache.Get(key); ok {
			return []Hit{hit}, nil
		}
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting for rate limiter: %v", ErrTierFailure, err)
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	if language != "" {
		req.Header.Set("Accept-Language", language)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTierFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrTierFailure, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrTierFailure, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(results[0].Lat), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing latitude %q: %v", ErrTierFailure, results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(results[0].Lon), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing longitude %q: %v", ErrTierFailure, results[0].Lon, err)
	}

	hit := Hit{Lat: lat, Lon: lon, DisplayName: results[0].DisplayName}
	if n.cache != nil {
		n.cache.Add(key, hit)
	}

	return []Hit{hit}, nil
}
