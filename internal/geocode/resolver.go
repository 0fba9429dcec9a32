package geocode

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/zombor/logiflow/internal/address"
	"github.com/zombor/logiflow/internal/fallback"
	"github.com/zombor/logiflow/internal/lexicon"
)

// DefaultTimeout bounds a full geocoding attempt across all tiers
const DefaultTimeout = 30 * time.Second

// Tier is one planned search, from most to least precise
type Tier struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// Resolver turns an address record into coordinates by trying increasingly
// coarse searches until one hits
type Resolver struct {
	searcher Searcher
	language string
	timeout  time.Duration
	noise    *regexp.Regexp
	spaces   *regexp.Regexp
}

// NewResolver creates a resolver. language is sent as the preferred
// response language; a zero timeout means DefaultTimeout.
func NewResolver(searcher Searcher, lex *lexicon.Lexicon, language string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	r := &Resolver{
		searcher: searcher,
		language: language,
		timeout:  timeout,
		spaces:   regexp.MustCompile(`\s+`),
	}

	if len(lex.Geocode.NoiseTokens) > 0 {
		quoted := make([]string, len(lex.Geocode.NoiseTokens))
		for i, t := range lex.Geocode.NoiseTokens {
			quoted[i] = regexp.QuoteMeta(t)
		}
		r.noise = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}

	return r
}

// Tiers returns the searches Resolve would run for rec, in order. It is
// empty when the record has no city.
func (r *Resolver) Tiers(rec address.Record) []Tier {
	if strings.TrimSpace(rec.City) == "" {
		return nil
	}

	street := r.clean(rec.Street)
	district := r.clean(rec.District)

	var tiers []Tier
	if strings.TrimSpace(rec.PostalCode) != "" {
		tiers = append(tiers, Tier{Name: "postal", Query: joinQuery(rec.PostalCode, rec.City, rec.Country)})
	}
	tiers = append(tiers,
		Tier{Name: "street", Query: joinQuery(street, district, rec.City, rec.State, rec.Country)},
		Tier{Name: "city", Query: joinQuery(rec.City, rec.State, rec.Country)},
	)

	return tiers
}

// Resolve geocodes rec. It never fails: every tier error or miss moves on
// to the next tier and a total miss returns an unresolved point.
func (r *Resolver) Resolve(ctx context.Context, rec address.Record) address.GeoPoint {
	tiers := r.Tiers(rec)
	if len(tiers) == 0 {
		slog.Debug("Skipping geocode without city", "street", rec.Street)
		return address.Unresolved()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	strategies := make([]fallback.Strategy[address.GeoPoint], len(tiers))
	for i, tier := range tiers {
		strategies[i] = fallback.Strategy[address.GeoPoint]{
			Name: tier.Name,
			Run: func(ctx context.Context) (address.GeoPoint, bool, error) {
				hits, err := r.searcher.Search(ctx, tier.Query, r.language)
				if err != nil {
					return address.Unresolved(), false, fmt.Errorf("tier %s: %w", tier.Name, err)
				}
				if len(hits) == 0 {
					return address.Unresolved(), false, nil
				}
				return address.Point(hits[0].Lat, hits[0].Lon), true, nil
			},
		}
	}

	point, tier, ok := fallback.First(ctx, strategies...)
	if !ok {
		slog.Warn("Address could not be geocoded", "city", rec.City, "tiers", len(tiers))
		return address.Unresolved()
	}

	slog.Debug("Address geocoded", "tier", tier, "point", point.String())
	return point
}

func (r *Resolver) clean(s string) string {
	if r.noise != nil {
		s = r.noise.ReplaceAllString(s, " ")
	}
	return strings.TrimSpace(r.spaces.ReplaceAllString(s, " "))
}

// joinQuery joins the non-empty parts with ", "
func joinQuery(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
