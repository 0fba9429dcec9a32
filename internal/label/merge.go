package label

import (
	"github.com/zombor/logiflow/internal/address"
	"github.com/zombor/logiflow/internal/fallback"
	"github.com/zombor/logiflow/internal/scanning"
)

// Merge builds the final address record. The extraction service reads the
// whole label, so its postal code and district win; the literal pattern
// matches only fill fields it left empty. Other fields pass through.
func Merge(raw scanning.AddressData, fb Fallbacks) address.Record {
	return address.Record{
		Name:       raw.Name,
		Street:     raw.Street,
		District:   fallback.FirstNonEmpty(raw.District, fb.District),
		City:       raw.City,
		State:      raw.State,
		PostalCode: fallback.FirstNonEmpty(raw.PostalCode, fb.PostalCode),
		Phone:      raw.Phone,
		Country:    raw.Country,
	}
}
