package delivery

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	googleMapsSearchURL = "https://www.google.com/maps/search/?api=1&query="
	wazeURL             = "https://waze.com/ul"
	whatsAppURL         = "https://wa.me/"

	// brazilCallingCode is prefixed to bare national numbers (area code + subscriber)
	brazilCallingCode = "55"
)

// Links are deep links a driver uses to reach a delivery. Phone links are
// empty when the label carried no phone number.
type Links struct {
	GoogleMaps string `json:"google_maps"`
	Waze       string `json:"waze"`
	WhatsApp   string `json:"whatsapp,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// LinksFor builds navigation links from the delivery coordinates, or from
// its address text when it was never geocoded
func LinksFor(d *Delivery) Links {
	var links Links

	if d.Location.Resolved() {
		ll := fmt.Sprintf("%f,%f", d.Location.Lat(), d.Location.Lon())
		links.GoogleMaps = googleMapsSearchURL + url.QueryEscape(ll)
		links.Waze = wazeURL + "?" + url.Values{"ll": {ll}, "navigate": {"yes"}}.Encode()
	} else {
		query := searchText(d)
		links.GoogleMaps = googleMapsSearchURL + url.QueryEscape(query)
		links.Waze = wazeURL + "?" + url.Values{"q": {query}, "navigate": {"yes"}}.Encode()
	}

	digits := phoneDigits(d.Phone)
	if digits != "" {
		links.Phone = "tel:" + digits
		if len(digits) == 10 || len(digits) == 11 {
			digits = brazilCallingCode + digits
		}
		links.WhatsApp = whatsAppURL + digits
	}

	return links
}

func searchText(d *Delivery) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{d.Street, d.District, d.City, d.State, d.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func phoneDigits(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}
