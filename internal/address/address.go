package address

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is the recipient portion of a shipping label
type Record struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
	Country    string `json:"country"`
}

// GeoPoint is a WGS84 coordinate. The zero value is unresolved.
type GeoPoint struct {
	lat, lon float64
	resolved bool
}

// Point returns a resolved GeoPoint
func Point(lat, lon float64) GeoPoint {
	return GeoPoint{lat: lat, lon: lon, resolved: true}
}

// Unresolved returns a GeoPoint with no coordinates
func Unresolved() GeoPoint {
	return GeoPoint{}
}

// Resolved reports whether both coordinates are present
func (p GeoPoint) Resolved() bool { return p.resolved }

// Lat returns the latitude in degrees, 0 when unresolved
func (p GeoPoint) Lat() float64 { return p.lat }

// Lon returns the longitude in degrees, 0 when unresolved
func (p GeoPoint) Lon() float64 { return p.lon }

func (p GeoPoint) String() string {
	if !p.resolved {
		return "(unresolved)"
	}
	return fmt.Sprintf("(%.6f, %.6f)", p.lat, p.lon)
}

type geoPointJSON struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// MarshalJSON writes {"latitude": n, "longitude": n}, with both null when unresolved
func (p GeoPoint) MarshalJSON() ([]byte, error) {
	var out geoPointJSON
	if p.resolved {
		lat, lon := p.lat, p.lon
		out.Latitude, out.Longitude = &lat, &lon
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the MarshalJSON shape. A point missing either
// coordinate decodes as unresolved.
func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = Unresolved()
		return nil
	}
	var in geoPointJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Latitude == nil || in.Longitude == nil {
		*p = Unresolved()
		return nil
	}
	*p = Point(*in.Latitude, *in.Longitude)
	return nil
}
