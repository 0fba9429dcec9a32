package route

import (
	"math"
	"sort"

	"github.com/zombor/logiflow/internal/address"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances
const EarthRadiusKm = 6371.0

// Stop is one item of a sequenced route with its distance from the origin
type Stop[T any] struct {
	Item       T       `json:"item"`
	DistanceKm float64 `json:"distanceKm"`
}

// DistanceKm returns the haversine distance between two resolved points
func DistanceKm(a, b address.GeoPoint) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := (b.Lat() - a.Lat()) * math.Pi / 180
	dLon := (b.Lon() - a.Lon()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Sequence orders items by distance from origin, nearest first. Items whose
// point is unresolved are left out; ties keep their input order. items is
// not modified.
func Sequence[T any](items []T, origin address.GeoPoint, pointOf func(T) address.GeoPoint) []Stop[T] {
	stops := make([]Stop[T], 0, len(items))
	for _, item := range items {
		p := pointOf(item)
		if !p.Resolved() {
			continue
		}
		stops = append(stops, Stop[T]{Item: item, DistanceKm: DistanceKm(origin, p)})
	}

	sort.SliceStable(stops, func(i, j int) bool {
		return stops[i].DistanceKm < stops[j].DistanceKm
	})

	return stops
}
