package delivery

import (
	"errors"
	"time"

	"github.com/zombor/logiflow/internal/address"
)

// ErrNotFound is returned when a delivery or route does not exist
var ErrNotFound = errors.New("not found")

// Status is the lifecycle state of a delivery
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Delivery is a resolved label awaiting or past delivery
type Delivery struct {
	ID string `json:"id"`
	address.Record
	Location    address.GeoPoint `json:"location"`
	Status      Status           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// Pending reports whether the delivery still has to be made
func (d *Delivery) Pending() bool {
	return d.Status == StatusPending
}

// Stop is one leg of a planned route
type Stop struct {
	DeliveryID string  `json:"delivery_id"`
	DistanceKm float64 `json:"distance_km"`
}

// Route is a snapshot of pending deliveries ordered from an origin.
// Unrouted lists pending deliveries that had no coordinates.
type Route struct {
	ID        string           `json:"id"`
	Origin    address.GeoPoint `json:"origin"`
	Stops     []Stop           `json:"stops"`
	Unrouted  []string         `json:"unrouted"`
	CreatedAt time.Time        `json:"created_at"`
}

// DeliveryIDs returns the routed delivery IDs in order
func (r *Route) DeliveryIDs() []string {
	ids := make([]string, len(r.Stops))
	for i, s := range r.Stops {
		ids[i] = s.DeliveryID
	}
	return ids
}
