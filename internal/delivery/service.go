package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/logiflow/internal/address"
	"github.com/zombor/logiflow/internal/label"
	"github.com/zombor/logiflow/internal/route"
)

var (
	// ErrEmptyAddress is returned when a delivery has no address fields at all
	ErrEmptyAddress = errors.New("delivery has no address")

	// ErrInvalidOrigin is returned when a route is requested without coordinates
	ErrInvalidOrigin = errors.New("route origin needs latitude and longitude")
)

// Scanner reads a label photo into an address
type Scanner interface {
	Scan(ctx context.Context, imageBase64 string, contentType string) (*label.Result, error)
}

// Geocoder resolves an address to coordinates. It never fails; a miss is
// an unresolved point.
type Geocoder interface {
	Resolve(ctx context.Context, rec address.Record) address.GeoPoint
}

// IDGenerator generates unique IDs for deliveries and routes
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates time-ordered UUIDs so bolt keys sort by age
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles delivery operations
type Service struct {
	db          DB
	scanner     Scanner
	geocoder    Geocoder
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner Scanner, geocoder Geocoder) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		geocoder:    geocoder,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner Scanner, geocoder Geocoder, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		geocoder:    geocoder,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ScanLabel reads a label photo. The result is a preview and is not saved.
func (s *Service) ScanLabel(ctx context.Context, imageBase64 string, contentType string) (*label.Result, error) {
	start := s.timeSource.Now()

	result, err := s.scanner.Scan(ctx, imageBase64, contentType)
	if err != nil {
		slog.Error("Failed to scan label",
			"content_type", contentType,
			"payload_size", len(imageBase64),
			"error", err,
		)
		return nil, fmt.Errorf("scanning label: %w", err)
	}

	slog.Info("Label scanned",
		"city", result.City,
		"has_postal_code", result.PostalCode != "",
		"has_district", result.District != "",
		"elapsed", s.timeSource.Now().Sub(start),
	)
	return result, nil
}

// Geocode resolves an address without saving anything
func (s *Service) Geocode(ctx context.Context, rec address.Record) address.GeoPoint {
	return s.geocoder.Resolve(ctx, rec)
}

// CreateDelivery saves a pending delivery. When location is nil or
// unresolved the address is geocoded first; a geocoding miss still saves
// the delivery without coordinates.
func (s *Service) CreateDelivery(ctx context.Context, rec address.Record, location *address.GeoPoint) (*Delivery, error) {
	rec = trimRecord(rec)
	if rec == (address.Record{}) {
		return nil, ErrEmptyAddress
	}

	var point address.GeoPoint
	if location != nil && location.Resolved() {
		point = *location
	} else {
		point = s.geocoder.Resolve(ctx, rec)
	}

	now := s.timeSource.Now()
	delivery := &Delivery{
		ID:        s.idGenerator.Generate(),
		Record:    rec,
		Location:  point,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.SaveDelivery(delivery); err != nil {
		return nil, fmt.Errorf("saving delivery to database: %w", err)
	}

	slog.Info("Delivery created", "id", delivery.ID, "city", rec.City, "geocoded", point.Resolved())
	return delivery, nil
}

// GetDelivery retrieves a delivery by ID
func (s *Service) GetDelivery(id string) (*Delivery, error) {
	delivery, err := s.db.GetDelivery(id)
	if err != nil {
		return nil, fmt.Errorf("getting delivery: %w", err)
	}
	return delivery, nil
}

// ListDeliveries returns deliveries in creation order, optionally only
// those with the given status
func (s *Service) ListDeliveries(status Status) ([]*Delivery, error) {
	deliveries, err := s.db.ListDeliveries()
	if err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}
	if status == "" {
		return deliveries, nil
	}

	filtered := make([]*Delivery, 0, len(deliveries))
	for _, d := range deliveries {
		if d.Status == status {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

// CompleteDelivery marks a delivery as completed. Completing it again is a
// no-op.
func (s *Service) CompleteDelivery(id string) (*Delivery, error) {
	delivery, err := s.db.GetDelivery(id)
	if err != nil {
		return nil, fmt.Errorf("getting delivery: %w", err)
	}
	if !delivery.Pending() {
		return delivery, nil
	}

	now := s.timeSource.Now()
	delivery.Status = StatusCompleted
	delivery.UpdatedAt = now
	delivery.CompletedAt = &now

	if err := s.db.SaveDelivery(delivery); err != nil {
		return nil, fmt.Errorf("updating delivery %s: %w", id, err)
	}
	return delivery, nil
}

// CompleteDeliveries marks several deliveries as completed. Every ID is
// checked before any is changed.
func (s *Service) CompleteDeliveries(ids []string) ([]*Delivery, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one delivery is required")
	}

	for _, id := range ids {
		if _, err := s.db.GetDelivery(id); err != nil {
			return nil, fmt.Errorf("getting delivery %s: %w", id, err)
		}
	}

	completed := make([]*Delivery, 0, len(ids))
	for _, id := range ids {
		delivery, err := s.CompleteDelivery(id)
		if err != nil {
			return nil, err
		}
		completed = append(completed, delivery)
	}
	return completed, nil
}

// DeleteDelivery removes a delivery
func (s *Service) DeleteDelivery(id string) error {
	if err := s.db.DeleteDelivery(id); err != nil {
		return fmt.Errorf("deleting delivery from database: %w", err)
	}
	return nil
}

// DeleteAllDeliveries removes every delivery and returns how many there were
func (s *Service) DeleteAllDeliveries() (int, error) {
	count, err := s.db.DeleteAllDeliveries()
	if err != nil {
		return 0, fmt.Errorf("deleting deliveries: %w", err)
	}
	slog.Info("Deliveries cleared", "count", count)
	return count, nil
}

// PlanRoute orders pending deliveries by distance from origin and saves
// the result as the latest route
func (s *Service) PlanRoute(origin address.GeoPoint) (*Route, error) {
	if !origin.Resolved() {
		return nil, ErrInvalidOrigin
	}

	pending, err := s.ListDeliveries(StatusPending)
	if err != nil {
		return nil, err
	}

	sequenced := route.Sequence(pending, origin, func(d *Delivery) address.GeoPoint {
		return d.Location
	})

	r := &Route{
		ID:        s.idGenerator.Generate(),
		Origin:    origin,
		Stops:     make([]Stop, len(sequenced)),
		Unrouted:  []string{},
		CreatedAt: s.timeSource.Now(),
	}
	for i, stop := range sequenced {
		r.Stops[i] = Stop{DeliveryID: stop.Item.ID, DistanceKm: stop.DistanceKm}
	}
	for _, d := range pending {
		if !d.Location.Resolved() {
			r.Unrouted = append(r.Unrouted, d.ID)
		}
	}

	if err := s.db.SaveRoute(r); err != nil {
		return nil, fmt.Errorf("saving route: %w", err)
	}

	slog.Info("Route planned", "id", r.ID, "stops", len(r.Stops), "unrouted", len(r.Unrouted))
	return r, nil
}

// LatestRoute returns the most recently planned route
func (s *Service) LatestRoute() (*Route, error) {
	r, err := s.db.LatestRoute()
	if err != nil {
		return nil, fmt.Errorf("getting latest route: %w", err)
	}
	return r, nil
}

// PendingCount returns the number of pending deliveries
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	pending, err := s.ListDeliveries(StatusPending)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// NextStop returns the first stop of the latest route that is still
// pending, or the oldest pending delivery when no routed stop remains
func (s *Service) NextStop(ctx context.Context) (address.Record, bool, error) {
	d, err := s.nextDelivery()
	if err != nil || d == nil {
		return address.Record{}, false, err
	}
	return d.Record, true, nil
}

func (s *Service) nextDelivery() (*Delivery, error) {
	r, err := s.db.LatestRoute()
	switch {
	case err == nil:
		for _, id := range r.DeliveryIDs() {
			d, err := s.db.GetDelivery(id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("getting routed delivery: %w", err)
			}
			if d.Pending() {
				return d, nil
			}
		}
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("getting latest route: %w", err)
	}

	pending, err := s.ListDeliveries(StatusPending)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}
	return pending[0], nil
}

// Links returns navigation and contact links for a delivery
func (s *Service) Links(id string) (*Links, error) {
	delivery, err := s.db.GetDelivery(id)
	if err != nil {
		return nil, fmt.Errorf("getting delivery: %w", err)
	}
	links := LinksFor(delivery)
	return &links, nil
}

func trimRecord(rec address.Record) address.Record {
	return address.Record{
		Name:       strings.TrimSpace(rec.Name),
		Street:     strings.TrimSpace(rec.Street),
		District:   strings.TrimSpace(rec.District),
		City:       strings.TrimSpace(rec.City),
		State:      strings.TrimSpace(rec.State),
		PostalCode: strings.TrimSpace(rec.PostalCode),
		Phone:      strings.TrimSpace(rec.Phone),
		Country:    strings.TrimSpace(rec.Country),
	}
}
