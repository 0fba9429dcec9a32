package delivery

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketName      = "deliveries"
	routeBucketName = "routes"
)

// DB defines the interface for database operations
type DB interface {
	// SaveDelivery saves a delivery to the database
	SaveDelivery(delivery *Delivery) error

	// GetDelivery retrieves a delivery by ID
	GetDelivery(id string) (*Delivery, error)

	// ListDeliveries returns all deliveries, oldest first
	ListDeliveries() ([]*Delivery, error)

	// DeleteDelivery removes a delivery from the database
	DeleteDelivery(id string) error

	// DeleteAllDeliveries removes every delivery and returns how many there were
	DeleteAllDeliveries() (int, error)

	// SaveRoute saves a route snapshot to the database
	SaveRoute(route *Route) error

	// LatestRoute returns the most recently created route
	LatestRoute() (*Route, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(routeBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveDelivery saves a delivery to the database
func (b *BoltDB) SaveDelivery(delivery *Delivery) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data, err := json.Marshal(delivery)
		if err != nil {
			return fmt.Errorf("marshaling delivery: %w", err)
		}
		return bucket.Put([]byte(delivery.ID), data)
	})
}

// GetDelivery retrieves a delivery by ID
func (b *BoltDB) GetDelivery(id string) (*Delivery, error) {
	var delivery *Delivery
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("delivery %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &delivery)
	})
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

// ListDeliveries returns all deliveries in creation order
func (b *BoltDB) ListDeliveries() ([]*Delivery, error) {
	deliveries := make([]*Delivery, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var delivery Delivery
			if err := json.Unmarshal(v, &delivery); err != nil {
				return fmt.Errorf("unmarshaling delivery: %w", err)
			}
			deliveries = append(deliveries, &delivery)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// keys are time-ordered IDs; the sort only matters for imported data
	sort.SliceStable(deliveries, func(i, j int) bool {
		return deliveries[i].CreatedAt.Before(deliveries[j].CreatedAt)
	})
	return deliveries, nil
}

// DeleteDelivery removes a delivery from the database
func (b *BoltDB) DeleteDelivery(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("delivery %s: %w", id, ErrNotFound)
		}
		return bucket.Delete([]byte(id))
	})
}

// DeleteAllDeliveries empties the deliveries bucket
func (b *BoltDB) DeleteAllDeliveries() (int, error) {
	var count int
	err := b.db.Update(func(tx *bbolt.Tx) error {
		count = tx.Bucket([]byte(bucketName)).Stats().KeyN
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clearing deliveries: %w", err)
	}
	return count, nil
}

// SaveRoute saves a route snapshot to the database
func (b *BoltDB) SaveRoute(route *Route) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(routeBucketName))
		data, err := json.Marshal(route)
		if err != nil {
			return fmt.Errorf("marshaling route: %w", err)
		}
		return bucket.Put([]byte(route.ID), data)
	})
}

// LatestRoute returns the route with the newest creation time
func (b *BoltDB) LatestRoute() (*Route, error) {
	var latest *Route
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(routeBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var route Route
			if err := json.Unmarshal(v, &route); err != nil {
				return fmt.Errorf("unmarshaling route: %w", err)
			}
			if latest == nil || !route.CreatedAt.Before(latest.CreatedAt) {
				latest = &route
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, fmt.Errorf("route: %w", ErrNotFound)
	}
	return latest, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
