package mock

import (
	"context"
	"sync"
	"time"

	"github.com/wasel/courierhub/pkg/courier"
)

// Shipment is the stored state of a simulated shipment.
type Shipment struct {
	Waybill   string
	Request   *courier.ShipmentRequest
	Status    courier.UnifiedStatus
	CreatedAt time.Time
	Events    []courier.TrackingEvent
}

// Store persists simulated shipments keyed by waybill number. The in-memory
// implementation below is the default; a shared backend can be swapped in
// without touching the adapter.
type Store interface {
	// Save inserts or replaces a shipment record
	Save(ctx context.Context, shipment *Shipment) error

	// Get returns a copy of the record; found reports whether it exists
	Get(ctx context.Context, waybill string) (*Shipment, bool, error)

	// Update applies fn to the record under the store's lock;
	// found reports whether the record existed
	Update(ctx context.Context, waybill string, fn func(*Shipment)) (bool, error)
}

// MemoryStore is a mutex-guarded in-process Store.
type MemoryStore struct {
	mu        sync.Mutex
	shipments map[string]*Shipment
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shipments: make(map[string]*Shipment),
	}
}

// Save inserts or replaces a shipment record.
func (s *MemoryStore) Save(ctx context.Context, shipment *Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipments[shipment.Waybill] = cloneShipment(shipment)
	return nil
}

// Get returns a copy of the record so callers cannot mutate stored state
// except through Update.
func (s *MemoryStore) Get(ctx context.Context, waybill string) (*Shipment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shipment, ok := s.shipments[waybill]
	if !ok {
		return nil, false, nil
	}
	return cloneShipment(shipment), true, nil
}

// Update applies fn to the stored record under the lock.
func (s *MemoryStore) Update(ctx context.Context, waybill string, fn func(*Shipment)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shipment, ok := s.shipments[waybill]
	if !ok {
		return false, nil
	}
	fn(shipment)
	return true, nil
}

func cloneShipment(shipment *Shipment) *Shipment {
	clone := *shipment
	clone.Events = make([]courier.TrackingEvent, len(shipment.Events))
	copy(clone.Events, shipment.Events)
	return &clone
}

var _ Store = (*MemoryStore)(nil)
