// Package memrepo provides an in-memory shipment record repository.
package memrepo

import (
	"context"
	"sync"

	"github.com/wasel/courierhub/internal/service"
	"github.com/wasel/courierhub/pkg/courier"
)

// Repo is a mutex-guarded in-memory service.Repo. Values are copied on the
// way in and out so callers never share slices with the repository.
type Repo struct {
	mu      sync.Mutex
	records map[string]*service.Record
}

// New creates an empty repository.
func New() *Repo {
	return &Repo{records: make(map[string]*service.Record)}
}

func (r *Repo) Save(ctx context.Context, rec *service.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.Waybill] = cloneRecord(rec)
	return nil
}

func (r *Repo) Get(ctx context.Context, waybill string) (*service.Record, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[waybill]
	if !ok {
		return nil, false, nil
	}
	return cloneRecord(rec), true, nil
}

func cloneRecord(rec *service.Record) *service.Record {
	out := *rec
	out.Events = append([]courier.TrackingEvent(nil), rec.Events...)
	return &out
}

var _ service.Repo = (*Repo)(nil)
