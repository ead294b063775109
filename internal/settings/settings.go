// Package settings supplies configuration snapshots and change
// notifications to the engine. Backends only read and subscribe; editing
// happens in the admin dashboard.
package settings

import (
	"context"
	"errors"
	"sync"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

var (
	// ErrUnavailable wraps any failure to fetch or parse a snapshot.
	ErrUnavailable = errors.New("settings unavailable")
	ErrNotFound    = errors.New("settings not found")
)

// Handler receives the full updated snapshot, never a partial diff.
type Handler func(model.Settings)

type Store interface {
	Snapshot(ctx context.Context) (model.Settings, error)
	// OnSettingsChanged registers h and returns a function removing it.
	OnSettingsChanged(h Handler) (cancel func())
	Close() error
}

// observers is the handler registry shared by every backend.
type observers struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
}

func (o *observers) add(h Handler) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.handlers == nil {
		o.handlers = make(map[int]Handler)
	}
	id := o.next
	o.next++
	o.handlers[id] = h
	return func() {
		o.mu.Lock()
		delete(o.handlers, id)
		o.mu.Unlock()
	}
}

func (o *observers) notify(s model.Settings) {
	o.mu.RLock()
	hs := make([]Handler, 0, len(o.handlers))
	for _, h := range o.handlers {
		hs = append(hs, h)
	}
	o.mu.RUnlock()
	for _, h := range hs {
		h(s)
	}
}
