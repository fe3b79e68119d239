package recompute

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/budgetree/internal/domain"
)

// Observer is told about every recompute attempt.
type Observer interface {
	ObserveRecompute(d time.Duration, nodes int, err error)
}

// Holder publishes the latest successful DerivedState. Readers never block
// and never see a half-built state; a failed recompute leaves the previous
// snapshot in place.
type Holder struct {
	mu       sync.Mutex
	current  atomic.Pointer[DerivedState]
	observer Observer
}

func NewHolder(observer Observer) *Holder {
	return &Holder{observer: observer}
}

// Current returns the published snapshot, or nil before the first success.
func (h *Holder) Current() *DerivedState {
	return h.current.Load()
}

// Apply recomputes from records and swaps the result in on success.
func (h *Holder) Apply(records []domain.LineRecord) (*DerivedState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	next, err := Recompute(records)
	if h.observer != nil {
		nodes := 0
		if next != nil {
			nodes = next.Tree.Len()
		}
		h.observer.ObserveRecompute(time.Since(start), nodes, err)
	}
	if err != nil {
		return nil, err
	}
	h.current.Store(next)
	return next, nil
}
