package order

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps orders in a map. It backs tests and STORE_BACKEND=memory.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]PurchaseOrder
	// insertion order, so List is stable
	seq map[string]int
	n   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]PurchaseOrder),
		seq:    make(map[string]int),
	}
}

func (s *MemoryStore) List(_ context.Context) ([]PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(func(PurchaseOrder) bool { return true }), nil
}

func (s *MemoryStore) Create(_ context.Context, o PurchaseOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(o)
	return nil
}

func (s *MemoryStore) FindByUserID(_ context.Context, userID string) ([]PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(func(o PurchaseOrder) bool { return o.User.ID == userID }), nil
}

func (s *MemoryStore) SaveAll(_ context.Context, orders []PurchaseOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range orders {
		s.put(o)
	}
	return nil
}

func (s *MemoryStore) put(o PurchaseOrder) {
	if _, ok := s.seq[o.ID]; !ok {
		s.n++
		s.seq[o.ID] = s.n
	}
	s.orders[o.ID] = o
}

func (s *MemoryStore) sorted(keep func(PurchaseOrder) bool) []PurchaseOrder {
	out := make([]PurchaseOrder, 0, len(s.orders))
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return s.seq[out[i].ID] < s.seq[out[j].ID]
	})
	return out
}
