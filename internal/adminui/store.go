package adminui

import (
	"sync"

	"shopguide/internal/models"
)

// Store is the client's copy of the featured set, kept in rank order. It is only ever
// rebuilt or patched from server responses.
type Store struct {
	mu       sync.RWMutex
	products []models.Product
	limit    int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = models.MaxTopPicks
	}
	return &Store{limit: limit}
}

// Replace rebuilds the store from an authoritative list.
func (s *Store) Replace(products []models.Product) {
	next := make([]models.Product, len(products))
	copy(next, products)
	models.SortByRank(next)

	s.mu.Lock()
	s.products = next
	s.mu.Unlock()
}

func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out
}

func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.products))
	for _, p := range s.products {
		ids = append(ids, p.ID.Hex())
	}
	return ids
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0
}

// Full is the advisory cap check made before asking the server to feature a product.
func (s *Store) Full() bool {
	return s.Len() >= s.limit
}

// EchoRanks copies the ranks the server returned onto the matching entries and
// re-sorts, without dropping or adding products.
func (s *Store) EchoRanks(returned []models.Product) {
	ranks := make(map[string]int, len(returned))
	for _, p := range returned {
		ranks[p.ID.Hex()] = p.Rank
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if rank, ok := ranks[s.products[i].ID.Hex()]; ok {
			s.products[i].Rank = rank
		}
	}
	models.SortByRank(s.products)
}

// Apply records one product returned by a toggle: featured products are upserted and
// the rest removed.
func (s *Store) Apply(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(p.ID.Hex())
	switch {
	case p.IsTopPick && idx >= 0:
		s.products[idx] = p
	case p.IsTopPick:
		s.products = append(s.products, p)
	case idx >= 0:
		s.products = append(s.products[:idx], s.products[idx+1:]...)
	}
	models.SortByRank(s.products)
}

func (s *Store) indexOf(id string) int {
	for i, p := range s.products {
		if p.ID.Hex() == id {
			return i
		}
	}
	return -1
}
