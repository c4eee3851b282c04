package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopguide/internal/models"
)

// Memory keeps products and users in process. Writes to ApplyRanks are all-or-nothing.
type Memory struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]models.Product
	users    map[primitive.ObjectID]models.User
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		products: map[primitive.ObjectID]models.Product{},
		users:    map[primitive.ObjectID]models.User{},
		now:      time.Now,
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func cloneProduct(p models.Product) models.Product {
	if p.Tags != nil {
		p.Tags = append(models.Tags{}, p.Tags...)
	}
	return p
}

func (m *Memory) InsertProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, ok := m.products[p.ID]; ok {
		return ErrDuplicate
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	m.products[p.ID] = cloneProduct(*p)
	return nil
}

func (m *Memory) GetProduct(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return cloneProduct(p), nil
}

func (m *Memory) matches(p models.Product, f ProductFilter) bool {
	if f.ActiveOnly && !p.IsActive {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		if strings.Contains(strings.ToLower(p.Title), search) ||
			strings.Contains(strings.ToLower(p.Description), search) {
			return true
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), search) {
				return true
			}
		}
		return false
	}
	return true
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareByField(a, b models.Product, field string) int {
	switch field {
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "rank":
		return a.Rank - b.Rank
	case "price":
		return strings.Compare(a.Price, b.Price)
	case "category":
		return strings.Compare(string(a.Category), string(b.Category))
	case "updatedAt":
		return compareTimes(a.UpdatedAt, b.UpdatedAt)
	default:
		return compareTimes(a.CreatedAt, b.CreatedAt)
	}
}

func (m *Memory) ListProducts(_ context.Context, opts ListOptions) ([]models.Product, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if m.matches(p, opts.Filter) {
			out = append(out, cloneProduct(p))
		}
	}

	field := opts.SortBy
	if _, ok := SortFields[field]; !ok {
		field = "createdAt"
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compareByField(out[i], out[j], field)
		if c == 0 {
			c = compareTimes(out[i].CreatedAt, out[j].CreatedAt)
		}
		if c == 0 {
			c = strings.Compare(out[i].ID.Hex(), out[j].ID.Hex())
		}
		if opts.Descending {
			return c > 0
		}
		return c < 0
	})

	total := int64(len(out))
	if opts.Skip > 0 {
		if opts.Skip >= total {
			return []models.Product{}, total, nil
		}
		out = out[opts.Skip:]
	}
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, total, nil
}

func (m *Memory) UpdateProduct(_ context.Context, id primitive.ObjectID, patch ProductPatch) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	applyPatch(&p, patch)
	p.UpdatedAt = m.now()
	m.products[id] = p
	return cloneProduct(p), nil
}

func applyPatch(p *models.Product, patch ProductPatch) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Link != nil {
		p.Link = *patch.Link
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.ImageKey != nil {
		p.ImageKey = *patch.ImageKey
	}
	if patch.Tags != nil {
		p.Tags = append(models.Tags{}, (*patch.Tags)...)
	}
	if patch.IsTopPick != nil {
		p.IsTopPick = *patch.IsTopPick
	}
	if patch.Rank != nil {
		p.Rank = *patch.Rank
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.AffiliateCode != nil {
		p.AffiliateCode = *patch.AffiliateCode
	}
}

func (m *Memory) DeleteProduct(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	delete(m.products, id)
	return p, nil
}

func (m *Memory) CountTopPicks(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, p := range m.products {
		if p.IsTopPick {
			n++
		}
	}
	return n, nil
}

func (m *Memory) TopPicks(_ context.Context, activeOnly bool, limit int64) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Product, 0, models.MaxTopPicks)
	for _, p := range m.products {
		if !p.IsTopPick || (activeOnly && !p.IsActive) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	models.SortByRank(out)
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) ApplyRanks(_ context.Context, updates []RankUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range updates {
		p, ok := m.products[u.ProductID]
		if !ok || !p.IsTopPick {
			return fmt.Errorf("rank update %s: %w", u.ProductID.Hex(), ErrNotFound)
		}
	}
	now := m.now()
	for _, u := range updates {
		p := m.products[u.ProductID]
		p.Rank = u.Rank
		p.UpdatedAt = now
		m.products[u.ProductID] = p
	}
	return nil
}

func (m *Memory) SetActive(_ context.Context, ids []primitive.ObjectID, active bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	now := m.now()
	for _, id := range ids {
		p, ok := m.products[id]
		if !ok {
			continue
		}
		p.IsActive = active
		p.UpdatedAt = now
		m.products[id] = p
		n++
	}
	return n, nil
}

func (m *Memory) DeleteProducts(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			deleted = append(deleted, p)
			delete(m.products, id)
		}
	}
	return deleted, nil
}

func (m *Memory) Categories(_ context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := map[models.Category]struct{}{}
	for _, p := range m.products {
		if p.IsActive {
			seen[p.Category] = struct{}{}
		}
	}
	return sortCategoryNames(seen), nil
}

func (m *Memory) Stats(ctx context.Context) (ProductStats, error) {
	m.mu.RLock()
	stats := ProductStats{ByCategory: []models.CategoryStat{}}
	counts := map[models.Category]int64{}
	for _, p := range m.products {
		stats.Total++
		if p.IsTopPick {
			stats.TopPicks++
		}
		if p.IsActive {
			stats.Active++
			counts[p.Category]++
		}
	}
	m.mu.RUnlock()

	for c, n := range counts {
		stats.ByCategory = append(stats.ByCategory, models.CategoryStat{Category: c, Count: n})
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		if stats.ByCategory[i].Count != stats.ByCategory[j].Count {
			return stats.ByCategory[i].Count > stats.ByCategory[j].Count
		}
		return stats.ByCategory[i].Category < stats.ByCategory[j].Category
	})

	recent, _, err := m.ListProducts(ctx, ListOptions{
		Filter:     ProductFilter{ActiveOnly: true},
		SortBy:     "createdAt",
		Descending: true,
		Limit:      5,
	})
	if err != nil {
		return ProductStats{}, err
	}
	stats.Recent = recent
	return stats, nil
}

func (m *Memory) InsertUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(_ context.Context, id primitive.ObjectID) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) FindUserByLogin(_ context.Context, login string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	login = strings.TrimSpace(login)
	for _, u := range m.users {
		if !u.IsActive {
			continue
		}
		if u.Username == login || strings.EqualFold(u.Email, login) {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *Memory) TouchLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = &at
	m.users[id] = u
	return nil
}

func (m *Memory) CountUsers(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

func (m *Memory) AdminExists(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Role == models.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}
