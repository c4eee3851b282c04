// Package ranking owns the top picks rules: at most models.MaxTopPicks featured products,
// ordered by rank ascending.
//
// Ranks are never renumbered when a product leaves the featured set, and a product that
// joins keeps whatever rank it already had. A reorder always submits 1..n, which closes
// any gaps left behind. The capacity check reads a fresh count before writing but is not
// transactional with the write, so two admins racing can exceed the cap.
package ranking

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"shopguide/internal/models"
	"shopguide/internal/store"
)

var (
	ErrLimitExceeded = fmt.Errorf("maximum of %d top picks allowed", models.MaxTopPicks)
	ErrInvalidOrder  = errors.New("invalid top picks order")
	ErrNotFound      = store.ErrNotFound
)

// OrderEntry is one element of a reorder request.
type OrderEntry struct {
	ProductID primitive.ObjectID
	Rank      int
}

type Service struct {
	products store.ProductStore
	limit    int
	log      *zap.Logger
}

func NewService(products store.ProductStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{products: products, limit: models.MaxTopPicks, log: logger.Named("ranking")}
}

func (s *Service) Limit() int { return s.limit }

// CheckCapacity fails with ErrLimitExceeded when no more products can be featured.
func (s *Service) CheckCapacity(ctx context.Context) error {
	count, err := s.products.CountTopPicks(ctx)
	if err != nil {
		return err
	}
	if count >= int64(s.limit) {
		s.log.Info("top pick limit reached", zap.Int64("count", count))
		return ErrLimitExceeded
	}
	return nil
}

func (s *Service) AddToFeatured(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if product.IsTopPick {
		return product, nil
	}
	if err := s.CheckCapacity(ctx); err != nil {
		return models.Product{}, err
	}
	return s.setTopPick(ctx, id, true)
}

func (s *Service) RemoveFromFeatured(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if !product.IsTopPick {
		return product, nil
	}
	return s.setTopPick(ctx, id, false)
}

// ToggleFeatured inverts isTopPick, enforcing the cap only when turning it on.
func (s *Service) ToggleFeatured(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if product.IsTopPick {
		return s.setTopPick(ctx, id, false)
	}
	if err := s.CheckCapacity(ctx); err != nil {
		return models.Product{}, err
	}
	return s.setTopPick(ctx, id, true)
}

func (s *Service) setTopPick(ctx context.Context, id primitive.ObjectID, on bool) (models.Product, error) {
	updated, err := s.products.UpdateProduct(ctx, id, store.ProductPatch{IsTopPick: &on})
	if err != nil {
		return models.Product{}, err
	}
	s.log.Info("top pick changed",
		zap.String("id", id.Hex()),
		zap.Bool("isTopPick", on),
		zap.Int("rank", updated.Rank),
	)
	return updated, nil
}

// Featured returns the featured set sorted by rank. activeOnly is what the public site
// sees, capped at the limit.
func (s *Service) Featured(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	limit := int64(0)
	if activeOnly {
		limit = int64(s.limit)
	}
	products, err := s.products.TopPicks(ctx, activeOnly, limit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	models.SortByRank(products)
	return products, nil
}

// Reorder applies a complete ordering of the featured set and returns it refreshed.
func (s *Service) Reorder(ctx context.Context, order []OrderEntry) ([]models.Product, error) {
	if err := validateOrder(order, s.limit); err != nil {
		return nil, err
	}

	current, err := s.products.TopPicks(ctx, false, 0)
	if err != nil {
		return nil, err
	}
	if err := coversExactly(order, current); err != nil {
		return nil, err
	}

	updates := make([]store.RankUpdate, 0, len(order))
	for _, entry := range order {
		updates = append(updates, store.RankUpdate{ProductID: entry.ProductID, Rank: entry.Rank})
	}
	if err := s.products.ApplyRanks(ctx, updates); err != nil {
		s.log.Error("apply ranks failed", zap.Error(err))
		return nil, err
	}
	s.log.Info("top picks reordered", zap.Int("count", len(updates)))

	return s.Featured(ctx, false)
}

func validateOrder(order []OrderEntry, limit int) error {
	if len(order) == 0 {
		return fmt.Errorf("%w: order must not be empty", ErrInvalidOrder)
	}
	if len(order) > limit {
		return fmt.Errorf("%w: at most %d entries allowed", ErrInvalidOrder, limit)
	}

	ids := make(map[primitive.ObjectID]struct{}, len(order))
	ranks := make(map[int]struct{}, len(order))
	for _, entry := range order {
		if entry.ProductID.IsZero() {
			return fmt.Errorf("%w: productId is required", ErrInvalidOrder)
		}
		if entry.Rank < 1 {
			return fmt.Errorf("%w: rank must be 1 or greater", ErrInvalidOrder)
		}
		if _, dup := ids[entry.ProductID]; dup {
			return fmt.Errorf("%w: duplicate productId %s", ErrInvalidOrder, entry.ProductID.Hex())
		}
		if _, dup := ranks[entry.Rank]; dup {
			return fmt.Errorf("%w: duplicate rank %d", ErrInvalidOrder, entry.Rank)
		}
		ids[entry.ProductID] = struct{}{}
		ranks[entry.Rank] = struct{}{}
	}
	return nil
}

func coversExactly(order []OrderEntry, current []models.Product) error {
	if len(order) != len(current) {
		return fmt.Errorf("%w: expected %d products, got %d", ErrInvalidOrder, len(current), len(order))
	}
	featured := make(map[primitive.ObjectID]struct{}, len(current))
	for _, p := range current {
		featured[p.ID] = struct{}{}
	}
	for _, entry := range order {
		if _, ok := featured[entry.ProductID]; !ok {
			return fmt.Errorf("%w: product %s is not a top pick", ErrInvalidOrder, entry.ProductID.Hex())
		}
	}
	return nil
}
