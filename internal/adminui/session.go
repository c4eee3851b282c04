package adminui

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shopguide/internal/apiclient"
	"shopguide/internal/models"
)

// ErrLimitReached is the client-side cap check; the server re-checks regardless.
var ErrLimitReached = fmt.Errorf("maximum of %d top picks allowed", models.MaxTopPicks)

// Backend is the part of the API the reorder workflow needs; *apiclient.Client
// satisfies it.
type Backend interface {
	AdminTopPicks(ctx context.Context) ([]models.Product, error)
	ReorderTopPicks(ctx context.Context, order []apiclient.OrderEntry) ([]models.Product, error)
	ToggleTopPick(ctx context.Context, productID string) (models.Product, error)
}

// Session runs one operator's reorder actions against a Backend. Calls are expected
// one at a time: each action waits for its response before the next starts.
type Session struct {
	backend Backend
	store   *Store
	log     *zap.Logger
}

func NewSession(backend Backend, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{backend: backend, store: NewStore(models.MaxTopPicks), log: logger.Named("adminui")}
}

func (s *Session) Store() *Store { return s.store }

// Load replaces the store with the server's featured set.
func (s *Session) Load(ctx context.Context) error {
	products, err := s.backend.AdminTopPicks(ctx)
	if err != nil {
		return err
	}
	s.store.Replace(products)
	return nil
}

// Drop moves the item at visual position from to position to (both 0-based) and
// submits the full resulting order.
func (s *Session) Drop(ctx context.Context, from, to int) error {
	ids, err := Move(s.store.IDs(), from, to)
	if err != nil {
		return err
	}
	return s.Submit(ctx, ids)
}

// Submit sends ids as the complete new order. On success the returned ranks are echoed
// into the store; on any failure the local order is discarded and reloaded from the
// server, and the submit error is returned.
func (s *Session) Submit(ctx context.Context, ids []string) error {
	returned, err := s.backend.ReorderTopPicks(ctx, ComputeOrder(ids))
	if err != nil {
		s.log.Warn("reorder failed, reloading", zap.Error(err))
		if reloadErr := s.Load(ctx); reloadErr != nil {
			return errors.Join(err, fmt.Errorf("reload: %w", reloadErr))
		}
		return err
	}

	s.store.EchoRanks(returned)
	s.log.Info("reorder saved", zap.Int("count", len(returned)))
	return nil
}

// Toggle flips a product in or out of the featured set. Adding to a full store fails
// locally with ErrLimitReached without calling the server.
func (s *Session) Toggle(ctx context.Context, productID string) (models.Product, error) {
	if !s.store.Contains(productID) && s.store.Full() {
		return models.Product{}, ErrLimitReached
	}

	product, err := s.backend.ToggleTopPick(ctx, productID)
	if err != nil {
		if reloadErr := s.Load(ctx); reloadErr != nil {
			s.log.Warn("reload after toggle failure failed", zap.Error(reloadErr))
		}
		return models.Product{}, err
	}
	s.store.Apply(product)
	return product, nil
}
