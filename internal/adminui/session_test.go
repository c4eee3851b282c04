package adminui

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopguide/internal/apiclient"
	"shopguide/internal/auth"
	"shopguide/internal/handlers"
	"shopguide/internal/media"
	"shopguide/internal/models"
	"shopguide/internal/ranking"
	"shopguide/internal/store"
)

// serviceBackend drives a real ranking service in-process.
type serviceBackend struct {
	svc          *ranking.Service
	reorderErr   error
	loads        int
	toggleCalls  int
	reorderCalls int
}

func (b *serviceBackend) AdminTopPicks(ctx context.Context) ([]models.Product, error) {
	b.loads++
	return b.svc.Featured(ctx, false)
}

func (b *serviceBackend) ReorderTopPicks(ctx context.Context, order []apiclient.OrderEntry) ([]models.Product, error) {
	b.reorderCalls++
	if b.reorderErr != nil {
		return nil, b.reorderErr
	}
	entries := make([]ranking.OrderEntry, 0, len(order))
	for _, e := range order {
		id, err := primitive.ObjectIDFromHex(e.ProductID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ranking.OrderEntry{ProductID: id, Rank: e.Rank})
	}
	return b.svc.Reorder(ctx, entries)
}

func (b *serviceBackend) ToggleTopPick(ctx context.Context, productID string) (models.Product, error) {
	b.toggleCalls++
	id, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return models.Product{}, err
	}
	return b.svc.ToggleFeatured(ctx, id)
}

func seedFeatured(t *testing.T, st *store.Memory, n int) []models.Product {
	t.Helper()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Product, 0, n)
	for i := 1; i <= n; i++ {
		p := models.Product{
			Title:     fmt.Sprintf("Pick %d", i),
			Category:  models.CategoryHome,
			IsTopPick: true,
			Rank:      i,
			IsActive:  true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, st.InsertProduct(context.Background(), &p))
		out = append(out, p)
	}
	return out
}

func hexIDs(products []models.Product) []string {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID.Hex())
	}
	return ids
}

func TestDropLastToFirstEchoesRanks(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	picks := seedFeatured(t, st, 6)
	backend := &serviceBackend{svc: ranking.NewService(st, nil)}
	session := NewSession(backend, nil)
	require.NoError(t, session.Load(ctx))

	require.NoError(t, session.Drop(ctx, 5, 0))

	want := hexIDs(append([]models.Product{picks[5]}, picks[:5]...))
	assert.Equal(t, want, session.Store().IDs())
	for i, p := range session.Store().Products() {
		assert.Equal(t, i+1, p.Rank)
	}
	assert.Equal(t, 1, backend.loads, "success must not reload")

	server, err := backend.svc.Featured(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, want, hexIDs(server))
}

func TestFailedReorderReloadsAuthoritativeOrder(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	picks := seedFeatured(t, st, 4)
	backend := &serviceBackend{svc: ranking.NewService(st, nil)}
	session := NewSession(backend, nil)
	require.NoError(t, session.Load(ctx))

	backend.reorderErr = fmt.Errorf("%w: connection refused", apiclient.ErrNetwork)
	err := session.Drop(ctx, 3, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apiclient.ErrNetwork))

	assert.Equal(t, 2, backend.loads)
	assert.Equal(t, hexIDs(picks), session.Store().IDs())
}

func TestToggleAdvisoryCap(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	picks := seedFeatured(t, st, models.MaxTopPicks)
	extra := models.Product{Title: "Extra", IsActive: true}
	require.NoError(t, st.InsertProduct(ctx, &extra))

	backend := &serviceBackend{svc: ranking.NewService(st, nil)}
	session := NewSession(backend, nil)
	require.NoError(t, session.Load(ctx))

	_, err := session.Toggle(ctx, extra.ID.Hex())
	assert.ErrorIs(t, err, ErrLimitReached)
	assert.Equal(t, 0, backend.toggleCalls)

	off, err := session.Toggle(ctx, picks[2].ID.Hex())
	require.NoError(t, err)
	assert.False(t, off.IsTopPick)
	assert.Equal(t, models.MaxTopPicks-1, session.Store().Len())

	on, err := session.Toggle(ctx, picks[2].ID.Hex())
	require.NoError(t, err)
	assert.True(t, on.IsTopPick)
	assert.Equal(t, 3, on.Rank)
	assert.Equal(t, hexIDs(picks), session.Store().IDs())
}

func TestToggleServerRejectionReloads(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedFeatured(t, st, models.MaxTopPicks-1)
	extra := models.Product{Title: "Extra", IsActive: true}
	require.NoError(t, st.InsertProduct(ctx, &extra))

	backend := &serviceBackend{svc: ranking.NewService(st, nil)}
	session := NewSession(backend, nil)
	require.NoError(t, session.Load(ctx))

	// Another admin fills the last slot behind this session's back.
	sneaky := models.Product{Title: "Sneaky", IsActive: true, IsTopPick: true}
	require.NoError(t, st.InsertProduct(ctx, &sneaky))

	_, err := session.Toggle(ctx, extra.ID.Hex())
	assert.ErrorIs(t, err, ranking.ErrLimitExceeded)
	assert.Equal(t, models.MaxTopPicks, session.Store().Len())
	assert.True(t, session.Store().Contains(sneaky.ID.Hex()))
}

func TestSessionOverHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	st := store.NewMemory()
	picks := seedFeatured(t, st, 6)

	admin, err := auth.CreateFirstAdmin(ctx, st, "admin", "admin@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, admin.ID)

	r := gin.New()
	handlers.RegisterAPI(r, handlers.Deps{
		Store:     st,
		Ranking:   ranking.NewService(st, nil),
		Images:    media.NewLocal(t.TempDir()),
		JWTSecret: "http-secret",
		TokenTTL:  time.Hour,
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	client := apiclient.New(srv.URL)
	_, err = client.Login(ctx, "admin", "secret1")
	require.NoError(t, err)

	session := NewSession(client, nil)
	require.NoError(t, session.Load(ctx))
	require.NoError(t, session.Drop(ctx, 5, 0))

	public, err := client.TopPicks(ctx)
	require.NoError(t, err)
	assert.Equal(t, hexIDs(append([]models.Product{picks[5]}, picks[:5]...)), hexIDs(public))

	extra := models.Product{Title: "Extra", IsActive: true}
	require.NoError(t, st.InsertProduct(ctx, &extra))
	_, err = client.ToggleTopPick(ctx, extra.ID.Hex())
	assert.True(t, apiclient.IsLimitExceeded(err))
}
