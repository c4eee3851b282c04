package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopguide/internal/models"
)

func seed(t *testing.T, m *Memory, p models.Product) models.Product {
	t.Helper()
	require.NoError(t, m.InsertProduct(context.Background(), &p))
	return p
}

func TestNormalizeProductDocumentRepairsLegacyFields(t *testing.T) {
	product, err := normalizeProductDocument(bson.M{
		"title":     "Headphones",
		"price":     "$89.99",
		"category":  "Tech",
		"rank":      int64(3),
		"isTopPick": "true",
		"tags":      "audio, travel",
		"imageUrl":  "https://cdn.example.com/h.png",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, product.Rank)
	assert.True(t, product.IsTopPick)
	assert.True(t, product.IsActive, "missing isActive defaults to visible")
	assert.Equal(t, "https://cdn.example.com/h.png", product.Image)
	assert.Equal(t, models.Tags{"audio", "travel"}, product.Tags)
}

func TestNormalizeProductDocumentDefaultsImageGlyph(t *testing.T) {
	product, err := normalizeProductDocument(bson.M{"title": "Mat", "isActive": false})
	require.NoError(t, err)

	assert.Equal(t, models.DefaultImage, product.Image)
	assert.False(t, product.IsActive)
	assert.Equal(t, 0, product.Rank)
	assert.NotNil(t, product.Tags)
}

func TestMemoryTopPicksSortedAndFiltered(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	second := seed(t, m, models.Product{Title: "b", IsTopPick: true, IsActive: true, Rank: 2, CreatedAt: base})
	firstOld := seed(t, m, models.Product{Title: "a-old", IsTopPick: true, IsActive: true, Rank: 1, CreatedAt: base})
	firstNew := seed(t, m, models.Product{Title: "a-new", IsTopPick: true, IsActive: true, Rank: 1, CreatedAt: base.Add(time.Hour)})
	seed(t, m, models.Product{Title: "hidden", IsTopPick: true, IsActive: false, Rank: 0, CreatedAt: base})
	seed(t, m, models.Product{Title: "plain", IsActive: true, CreatedAt: base})

	picks, err := m.TopPicks(ctx, true, 6)
	require.NoError(t, err)
	require.Len(t, picks, 3)
	assert.Equal(t, []primitive.ObjectID{firstOld.ID, firstNew.ID, second.ID},
		[]primitive.ObjectID{picks[0].ID, picks[1].ID, picks[2].ID})

	all, err := m.TopPicks(ctx, false, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "hidden", all[0].Title)

	count, err := m.CountTopPicks(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
}

func TestMemoryApplyRanksIsAllOrNothing(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := seed(t, m, models.Product{Title: "a", IsTopPick: true, Rank: 1})
	b := seed(t, m, models.Product{Title: "b", IsTopPick: false, Rank: 7})

	err := m.ApplyRanks(ctx, []RankUpdate{{ProductID: a.ID, Rank: 5}, {ProductID: b.ID, Rank: 1}})
	require.True(t, errors.Is(err, ErrNotFound))

	got, err := m.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Rank, "rank must not change when any update fails")
}

func TestMemoryListProductsSearchSortAndPage(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, title := range []string{"Yoga Mat", "Bottle", "Blanket", "Charger"} {
		seed(t, m, models.Product{
			Title:     title,
			Category:  models.CategoryHome,
			IsActive:  i != 3,
			Tags:      models.Tags{"gift"},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	out, total, err := m.ListProducts(ctx, ListOptions{
		Filter:     ProductFilter{ActiveOnly: true},
		SortBy:     "title",
		Descending: false,
		Skip:       1,
		Limit:      1,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, out, 1)
	assert.Equal(t, "Bottle", out[0].Title)

	out, total, err = m.ListProducts(ctx, ListOptions{Filter: ProductFilter{Search: "GIFT"}, Descending: true})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Equal(t, "Charger", out[0].Title)

	out, _, err = m.ListProducts(ctx, ListOptions{Filter: ProductFilter{Search: "blan"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Blanket", out[0].Title)
}

func TestMemoryUpdatePatchLeavesOtherFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	p := seed(t, m, models.Product{Title: "a", Price: "$5", IsActive: true, Rank: 4, Tags: models.Tags{"x"}})

	off := false
	updated, err := m.UpdateProduct(ctx, p.ID, ProductPatch{IsTopPick: &off})
	require.NoError(t, err)
	assert.Equal(t, "a", updated.Title)
	assert.Equal(t, 4, updated.Rank)
	assert.True(t, updated.IsActive)
	assert.Equal(t, models.Tags{"x"}, updated.Tags)

	_, err = m.UpdateProduct(ctx, primitive.NewObjectID(), ProductPatch{IsTopPick: &off})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStatsAndCategories(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	seed(t, m, models.Product{Title: "a", Category: models.CategoryTech, IsActive: true, IsTopPick: true})
	seed(t, m, models.Product{Title: "b", Category: models.CategoryTech, IsActive: true})
	seed(t, m, models.Product{Title: "c", Category: models.CategoryBeauty, IsActive: true})
	seed(t, m, models.Product{Title: "d", Category: models.CategoryHome, IsActive: false})

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.Total)
	assert.EqualValues(t, 3, stats.Active)
	assert.EqualValues(t, 1, stats.TopPicks)
	require.Len(t, stats.ByCategory, 2)
	assert.Equal(t, models.CategoryTech, stats.ByCategory[0].Category)
	assert.Len(t, stats.Recent, 3)

	cats, err := m.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Category{models.CategoryTech, models.CategoryBeauty}, cats)
}

func TestMemoryUsers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	admin := &models.User{Username: "avery", Email: "avery@example.com", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, m.InsertUser(ctx, admin))
	assert.ErrorIs(t, m.InsertUser(ctx, &models.User{Username: "AVERY", Email: "other@example.com"}), ErrDuplicate)

	found, err := m.FindUserByLogin(ctx, "AVERY@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, found.ID)

	exists, err := m.AdminExists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, m.TouchLastLogin(ctx, admin.ID, time.Now()))
	got, err := m.GetUser(ctx, admin.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLogin)
}
