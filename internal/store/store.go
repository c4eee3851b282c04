// Package store persists products and dashboard users. Mongo backs production; Memory
// backs tests and the STORE_DRIVER=memory dev mode.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopguide/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type ProductFilter struct {
	// ActiveOnly hides products whose isActive flag is false.
	ActiveOnly bool
	Category   models.Category
	Search     string
}

type ListOptions struct {
	Filter ProductFilter
	// SortBy is a key of SortFields; ties fall back to createdAt in the same direction.
	SortBy     string
	Descending bool
	Skip       int64
	Limit      int64
}

// Sortable fields for ListOptions.SortBy.
var SortFields = map[string]string{
	"createdAt": "createdAt",
	"updatedAt": "updatedAt",
	"title":     "title",
	"rank":      "rank",
	"price":     "price",
	"category":  "category",
}

// ProductPatch carries the fields of a partial update; nil means unchanged.
type ProductPatch struct {
	Title         *string
	Description   *string
	Price         *string
	Link          *string
	Category      *models.Category
	Image         *string
	ImageKey      *string
	Tags          *models.Tags
	IsTopPick     *bool
	Rank          *int
	IsActive      *bool
	AffiliateCode *string
}

func (p ProductPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil && p.Link == nil &&
		p.Category == nil && p.Image == nil && p.ImageKey == nil && p.Tags == nil &&
		p.IsTopPick == nil && p.Rank == nil && p.IsActive == nil && p.AffiliateCode == nil
}

// RankUpdate assigns a new rank to one featured product.
type RankUpdate struct {
	ProductID primitive.ObjectID
	Rank      int
}

type ProductStats struct {
	Total      int64
	Active     int64
	TopPicks   int64
	ByCategory []models.CategoryStat
	Recent     []models.Product
}

type ProductStore interface {
	InsertProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	ListProducts(ctx context.Context, opts ListOptions) ([]models.Product, int64, error)
	UpdateProduct(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (models.Product, error)
	DeleteProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error)

	// CountTopPicks counts every product flagged as a top pick, active or not.
	CountTopPicks(ctx context.Context) (int64, error)
	// TopPicks returns featured products sorted by rank; limit <= 0 means no limit.
	TopPicks(ctx context.Context, activeOnly bool, limit int64) ([]models.Product, error)
	// ApplyRanks writes every update or reports the first failure. Only featured
	// products are matched.
	ApplyRanks(ctx context.Context, updates []RankUpdate) error

	SetActive(ctx context.Context, ids []primitive.ObjectID, active bool) (int64, error)
	DeleteProducts(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Stats(ctx context.Context) (ProductStats, error)
}

type UserStore interface {
	InsertUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error)
	// FindUserByLogin matches an active user by username or email.
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
	TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	CountUsers(ctx context.Context) (int64, error)
	AdminExists(ctx context.Context) (bool, error)
}

// Store is what the server wires: both collections behind one value.
type Store interface {
	ProductStore
	UserStore
	Ping(ctx context.Context) error
}

func sortCategoryNames(values map[models.Category]struct{}) []models.Category {
	out := make([]models.Category, 0, len(values))
	for _, c := range models.Categories {
		if _, ok := values[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
