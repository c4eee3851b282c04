package models

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultImage is shown when a product has no uploaded picture.
const DefaultImage = "🛍️"

// MaxTopPicks caps the featured set.
const MaxTopPicks = 6

type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Price         string             `bson:"price" json:"price"`
	Link          string             `bson:"link" json:"link"`
	Category      Category           `bson:"category" json:"category"`
	Image         string             `bson:"image" json:"image"`
	ImageKey      string             `bson:"imageKey,omitempty" json:"-"`
	Tags          Tags               `bson:"tags" json:"tags"`
	IsTopPick     bool               `bson:"isTopPick" json:"isTopPick"`
	Rank          int                `bson:"rank" json:"rank"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	AffiliateCode string             `bson:"affiliateCode,omitempty" json:"affiliateCode,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasImageURL reports whether Image points at an uploaded picture rather than a glyph.
func (p Product) HasImageURL() bool {
	return IsImageURL(p.Image)
}

func IsImageURL(value string) bool {
	v := strings.TrimSpace(value)
	return strings.HasPrefix(v, "http://") ||
		strings.HasPrefix(v, "https://") ||
		strings.HasPrefix(v, "/uploads/")
}

// SortByRank orders featured products for display: rank ascending, then creation time,
// then id so equal ranks stay stable across reads.
func SortByRank(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.Hex() < b.ID.Hex()
	})
}
