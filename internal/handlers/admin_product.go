package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"shopguide/internal/cache"
	"shopguide/internal/media"
	"shopguide/internal/models"
	"shopguide/internal/ranking"
	"shopguide/internal/store"
)

// ProductDeps is what the product mutation handlers share.
type ProductDeps struct {
	Products store.ProductStore
	Ranking  *ranking.Service
	Images   media.Storage
	Cache    *cache.TopPicks
}

type rankRequest struct {
	Rank *int `json:"rank" binding:"required,gte=0"`
}

type reorderEntry struct {
	ProductID string `json:"productId"`
	Rank      int    `json:"rank"`
}

type reorderRequest struct {
	Order []reorderEntry `json:"order" binding:"required"`
}

func (d ProductDeps) discardUpload(ctx context.Context, stored *media.Stored) {
	if stored == nil {
		return
	}
	if err := d.Images.Delete(ctx, stored.Key); err != nil {
		zap.L().Warn("failed to remove orphaned upload", zap.String("key", stored.Key), zap.Error(err))
	}
}

func (d ProductDeps) removeImage(ctx context.Context, key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	if err := d.Images.Delete(ctx, key); err != nil {
		zap.L().Warn("failed to remove product image", zap.String("key", key), zap.Error(err))
	}
}

/* =======================
   CREATE
======================= */

func CreateProduct(d ProductDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products"
		defer handlePanic(c, route)

		input, err := parseProductRequest(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if err := input.Validate(true); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product := input.NewProduct()
		if product.IsTopPick {
			if err := d.Ranking.CheckCapacity(ctx); err != nil {
				respondDomainError(c, route, err, "failed to create product")
				return
			}
		}

		var stored *media.Stored
		if input.Upload != nil {
			saved, err := d.Images.Save(ctx, input.Upload)
			if err != nil {
				respondDomainError(c, route, err, "failed to store image")
				return
			}
			stored = &saved
			product.Image, product.ImageKey = saved.URL, saved.Key
		}

		if err := d.Products.InsertProduct(ctx, &product); err != nil {
			d.discardUpload(ctx, stored)
			respondDomainError(c, route, err, "failed to create product")
			return
		}
		d.Cache.Invalidate(ctx)

		zap.L().Info("product created",
			zap.String("id", product.ID.Hex()),
			zap.Bool("isTopPick", product.IsTopPick),
			zap.Bool("upload", stored != nil),
		)
		c.JSON(http.StatusCreated, product)
	}
}

/* =======================
   UPDATE
======================= */

func UpdateProduct(d ProductDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route)
		if !ok {
			return
		}

		input, err := parseProductRequest(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if err := input.Validate(false); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		existing, err := d.Products.GetProduct(ctx, id)
		if err != nil {
			respondDomainError(c, route, err, "failed to update product")
			return
		}

		if input.IsTopPickSet && input.IsTopPick && !existing.IsTopPick {
			if err := d.Ranking.CheckCapacity(ctx); err != nil {
				respondDomainError(c, route, err, "failed to update product")
				return
			}
		}

		patch := input.Patch()
		var stored *media.Stored
		switch {
		case input.Upload != nil:
			saved, err := d.Images.Save(ctx, input.Upload)
			if err != nil {
				respondDomainError(c, route, err, "failed to store image")
				return
			}
			stored = &saved
			patch.Image, patch.ImageKey = &saved.URL, &saved.Key
		case input.RemoveImage && !input.ImageSet:
			glyph, key := models.DefaultImage, ""
			patch.Image, patch.ImageKey = &glyph, &key
		}

		if patch.Empty() {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		updated, err := d.Products.UpdateProduct(ctx, id, patch)
		if err != nil {
			d.discardUpload(ctx, stored)
			respondDomainError(c, route, err, "failed to update product")
			return
		}
		if patch.ImageKey != nil && existing.ImageKey != updated.ImageKey {
			d.removeImage(ctx, existing.ImageKey)
		}
		d.Cache.Invalidate(ctx)

		zap.L().Info("product updated", zap.String("id", id.Hex()))
		c.JSON(http.StatusOK, updated)
	}
}

/* =======================
   DELETE
======================= */

func DeleteProduct(d ProductDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		deleted, err := d.Products.DeleteProduct(ctx, id)
		if err != nil {
			respondDomainError(c, route, err, "failed to delete product")
			return
		}
		d.removeImage(ctx, deleted.ImageKey)
		d.Cache.Invalidate(ctx)

		zap.L().Info("product deleted", zap.String("id", id.Hex()))
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}

/* =======================
   TOP PICKS
======================= */

func ToggleTopPick(d ProductDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/products/:id/toggle-top-pick"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := d.Ranking.ToggleFeatured(ctx, id)
		if err != nil {
			respondDomainError(c, route, err, "failed to toggle top pick status")
			return
		}
		d.Cache.Invalidate(ctx)

		c.JSON(http.StatusOK, product)
	}
}

func UpdateRank(d ProductDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/products/:id/rank"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route)
		if !ok {
			return
		}

		var req rankRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := d.Products.UpdateProduct(ctx, id, store.ProductPatch{Rank: req.Rank})
		if err != nil {
			respondDomainError(c, route, err, "failed to update rank")
			return
		}
		d.Cache.Invalidate(ctx)

		c.JSON(http.StatusOK, product)
	}
}

// ReorderTopPicks applies a complete ordering of the featured set and returns the
// refreshed list sorted by rank.
func ReorderTopPicks(d ProductDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/top-picks/reorder"
		defer handlePanic(c, route)

		var req reorderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		order := make([]ranking.OrderEntry, 0, len(req.Order))
		for _, entry := range req.Order {
			id, err := primitive.ObjectIDFromHex(strings.TrimSpace(entry.ProductID))
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid productId: "+entry.ProductID)
				return
			}
			order = append(order, ranking.OrderEntry{ProductID: id, Rank: entry.Rank})
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		featured, err := d.Ranking.Reorder(ctx, order)
		if err != nil {
			respondDomainError(c, route, err, "failed to reorder top picks")
			return
		}
		d.Cache.Invalidate(ctx)

		c.JSON(http.StatusOK, featured)
	}
}
