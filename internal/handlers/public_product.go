package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopguide/internal/cache"
	"shopguide/internal/models"
	"shopguide/internal/ranking"
	"shopguide/internal/store"
)

const defaultPublicLimit = 50

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 5*time.Second)
}

// categoryFilter keeps unknown names as-is so they simply match nothing.
func categoryFilter(raw string) models.Category {
	raw = strings.TrimSpace(raw)
	if parsed, ok := models.ParseCategory(raw); ok {
		return parsed
	}
	return models.Category(raw)
}

/*
GET /api/products
- active products only, newest highest rank first
- category, search and limit (default 50) are optional
*/
func GetProducts(products store.ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		zap.L().Debug("hit",
			zap.String("route", route),
			zap.String("category", c.Query("category")),
			zap.String("search", c.Query("search")),
			zap.String("limit", c.Query("limit")),
		)

		limit := int64(defaultPublicLimit)
		if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed < 1 {
				respondWithError(c, http.StatusBadRequest, route, "invalid limit")
				return
			}
			limit = parsed
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, _, err := products.ListProducts(ctx, store.ListOptions{
			Filter: store.ProductFilter{
				ActiveOnly: true,
				Category:   categoryFilter(c.Query("category")),
				Search:     strings.TrimSpace(c.Query("search")),
			},
			SortBy:     "rank",
			Descending: true,
			Limit:      limit,
		})
		if err != nil {
			respondDomainError(c, route, err, "failed to fetch products")
			return
		}

		c.JSON(http.StatusOK, list)
	}
}

// GetTopPicks serves the public featured list, from Redis when it is warm.
func GetTopPicks(svc *ranking.Service, topPicks *cache.TopPicks) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/top-picks"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		featured, err := publicTopPicks(ctx, svc, topPicks)
		if err != nil {
			respondDomainError(c, route, err, "failed to fetch top picks")
			return
		}

		c.JSON(http.StatusOK, featured)
	}
}

func GetProduct(products store.ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		id, ok := parseIDParam(c, route)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := products.GetProduct(ctx, id)
		if err != nil {
			respondDomainError(c, route, err, "failed to fetch product")
			return
		}
		if !product.IsActive {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

func GetCategories(products store.ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/categories/list"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		categories, err := products.Categories(ctx)
		if err != nil {
			respondDomainError(c, route, err, "failed to fetch categories")
			return
		}
		if categories == nil {
			categories = []models.Category{}
		}

		c.JSON(http.StatusOK, categories)
	}
}

func Health(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/health"

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			zap.L().Warn("health check failed", zap.Error(err))
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
