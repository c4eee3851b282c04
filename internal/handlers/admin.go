package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"shopguide/internal/models"
	"shopguide/internal/ranking"
	"shopguide/internal/store"
)

type recentProduct struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Category  models.Category `json:"category"`
	CreatedAt time.Time       `json:"createdAt"`
}

type bulkRequest struct {
	Action     string   `json:"action" binding:"required,oneof=activate deactivate delete"`
	ProductIDs []string `json:"productIds" binding:"required,min=1"`
}

type exportRow struct {
	Title       string `csv:"title"`
	Description string `csv:"description"`
	Price       string `csv:"price"`
	Link        string `csv:"link"`
	Category    string `csv:"category"`
	IsTopPick   bool   `csv:"isTopPick"`
	Rank        int    `csv:"rank"`
	IsActive    bool   `csv:"isActive"`
	Tags        string `csv:"tags"`
	CreatedAt   string `csv:"createdAt"`
}

func GetStats(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/stats"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		stats, err := st.Stats(ctx)
		if err != nil {
			respondDomainError(c, route, err, "failed to fetch statistics")
			return
		}
		users, err := st.CountUsers(ctx)
		if err != nil {
			respondDomainError(c, route, err, "failed to fetch statistics")
			return
		}

		recent := make([]recentProduct, 0, len(stats.Recent))
		for _, p := range stats.Recent {
			recent = append(recent, recentProduct{
				ID:        p.ID.Hex(),
				Title:     p.Title,
				Category:  p.Category,
				CreatedAt: p.CreatedAt,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"totalProducts":  stats.Total,
			"activeProducts": stats.Active,
			"topPicks":       stats.TopPicks,
			"totalUsers":     users,
			"categoryStats":  stats.ByCategory,
			"recentProducts": recent,
		})
	}
}

/*
GET /api/admin/products
- includes inactive products
- page, limit, category, search, sortBy, sortOrder
*/
func GetAdminProducts(products store.ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		sortBy := strings.TrimSpace(c.DefaultQuery("sortBy", "createdAt"))
		if _, ok := store.SortFields[sortBy]; !ok {
			respondWithError(c, http.StatusBadRequest, route, fmt.Sprintf("invalid sortBy: %s", sortBy))
			return
		}
		sortOrder := strings.ToLower(strings.TrimSpace(c.DefaultQuery("sortOrder", "desc")))
		if sortOrder != "asc" && sortOrder != "desc" {
			respondWithError(c, http.StatusBadRequest, route, "sortOrder must be asc or desc")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, total, err := products.ListProducts(ctx, store.ListOptions{
			Filter: store.ProductFilter{
				Category: categoryFilter(c.Query("category")),
				Search:   strings.TrimSpace(c.Query("search")),
			},
			SortBy:     sortBy,
			Descending: sortOrder == "desc",
			Skip:       (page - 1) * limit,
			Limit:      limit,
		})
		if err != nil {
			respondDomainError(c, route, err, "failed to fetch products")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"products": list,
			"pagination": gin.H{
				"currentPage":  page,
				"totalPages":   totalPages(total, limit),
				"totalItems":   total,
				"itemsPerPage": limit,
			},
		})
	}
}

// GetAdminTopPicks returns the whole featured set, inactive products included.
func GetAdminTopPicks(svc *ranking.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/top-picks"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		featured, err := svc.Featured(ctx, false)
		if err != nil {
			respondDomainError(c, route, err, "failed to fetch top picks")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"topPicks": featured,
			"limit":    svc.Limit(),
		})
	}
}

func BulkProducts(d ProductDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/products/bulk"
		defer handlePanic(c, route)

		var req bulkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		ids, err := parseObjectIDs(req.ProductIDs)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		var affected int64
		switch req.Action {
		case "activate", "deactivate":
			affected, err = d.Products.SetActive(ctx, ids, req.Action == "activate")
		case "delete":
			var deleted []models.Product
			deleted, err = d.Products.DeleteProducts(ctx, ids)
			for _, p := range deleted {
				d.removeImage(ctx, p.ImageKey)
			}
			affected = int64(len(deleted))
		}
		if err != nil {
			respondDomainError(c, route, err, "failed to perform bulk operation")
			return
		}
		d.Cache.Invalidate(ctx)

		zap.L().Info("bulk operation", zap.String("action", req.Action), zap.Int64("affected", affected))
		c.JSON(http.StatusOK, gin.H{
			"message":  fmt.Sprintf("Products %sd successfully", req.Action),
			"affected": affected,
		})
	}
}

func ExportProducts(products store.ProductStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products/export"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		list, _, err := products.ListProducts(ctx, store.ListOptions{SortBy: "createdAt", Descending: true})
		if err != nil {
			respondDomainError(c, route, err, "failed to export products")
			return
		}

		rows := make([]exportRow, 0, len(list))
		for _, p := range list {
			rows = append(rows, exportRow{
				Title:       p.Title,
				Description: p.Description,
				Price:       p.Price,
				Link:        p.Link,
				Category:    string(p.Category),
				IsTopPick:   p.IsTopPick,
				Rank:        p.Rank,
				IsActive:    p.IsActive,
				Tags:        p.Tags.Join(),
				CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
			})
		}

		var buf bytes.Buffer
		if err := gocsv.Marshal(&rows, &buf); err != nil {
			respondDomainError(c, route, err, "failed to export products")
			return
		}

		c.Header("Content-Disposition", "attachment; filename=products.csv")
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	}
}
