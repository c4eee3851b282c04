package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"shopguide/internal/cache"
	"shopguide/internal/media"
	"shopguide/internal/middleware"
	"shopguide/internal/ranking"
	"shopguide/internal/store"
)

type Deps struct {
	Store     store.Store
	Ranking   *ranking.Service
	Images    media.Storage
	Cache     *cache.TopPicks
	JWTSecret string
	TokenTTL  time.Duration
}

func (d Deps) products() ProductDeps {
	return ProductDeps{Products: d.Store, Ranking: d.Ranking, Images: d.Images, Cache: d.Cache}
}

// RegisterAPI mounts the JSON API under /api.
func RegisterAPI(r *gin.Engine, d Deps) {
	admin := middleware.AdminAuth(d.JWTSecret)
	pd := d.products()

	api := r.Group("/api")
	api.GET("/health", Health(d.Store))

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", Login(d.Store, d.JWTSecret, d.TokenTTL))
		authGroup.GET("/me", middleware.AuthGuard(d.JWTSecret), GetMe(d.Store))
		authGroup.POST("/setup", Setup(d.Store))
	}

	products := api.Group("/products")
	{
		products.GET("", GetProducts(d.Store))
		products.GET("/top-picks", GetTopPicks(d.Ranking, d.Cache))
		products.GET("/categories/list", GetCategories(d.Store))
		products.GET("/:id", GetProduct(d.Store))
	}

	managed := api.Group("/products")
	managed.Use(admin)
	{
		managed.POST("", CreateProduct(pd))
		managed.PUT("/top-picks/reorder", ReorderTopPicks(pd))
		managed.PUT("/:id", UpdateProduct(pd))
		managed.DELETE("/:id", DeleteProduct(pd))
		managed.PATCH("/:id/toggle-top-pick", ToggleTopPick(pd))
		managed.PATCH("/:id/rank", UpdateRank(pd))
	}

	dashboard := api.Group("/admin")
	dashboard.Use(admin)
	{
		dashboard.GET("/stats", GetStats(d.Store))
		dashboard.GET("/products", GetAdminProducts(d.Store))
		dashboard.GET("/products/export", ExportProducts(d.Store))
		dashboard.POST("/products/bulk", BulkProducts(pd))
		dashboard.GET("/top-picks", GetAdminTopPicks(d.Ranking))
	}
}

// RegisterPages mounts the server-rendered pages; templates must already be loaded.
func RegisterPages(r *gin.Engine, d Deps) {
	r.GET("/", Home())
	r.GET("/top-picks", TopPicksPage(d.Ranking, d.Cache))
	r.GET("/admin", AdminDashboardPage)
	r.GET("/admin/login", AdminLoginPage)
}
