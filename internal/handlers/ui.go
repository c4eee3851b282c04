package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopguide/internal/cache"
	"shopguide/internal/models"
	"shopguide/internal/ranking"
	"shopguide/internal/render"
)

// publicTopPicks reads through the cache; the API and the page share it.
func publicTopPicks(ctx context.Context, svc *ranking.Service, topPicks *cache.TopPicks) ([]models.Product, error) {
	if cached, ok := topPicks.Get(ctx); ok {
		return cached, nil
	}
	featured, err := svc.Featured(ctx, true)
	if err != nil {
		return nil, err
	}
	topPicks.Set(ctx, featured)
	return featured, nil
}

func Home() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/top-picks")
	}
}

func TopPicksPage(svc *ranking.Service, topPicks *cache.TopPicks) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /top-picks"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		featured, err := publicTopPicks(ctx, svc, topPicks)
		if err != nil {
			zap.L().Error("top picks page failed", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "top_picks.html", gin.H{
				"error": "Top picks are unavailable right now.",
			})
			return
		}

		c.HTML(http.StatusOK, "top_picks.html", gin.H{
			"cards": render.Cards(featured),
		})
	}
}

func AdminLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func AdminDashboardPage(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", gin.H{"limit": models.MaxTopPicks})
}
