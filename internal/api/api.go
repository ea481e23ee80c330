// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ahmadmuradi/electronics-store/internal/api/handlers"
	"github.com/ahmadmuradi/electronics-store/internal/api/middleware"
	"github.com/ahmadmuradi/electronics-store/internal/forecast"
	"github.com/ahmadmuradi/electronics-store/internal/pricing"
	"github.com/ahmadmuradi/electronics-store/internal/reorder"
)

type Services struct {
	Forecast   *forecast.Manager
	Estimator  *pricing.Estimator
	Optimizer  *pricing.Optimizer
	Calculator *reorder.Calculator
	Suggester  *reorder.Suggester
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		analyticsHandler := handlers.NewAnalyticsHandler(
			services.Forecast,
			services.Estimator,
			services.Optimizer,
			services.Calculator,
			services.Suggester,
		)

		analyticsGroup := apiGroup.Group("/analytics")
		{
			analyticsGroup.GET("/demand-forecast/:product_id", analyticsHandler.GetDemandForecast)
			analyticsGroup.POST("/train-demand-model/:product_id", analyticsHandler.TrainDemandModel)
			analyticsGroup.GET("/model-status/:product_id", analyticsHandler.GetModelStatus)
			analyticsGroup.POST("/bulk-train-models", analyticsHandler.BulkTrainModels)
			analyticsGroup.GET("/price-elasticity/:product_id", analyticsHandler.GetPriceElasticity)
			analyticsGroup.GET("/price-optimization/:product_id", analyticsHandler.GetPriceOptimization)
			analyticsGroup.GET("/reorder-calculation/:product_id/:location_id", analyticsHandler.GetReorderCalculation)
			analyticsGroup.GET("/reorder-suggestions", analyticsHandler.GetReorderSuggestions)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
