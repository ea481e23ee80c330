package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ahmadmuradi/electronics-store/internal/domain"
	"github.com/ahmadmuradi/electronics-store/internal/forecast"
	"github.com/ahmadmuradi/electronics-store/internal/pricing"
	"github.com/ahmadmuradi/electronics-store/internal/reorder"
)

type AnalyticsHandler struct {
	manager    *forecast.Manager
	estimator  *pricing.Estimator
	optimizer  *pricing.Optimizer
	calculator *reorder.Calculator
	suggester  *reorder.Suggester
}

func NewAnalyticsHandler(
	manager *forecast.Manager,
	estimator *pricing.Estimator,
	optimizer *pricing.Optimizer,
	calculator *reorder.Calculator,
	suggester *reorder.Suggester,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		manager:    manager,
		estimator:  estimator,
		optimizer:  optimizer,
		calculator: calculator,
		suggester:  suggester,
	}
}

// GetDemandForecast handles GET /analytics/demand-forecast/:product_id
func (h *AnalyticsHandler) GetDemandForecast(c *gin.Context) {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	daysAhead := 30
	if v, err := strconv.Atoi(c.DefaultQuery("days_ahead", "30")); err == nil && v >= 0 {
		daysAhead = v
	}

	result, err := h.manager.Predict(c.Request.Context(), productID, daysAhead)
	if err != nil {
		analyticsError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// TrainDemandModel handles POST /analytics/train-demand-model/:product_id.
// Training runs in the background; clients poll the model status
// endpoint for completion.
func (h *AnalyticsHandler) TrainDemandModel(c *gin.Context) {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	h.manager.TrainInBackground(productID)

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "Model training started in background",
		"product_id": productID,
	})
}

// GetModelStatus handles GET /analytics/model-status/:product_id
func (h *AnalyticsHandler) GetModelStatus(c *gin.Context) {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	exists, err := h.manager.HasModel(c.Request.Context(), productID)
	if err != nil {
		analyticsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"trained":    exists,
	})
}

// BulkTrainModels handles POST /analytics/bulk-train-models
func (h *AnalyticsHandler) BulkTrainModels(c *gin.Context) {
	locationID := optionalQueryID(c, "location_id")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
		defer cancel()

		report, err := h.manager.TrainAll(ctx, locationID)
		if err != nil {
			log.Error().Err(err).Msg("bulk training failed")
			return
		}
		log.Info().
			Int("trained", len(report.Trained)).
			Int("failed", len(report.Failures)).
			Msg("bulk training completed")
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "Bulk model training started in background"})
}

// GetPriceElasticity handles GET /analytics/price-elasticity/:product_id
func (h *AnalyticsHandler) GetPriceElasticity(c *gin.Context) {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	result, err := h.estimator.Estimate(c.Request.Context(), productID)
	if err != nil {
		analyticsError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPriceOptimization handles GET /analytics/price-optimization/:product_id
func (h *AnalyticsHandler) GetPriceOptimization(c *gin.Context) {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	targetMargin := 0.3
	if v, err := strconv.ParseFloat(c.DefaultQuery("target_margin", "0.3"), 64); err == nil && v > 0 && v < 1 {
		targetMargin = v
	}

	fallbackCost := 0.0
	if v, err := strconv.ParseFloat(c.Query("cost"), 64); err == nil && v > 0 {
		fallbackCost = v
	}

	result, err := h.optimizer.Optimize(c.Request.Context(), productID, fallbackCost, targetMargin)
	if err != nil {
		analyticsError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetReorderCalculation handles GET /analytics/reorder-calculation/:product_id/:location_id
func (h *AnalyticsHandler) GetReorderCalculation(c *gin.Context) {
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}
	locationID, ok := pathID(c, "location_id")
	if !ok {
		return
	}

	serviceLevel := 0.0
	if v, err := strconv.ParseFloat(c.Query("service_level"), 64); err == nil {
		serviceLevel = v
	}

	result, err := h.calculator.Calculate(c.Request.Context(), productID, locationID, serviceLevel)
	if err != nil {
		analyticsError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetReorderSuggestions handles GET /analytics/reorder-suggestions
func (h *AnalyticsHandler) GetReorderSuggestions(c *gin.Context) {
	locationID := optionalQueryID(c, "location_id")

	suggestions, err := h.suggester.Generate(c.Request.Context(), locationID)
	if err != nil {
		analyticsError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func optionalQueryID(c *gin.Context, name string) *int64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// analyticsError maps structured engine errors onto HTTP statuses.
func analyticsError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindInsufficientHistory, domain.KindInsufficientData,
		domain.KindInsufficientVariation, domain.KindInsufficientPricePoints:
		status = http.StatusUnprocessableEntity
	case domain.KindArtifactNotFound:
		status = http.StatusNotFound
	case domain.KindPersistenceFailure:
		status = http.StatusServiceUnavailable
	}

	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("analytics request failed")
	c.JSON(status, gin.H{"error": err.Error(), "kind": string(domain.KindOf(err))})
}
