package reorder

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ahmadmuradi/electronics-store/internal/config"
	"github.com/ahmadmuradi/electronics-store/internal/domain"
	"github.com/ahmadmuradi/electronics-store/internal/repository"
)

const (
	variabilityLookbackDays = 90
	minVariabilityObs       = 10
	fallbackStdRatio        = 0.3
	forecastHorizonDays     = 30

	simpleLookbackDays   = 30
	simpleCoverDays      = 14
	simpleSafetyFactor   = 1.5
	simpleOrderCoverDays = 30
)

// Forecaster is the slice of the demand model manager the calculator
// needs.
type Forecaster interface {
	Predict(ctx context.Context, productID int64, horizonDays int) (domain.DemandForecast, error)
}

// Calculator derives reorder points from demand forecasts, falling back
// to trailing averages when forecasting fails.
type Calculator struct {
	repo       repository.SalesRepository
	forecaster Forecaster
	cfg        config.ReorderConfig
}

func NewCalculator(repo repository.SalesRepository, forecaster Forecaster, cfg config.ReorderConfig) *Calculator {
	return &Calculator{repo: repo, forecaster: forecaster, cfg: cfg}
}

// Calculate computes the reorder point for one product/location pair.
// The statistical path needs a demand forecast; any forecast failure
// degrades to the simple trailing-average method, labeled as such.
func (c *Calculator) Calculate(ctx context.Context, productID, locationID int64, serviceLevel float64) (domain.ReorderCalculation, error) {
	if serviceLevel <= 0 || serviceLevel >= 1 {
		serviceLevel = c.cfg.DefaultServiceLevel
	}

	forecast, err := c.forecaster.Predict(ctx, productID, forecastHorizonDays)
	if err != nil {
		log.Debug().Err(err).Int64("product_id", productID).Msg("forecast unavailable, using simple reorder calculation")
		return c.simple(ctx, productID, locationID, serviceLevel)
	}

	avgDaily := forecast.Average
	leadTime := float64(c.cfg.LeadTimeDays)

	demandStd, err := c.demandStd(ctx, productID, locationID, avgDaily)
	if err != nil {
		return domain.ReorderCalculation{}, err
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(serviceLevel)
	safetyStock := z * demandStd * math.Sqrt(leadTime)
	leadTimeDemand := avgDaily * leadTime
	reorderPoint := leadTimeDemand + safetyStock

	eoq, err := c.economicOrderQuantity(ctx, productID, avgDaily)
	if err != nil {
		return domain.ReorderCalculation{}, err
	}

	reorderPoint = math.Round(reorderPoint)
	eoq = math.Round(eoq)

	return domain.ReorderCalculation{
		ProductID:      productID,
		LocationID:     locationID,
		ReorderPoint:   reorderPoint,
		SafetyStock:    math.Round(safetyStock),
		OrderQuantity:  eoq,
		LeadTimeDemand: math.Round(leadTimeDemand*10) / 10,
		AvgDailyDemand: math.Round(avgDaily*100) / 100,
		ServiceLevel:   serviceLevel,
		Method:         domain.ReorderStatistical,
		Recommendation: recommendation(reorderPoint, eoq),
	}, nil
}

// demandStd estimates day-to-day demand variability from observed daily
// sales at the location. With too few observations it assumes a 30%
// coefficient of variation rather than defaulting to zero.
func (c *Calculator) demandStd(ctx context.Context, productID, locationID int64, avgDaily float64) (float64, error) {
	since := time.Now().UTC().AddDate(0, 0, -variabilityLookbackDays)
	rows, err := c.repo.DailySales(ctx, productID, &locationID, since)
	if err != nil {
		return 0, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not read demand history for product %d", productID)
	}

	if len(rows) < minVariabilityObs {
		return avgDaily * fallbackStdRatio, nil
	}

	var sum float64
	for _, r := range rows {
		sum += r.Quantity
	}
	mean := sum / float64(len(rows))

	var ss float64
	for _, r := range rows {
		d := r.Quantity - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(rows)-1)), nil
}

// economicOrderQuantity applies the classical square-root EOQ when cost
// data exists, otherwise falls back to a 30-day supply.
func (c *Calculator) economicOrderQuantity(ctx context.Context, productID int64, avgDaily float64) (float64, error) {
	pc, err := c.repo.ProductCost(ctx, productID)
	if err != nil {
		return 0, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not read cost for product %d", productID)
	}

	if !pc.HasCost {
		return avgDaily * 30, nil
	}

	annualDemand := avgDaily * 365
	holdingCostPerUnit := pc.Cost * c.cfg.HoldingCostRate
	if holdingCostPerUnit <= 0 {
		return avgDaily * 30, nil
	}

	return math.Sqrt((2 * annualDemand * c.cfg.OrderingCost) / holdingCostPerUnit), nil
}

// simple is the trailing-average fallback: two weeks of demand with a
// 50% safety margin, ordering a 30-day supply.
func (c *Calculator) simple(ctx context.Context, productID, locationID int64, serviceLevel float64) (domain.ReorderCalculation, error) {
	since := time.Now().UTC().AddDate(0, 0, -simpleLookbackDays)
	rows, err := c.repo.DailySales(ctx, productID, &locationID, since)
	if err != nil {
		return domain.ReorderCalculation{}, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not read recent sales for product %d", productID)
	}

	dailyDemand := 0.1
	if len(rows) > 0 {
		var sum float64
		for _, r := range rows {
			sum += r.Quantity
		}
		if avg := sum / float64(len(rows)); avg > 0 {
			dailyDemand = avg
		}
	}

	reorderPoint := math.Round(dailyDemand * simpleCoverDays * simpleSafetyFactor)
	orderQty := math.Round(dailyDemand * simpleOrderCoverDays)

	return domain.ReorderCalculation{
		ProductID:      productID,
		LocationID:     locationID,
		ReorderPoint:   reorderPoint,
		OrderQuantity:  orderQty,
		AvgDailyDemand: math.Round(dailyDemand*100) / 100,
		ServiceLevel:   serviceLevel,
		Method:         domain.ReorderSimple,
		Recommendation: recommendation(reorderPoint, orderQty),
	}, nil
}

func recommendation(reorderPoint, orderQty float64) string {
	return fmt.Sprintf("Reorder when stock reaches %.0f units. Order %.0f units each time.", reorderPoint, orderQty)
}
