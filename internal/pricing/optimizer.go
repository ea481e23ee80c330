package pricing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ahmadmuradi/electronics-store/internal/domain"
	"github.com/ahmadmuradi/electronics-store/internal/repository"
)

const (
	defaultElasticity = -1.0
	demandLookback    = 30
	scanSamples       = 100
	holdBand          = 0.05
)

// Optimizer searches for the profit-maximizing price under a constant
// elasticity demand curve.
type Optimizer struct {
	repo      repository.SalesRepository
	estimator *Estimator
}

func NewOptimizer(repo repository.SalesRepository, estimator *Estimator) *Optimizer {
	return &Optimizer{repo: repo, estimator: estimator}
}

// Optimize scans candidate prices between 1.1x cost and 2x the current
// price and picks the profit arg-max. The dense scan is deliberate: the
// profit curve is not convex in every elasticity regime, so a gradient
// solver could settle on a local optimum.
func (o *Optimizer) Optimize(ctx context.Context, productID int64, fallbackCost, targetMargin float64) (domain.PriceRecommendation, error) {
	pc, err := o.repo.ProductCost(ctx, productID)
	if err != nil {
		return domain.PriceRecommendation{}, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not read product %d", productID)
	}

	currentPrice := pc.Price
	if currentPrice <= 0 {
		return domain.PriceRecommendation{}, domain.NewAnalyticsError(domain.KindInsufficientData, "product %d has no current price", productID)
	}

	cost := pc.Cost
	if !pc.HasCost {
		cost = fallbackCost
	}
	if cost <= 0 {
		return domain.PriceRecommendation{}, domain.NewAnalyticsError(domain.KindInsufficientData, "product %d has no usable cost", productID)
	}

	elasticity := defaultElasticity
	if est, err := o.estimator.Estimate(ctx, productID); err == nil {
		elasticity = est.Elasticity
	} else {
		log.Debug().Err(err).Int64("product_id", productID).Msg("elasticity unavailable, using default")
	}

	baseDemand, err := o.averageDailyDemand(ctx, productID)
	if err != nil {
		return domain.PriceRecommendation{}, err
	}

	profit := func(price float64) float64 {
		if price <= cost {
			return 0
		}
		qty := baseDemand * math.Pow(price/currentPrice, elasticity)
		return (price - cost) * qty
	}

	lo := cost * 1.1
	hi := currentPrice * 2
	if hi < lo {
		hi = lo
	}

	optimalPrice := lo
	maxProfit := profit(lo)
	for i := 1; i < scanSamples; i++ {
		p := lo + (hi-lo)*float64(i)/float64(scanSamples-1)
		if pr := profit(p); pr > maxProfit {
			maxProfit = pr
			optimalPrice = p
		}
	}

	currentProfit := profit(currentPrice)
	improvement := 0.0
	if currentProfit > 0 {
		improvement = (maxProfit - currentProfit) / currentProfit * 100
	}

	targetPrice := cost / (1 - targetMargin)

	// Rounding down must not land the reported price at or below cost.
	optRounded := roundPrice(optimalPrice)
	if optRounded <= cost {
		optRounded = decimal.NewFromFloat(optimalPrice).RoundUp(2).InexactFloat64()
	}

	return domain.PriceRecommendation{
		ProductID:            productID,
		CurrentPrice:         roundPrice(currentPrice),
		OptimalPrice:         optRounded,
		TargetMarginPrice:    roundPrice(targetPrice),
		CurrentMargin:        round3((currentPrice - cost) / currentPrice),
		OptimalMargin:        round3((optimalPrice - cost) / optimalPrice),
		ProfitImprovementPct: math.Round(improvement*10) / 10,
		Elasticity:           round3(elasticity),
		Recommendation:       recommend(currentPrice, optimalPrice),
	}, nil
}

// averageDailyDemand is the mean daily quantity over the trailing
// demand window, floored at one unit so the demand curve never
// degenerates to zero.
func (o *Optimizer) averageDailyDemand(ctx context.Context, productID int64) (float64, error) {
	since := time.Now().UTC().AddDate(0, 0, -demandLookback)
	rows, err := o.repo.DailySales(ctx, productID, nil, since)
	if err != nil {
		return 0, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not read recent sales for product %d", productID)
	}
	if len(rows) == 0 {
		return 1, nil
	}

	var total float64
	for _, r := range rows {
		total += r.Quantity
	}
	avg := total / float64(len(rows))
	if avg <= 0 {
		return 1, nil
	}
	return avg, nil
}

func recommend(current, optimal float64) string {
	if math.Abs(optimal-current)/current < holdBand {
		return "Current price is near optimal. Consider minor adjustments based on market conditions."
	}
	if optimal > current {
		pct := (optimal - current) / current * 100
		return fmt.Sprintf("Consider increasing price by %.1f%% to $%.2f for maximum profit.", pct, optimal)
	}
	pct := (current - optimal) / current * 100
	return fmt.Sprintf("Consider decreasing price by %.1f%% to $%.2f to increase volume and profit.", pct, optimal)
}

func roundPrice(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
