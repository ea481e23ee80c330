package pricing

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ahmadmuradi/electronics-store/internal/cache"
	"github.com/ahmadmuradi/electronics-store/internal/domain"
	"github.com/ahmadmuradi/electronics-store/internal/repository"
)

const (
	elasticityLookbackDays = 180
	minObservations        = 10
	priceBuckets           = 5
	minBuckets             = 3
)

// Estimator fits price elasticity of demand from historical sale lines.
type Estimator struct {
	repo  repository.SalesRepository
	cache cache.ForecastCache
}

func NewEstimator(repo repository.SalesRepository, fc cache.ForecastCache) *Estimator {
	return &Estimator{repo: repo, cache: fc}
}

// Estimate buckets observed (price, quantity) pairs into equal-width
// price ranges and fits log(quantity+1) against log(price) across
// bucket aggregates. The fitted slope is the elasticity coefficient.
func (e *Estimator) Estimate(ctx context.Context, productID int64) (domain.ElasticityEstimate, error) {
	if cached, ok, err := e.cache.GetElasticity(ctx, productID); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("elasticity cache read failed")
	}

	since := time.Now().UTC().AddDate(0, 0, -elasticityLookbackDays)
	facts, err := e.repo.PriceQuantityHistory(ctx, productID, since)
	if err != nil {
		return domain.ElasticityEstimate{}, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not read price history for product %d", productID)
	}
	if len(facts) < minObservations {
		return domain.ElasticityEstimate{}, domain.NewAnalyticsError(domain.KindInsufficientVariation,
			"product %d has %d price observations, need at least %d", productID, len(facts), minObservations)
	}

	buckets := bucketByPrice(facts, priceBuckets)
	if len(buckets) < minBuckets {
		return domain.ElasticityEstimate{}, domain.NewAnalyticsError(domain.KindInsufficientPricePoints,
			"product %d has %d populated price buckets, need at least %d", productID, len(buckets), minBuckets)
	}

	logPrice := make([]float64, len(buckets))
	logQty := make([]float64, len(buckets))
	for i, b := range buckets {
		logPrice[i] = math.Log(b.meanPrice)
		logQty[i] = math.Log(b.totalQty + 1)
	}

	slope := olsSlope(logPrice, logQty)

	estimate := domain.ElasticityEstimate{
		ProductID:      productID,
		Elasticity:     math.Round(slope*1000) / 1000,
		Interpretation: interpretElasticity(slope),
		DataPoints:     len(buckets),
	}

	if err := e.cache.SetElasticity(ctx, &estimate); err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("elasticity cache write failed")
	}

	return estimate, nil
}

type priceBucket struct {
	meanPrice float64
	totalQty  float64
	count     int
}

// bucketByPrice partitions facts into n equal-width price ranges and
// aggregates mean price and summed quantity per range. Empty buckets
// are dropped.
func bucketByPrice(facts []domain.SalesFact, n int) []priceBucket {
	minPrice, maxPrice := facts[0].UnitPrice, facts[0].UnitPrice
	for _, f := range facts {
		if f.UnitPrice < minPrice {
			minPrice = f.UnitPrice
		}
		if f.UnitPrice > maxPrice {
			maxPrice = f.UnitPrice
		}
	}
	if maxPrice == minPrice {
		bucket := priceBucket{}
		for _, f := range facts {
			bucket.meanPrice += f.UnitPrice
			bucket.totalQty += f.Quantity
			bucket.count++
		}
		bucket.meanPrice /= float64(bucket.count)
		return []priceBucket{bucket}
	}

	width := (maxPrice - minPrice) / float64(n)
	sums := make([]float64, n)
	qtys := make([]float64, n)
	counts := make([]int, n)

	for _, f := range facts {
		idx := int((f.UnitPrice - minPrice) / width)
		if idx >= n {
			idx = n - 1
		}
		sums[idx] += f.UnitPrice
		qtys[idx] += f.Quantity
		counts[idx]++
	}

	var buckets []priceBucket
	for i := 0; i < n; i++ {
		if counts[i] == 0 {
			continue
		}
		buckets = append(buckets, priceBucket{
			meanPrice: sums[i] / float64(counts[i]),
			totalQty:  qtys[i],
			count:     counts[i],
		})
	}
	return buckets
}

func olsSlope(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX float64
	for i := range xs {
		dx := xs[i] - meanX
		cov += dx * (ys[i] - meanY)
		varX += dx * dx
	}
	if varX == 0 {
		return 0
	}
	return cov / varX
}

func interpretElasticity(elasticity float64) string {
	switch {
	case elasticity > 0:
		return "Unusual: Positive elasticity (demand increases with price)"
	case elasticity > -0.5:
		return "Inelastic: Demand is relatively insensitive to price changes"
	case elasticity > -1:
		return "Moderately elastic: Demand responds to price changes"
	default:
		return "Highly elastic: Demand is very sensitive to price changes"
	}
}
