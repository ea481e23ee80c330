package reorder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadmuradi/electronics-store/internal/config"
	"github.com/ahmadmuradi/electronics-store/internal/domain"
)

type fakeSalesRepo struct {
	daily     []domain.DailySale
	cost      domain.ProductCost
	failDaily map[int64]error
}

func (f *fakeSalesRepo) DailySales(_ context.Context, productID int64, _ *int64, _ time.Time) ([]domain.DailySale, error) {
	if err, ok := f.failDaily[productID]; ok {
		return nil, err
	}
	return f.daily, nil
}

func (f *fakeSalesRepo) PriceQuantityHistory(_ context.Context, _ int64, _ time.Time) ([]domain.SalesFact, error) {
	return nil, nil
}

func (f *fakeSalesRepo) ProductCost(_ context.Context, _ int64) (domain.ProductCost, error) {
	return f.cost, nil
}

func (f *fakeSalesRepo) ProductIDs(_ context.Context, _ *int64) ([]int64, error) {
	return nil, nil
}

type fakeForecaster struct {
	average float64
	err     error
}

func (f *fakeForecaster) Predict(_ context.Context, productID int64, horizonDays int) (domain.DemandForecast, error) {
	if f.err != nil {
		return domain.DemandForecast{}, f.err
	}
	return domain.DemandForecast{
		ProductID: productID,
		Total:     f.average * float64(horizonDays),
		Average:   f.average,
	}, nil
}

func testReorderConfig() config.ReorderConfig {
	return config.ReorderConfig{
		LeadTimeDays:        7,
		OrderingCost:        50,
		HoldingCostRate:     0.2,
		DefaultServiceLevel: 0.95,
		SuggestionWorkers:   4,
	}
}

// alternatingRows builds 90 observed days that swing between 14 and 26
// units, averaging 20 with a sample standard deviation near 6.
func alternatingRows() []domain.DailySale {
	rows := make([]domain.DailySale, 90)
	end := time.Now().UTC()
	for i := range rows {
		qty := 14.0
		if i%2 == 1 {
			qty = 26.0
		}
		rows[i] = domain.DailySale{Date: end.AddDate(0, 0, -(90 - i)), Quantity: qty}
	}
	return rows
}

func TestCalculateStatistical(t *testing.T) {
	repo := &fakeSalesRepo{
		daily: alternatingRows(),
		cost:  domain.ProductCost{ProductID: 1, Price: 100, Cost: 50, HasCost: true},
	}
	calc := NewCalculator(repo, &fakeForecaster{average: 20}, testReorderConfig())

	result, err := calc.Calculate(context.Background(), 1, 2, 0.95)
	require.NoError(t, err)

	assert.Equal(t, domain.ReorderStatistical, result.Method)
	assert.Equal(t, 20.0, result.AvgDailyDemand)
	assert.Equal(t, 140.0, result.LeadTimeDemand)

	// z(0.95) * ~6.03 * sqrt(7) rounds to 26.
	assert.Equal(t, 26.0, result.SafetyStock)
	assert.Equal(t, 166.0, result.ReorderPoint)

	// sqrt(2 * 7300 * 50 / (50 * 0.2)) rounds to 270.
	assert.Equal(t, 270.0, result.OrderQuantity)
	assert.Equal(t, "Reorder when stock reaches 166 units. Order 270 units each time.", result.Recommendation)
}

func TestCalculateSafetyStockGrowsWithServiceLevel(t *testing.T) {
	repo := &fakeSalesRepo{
		daily: alternatingRows(),
		cost:  domain.ProductCost{ProductID: 1, Price: 100, Cost: 50, HasCost: true},
	}
	calc := NewCalculator(repo, &fakeForecaster{average: 20}, testReorderConfig())

	prev := -1.0
	for _, level := range []float64{0.80, 0.90, 0.95, 0.99} {
		result, err := calc.Calculate(context.Background(), 1, 2, level)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.SafetyStock, prev, "service level %v", level)
		prev = result.SafetyStock
	}
}

func TestCalculateFallbackStdWithSparseHistory(t *testing.T) {
	repo := &fakeSalesRepo{
		daily: alternatingRows()[:5],
		cost:  domain.ProductCost{ProductID: 1, Price: 100, Cost: 50, HasCost: true},
	}
	calc := NewCalculator(repo, &fakeForecaster{average: 20}, testReorderConfig())

	result, err := calc.Calculate(context.Background(), 1, 2, 0.95)
	require.NoError(t, err)

	// std falls back to 30% of average demand: 1.645 * 6 * sqrt(7) ~ 26.
	assert.Equal(t, domain.ReorderStatistical, result.Method)
	assert.Equal(t, 26.0, result.SafetyStock)
}

func TestCalculateSimpleFallback(t *testing.T) {
	repo := &fakeSalesRepo{daily: alternatingRows()}
	calc := NewCalculator(repo, &fakeForecaster{err: domain.NewAnalyticsError(domain.KindInsufficientData, "no model")}, testReorderConfig())

	result, err := calc.Calculate(context.Background(), 1, 2, 0.95)
	require.NoError(t, err)

	assert.Equal(t, domain.ReorderSimple, result.Method)
	// 20 * 14 * 1.5 and 20 * 30.
	assert.Equal(t, 420.0, result.ReorderPoint)
	assert.Equal(t, 600.0, result.OrderQuantity)
	assert.Zero(t, result.SafetyStock)
}

func TestCalculateSimpleFallbackNoHistory(t *testing.T) {
	repo := &fakeSalesRepo{}
	calc := NewCalculator(repo, &fakeForecaster{err: domain.NewAnalyticsError(domain.KindInsufficientData, "no model")}, testReorderConfig())

	result, err := calc.Calculate(context.Background(), 1, 2, 0.95)
	require.NoError(t, err)

	// Minimum assumed demand of 0.1 units per day.
	assert.Equal(t, domain.ReorderSimple, result.Method)
	assert.Equal(t, 2.0, result.ReorderPoint)
	assert.Equal(t, 3.0, result.OrderQuantity)
}

func TestCalculateEOQFallbackWithoutCost(t *testing.T) {
	repo := &fakeSalesRepo{
		daily: alternatingRows(),
		cost:  domain.ProductCost{ProductID: 1, Price: 100},
	}
	calc := NewCalculator(repo, &fakeForecaster{average: 20}, testReorderConfig())

	result, err := calc.Calculate(context.Background(), 1, 2, 0.95)
	require.NoError(t, err)

	// 30-day supply at 20 units per day.
	assert.Equal(t, 600.0, result.OrderQuantity)
}

func TestCalculateClampsServiceLevel(t *testing.T) {
	repo := &fakeSalesRepo{
		daily: alternatingRows(),
		cost:  domain.ProductCost{ProductID: 1, Price: 100, Cost: 50, HasCost: true},
	}
	calc := NewCalculator(repo, &fakeForecaster{average: 20}, testReorderConfig())

	result, err := calc.Calculate(context.Background(), 1, 2, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 0.95, result.ServiceLevel)
}
