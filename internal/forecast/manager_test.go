package forecast

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadmuradi/electronics-store/internal/artifact"
	"github.com/ahmadmuradi/electronics-store/internal/cache"
	"github.com/ahmadmuradi/electronics-store/internal/config"
	"github.com/ahmadmuradi/electronics-store/internal/domain"
)

type fakeSalesRepo struct {
	daily map[int64][]domain.DailySale
	ids   []int64
}

func (f *fakeSalesRepo) DailySales(_ context.Context, productID int64, _ *int64, since time.Time) ([]domain.DailySale, error) {
	var out []domain.DailySale
	for _, r := range f.daily[productID] {
		if !r.Date.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSalesRepo) PriceQuantityHistory(_ context.Context, _ int64, _ time.Time) ([]domain.SalesFact, error) {
	return nil, nil
}

func (f *fakeSalesRepo) ProductCost(_ context.Context, productID int64) (domain.ProductCost, error) {
	return domain.ProductCost{ProductID: productID}, nil
}

func (f *fakeSalesRepo) ProductIDs(_ context.Context, _ *int64) ([]int64, error) {
	return f.ids, nil
}

// syntheticHistory builds a deterministic series with weekly seasonality
// ending yesterday.
func syntheticHistory(days int) []domain.DailySale {
	end := time.Now().UTC().AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -(days - 1))

	rows := make([]domain.DailySale, 0, days)
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		qty := 10 + 5*math.Sin(2*math.Pi*float64(d)/7) + 2*math.Sin(2*math.Pi*float64(d)/30)
		rows = append(rows, domain.DailySale{
			Date:     date,
			Quantity: math.Round(qty),
			AvgPrice: 49.99,
			HasPrice: true,
		})
	}
	return rows
}

func testConfig() config.ForecastConfig {
	return config.ForecastConfig{
		TrainingLookbackDays:  365,
		InferenceLookbackDays: 90,
		MinHistoryRows:        30,
		MinTrainingRows:       20,
		DefaultHorizonDays:    30,
		Seed:                  42,
	}
}

func newTestManager(repo *fakeSalesRepo) (*Manager, *artifact.MemoryStore) {
	store := artifact.NewMemoryStore()
	return NewManager(repo, store, cache.NewNoopForecastCache(), testConfig()), store
}

func TestTrainNoHistory(t *testing.T) {
	mgr, store := newTestManager(&fakeSalesRepo{daily: map[int64][]domain.DailySale{}})

	_, err := mgr.Train(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInsufficientHistory))

	exists, err := store.Exists(context.Background(), artifact.ModelKey(1))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTrainInsufficientData(t *testing.T) {
	repo := &fakeSalesRepo{daily: map[int64][]domain.DailySale{
		1: syntheticHistory(25),
	}}
	mgr, store := newTestManager(repo)

	_, err := mgr.Train(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInsufficientData))

	exists, err := store.Exists(context.Background(), artifact.ModelKey(1))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTrainPersistsWinner(t *testing.T) {
	repo := &fakeSalesRepo{daily: map[int64][]domain.DailySale{
		1: syntheticHistory(365),
	}}
	mgr, store := newTestManager(repo)

	report, err := mgr.Train(context.Background(), 1)
	require.NoError(t, err)

	assert.Contains(t, []domain.ModelKind{
		domain.ModelRandomForest,
		domain.ModelGradientBoosting,
		domain.ModelLinearRegression,
	}, report.ModelKind)
	assert.GreaterOrEqual(t, report.MAE, 0.0)
	assert.Greater(t, report.TrainingSamples, 0)
	assert.Greater(t, report.TestSamples, 0)

	exists, err := store.Exists(context.Background(), artifact.ModelKey(1))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTrainDeterministic(t *testing.T) {
	repo := &fakeSalesRepo{daily: map[int64][]domain.DailySale{
		1: syntheticHistory(365),
	}}
	mgr, _ := newTestManager(repo)

	first, err := mgr.Train(context.Background(), 1)
	require.NoError(t, err)

	second, err := mgr.Train(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, first.ModelKind, second.ModelKind)
	assert.InDelta(t, first.MAE, second.MAE, 1e-9)
}

func TestPredictNonNegativeExactTotal(t *testing.T) {
	repo := &fakeSalesRepo{daily: map[int64][]domain.DailySale{
		1: syntheticHistory(365),
	}}
	mgr, _ := newTestManager(repo)

	_, err := mgr.Train(context.Background(), 1)
	require.NoError(t, err)

	forecast, err := mgr.Predict(context.Background(), 1, 30)
	require.NoError(t, err)
	require.Len(t, forecast.Predictions, 30)

	var sum float64
	for _, p := range forecast.Predictions {
		assert.GreaterOrEqual(t, p.PredictedQuantity, 0.0)
		sum += p.PredictedQuantity
	}
	assert.Equal(t, sum, forecast.Total)
	assert.InDelta(t, forecast.Total/30, forecast.Average, 1e-12)

	// Consecutive forecast days advance one calendar day at a time.
	for i := 1; i < len(forecast.Predictions); i++ {
		gap := forecast.Predictions[i].Date.Sub(forecast.Predictions[i-1].Date)
		assert.Equal(t, 24*time.Hour, gap)
	}
}

func TestPredictConstantDemand(t *testing.T) {
	// A product selling exactly ten a day at a fixed price trains fine
	// and forecasts close to ten a day, even though the price feature
	// columns carry no variation at all.
	end := time.Now().UTC().AddDate(0, 0, -1)
	rows := make([]domain.DailySale, 90)
	for d := range rows {
		rows[d] = domain.DailySale{
			Date:     end.AddDate(0, 0, -(89 - d)),
			Quantity: 10,
			AvgPrice: 50,
			HasPrice: true,
		}
	}
	repo := &fakeSalesRepo{daily: map[int64][]domain.DailySale{1: rows}}
	mgr, _ := newTestManager(repo)

	report, err := mgr.Train(context.Background(), 1)
	require.NoError(t, err)
	assert.InDelta(t, 0, report.MAE, 0.5)

	forecast, err := mgr.Predict(context.Background(), 1, 7)
	require.NoError(t, err)
	require.Len(t, forecast.Predictions, 7)
	for _, p := range forecast.Predictions {
		assert.InDelta(t, 10, p.PredictedQuantity, 2)
	}
}

func TestPredictZeroHorizon(t *testing.T) {
	repo := &fakeSalesRepo{daily: map[int64][]domain.DailySale{
		1: syntheticHistory(365),
	}}
	mgr, _ := newTestManager(repo)

	_, err := mgr.Train(context.Background(), 1)
	require.NoError(t, err)

	forecast, err := mgr.Predict(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, forecast.Predictions)
	assert.Zero(t, forecast.Total)
	assert.Zero(t, forecast.Average)
}

func TestPredictTrainsWhenMissing(t *testing.T) {
	repo := &fakeSalesRepo{daily: map[int64][]domain.DailySale{
		1: syntheticHistory(365),
	}}
	mgr, store := newTestManager(repo)

	forecast, err := mgr.Predict(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Len(t, forecast.Predictions, 7)

	exists, err := store.Exists(context.Background(), artifact.ModelKey(1))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPredictPropagatesInsufficientData(t *testing.T) {
	repo := &fakeSalesRepo{daily: map[int64][]domain.DailySale{
		1: syntheticHistory(10),
	}}
	mgr, _ := newTestManager(repo)

	_, err := mgr.Predict(context.Background(), 1, 7)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInsufficientData))
}

func TestTrainAllIsolatesFailures(t *testing.T) {
	repo := &fakeSalesRepo{
		daily: map[int64][]domain.DailySale{
			1: syntheticHistory(365),
			2: syntheticHistory(5),
			3: syntheticHistory(365),
		},
		ids: []int64{1, 2, 3},
	}
	mgr, _ := newTestManager(repo)

	report, err := mgr.TrainAll(context.Background(), nil)
	require.NoError(t, err)

	assert.Len(t, report.Trained, 2)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, int64(2), report.Failures[0].ProductID)
}
