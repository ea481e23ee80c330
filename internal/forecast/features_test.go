package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadmuradi/electronics-store/internal/domain"
)

func flatSeries(days int, qty, price float64) domain.DailySeries {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	points := make([]domain.DailyPoint, days)
	for i := range points {
		points[i] = domain.DailyPoint{
			Date:     start.AddDate(0, 0, i),
			Quantity: qty,
			Price:    price,
			HasPrice: price > 0,
		}
	}
	return domain.DailySeries{ProductID: 1, Points: points}
}

func TestCalendarFeatures(t *testing.T) {
	fv := make(domain.FeatureVector)
	// 2026-06-01 is a Monday.
	calendarFeatures(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), fv)

	assert.Equal(t, 0.0, fv["day_of_week"])
	assert.Equal(t, 6.0, fv["month"])
	assert.Equal(t, 2.0, fv["quarter"])
	assert.Equal(t, 0.0, fv["is_weekend"])
	assert.InDelta(t, math.Sin(2*math.Pi*6/12), fv["sin_month"], 1e-12)
	assert.InDelta(t, math.Cos(2*math.Pi*6/12), fv["cos_month"], 1e-12)

	// 2026-06-06 is a Saturday.
	fv = make(domain.FeatureVector)
	calendarFeatures(time.Date(2026, 6, 6, 0, 0, 0, 0, time.UTC), fv)
	assert.Equal(t, 5.0, fv["day_of_week"])
	assert.Equal(t, 1.0, fv["is_weekend"])
}

func TestBuildTrainingTableSkipsIncompleteBuffers(t *testing.T) {
	series := flatSeries(45, 10, 20)

	rows := BuildTrainingTable(series)
	require.Len(t, rows, 15)

	// The first usable row is the one with a full 30-day buffer.
	assert.Equal(t, series.Points[maxLookback].Date, rows[0].Date)

	fv := rows[0].Features
	assert.Equal(t, 10.0, fv["sales_lag_1"])
	assert.Equal(t, 10.0, fv["sales_lag_30"])
	assert.Equal(t, 10.0, fv["sales_mean_7"])
	assert.Equal(t, 0.0, fv["sales_std_7"])
	assert.Equal(t, 10.0, rows[0].Target)
}

func TestBuildTrainingTableTooShort(t *testing.T) {
	assert.Empty(t, BuildTrainingTable(flatSeries(30, 5, 0)))
}

func TestVectorizeMissingFeaturesReadZero(t *testing.T) {
	x := Vectorize(domain.FeatureVector{"sales_lag_1": 4})

	require.Len(t, x, len(featureNames))
	for i, name := range featureNames {
		if name == "sales_lag_1" {
			assert.Equal(t, 4.0, x[i])
		} else {
			assert.Equal(t, 0.0, x[i])
		}
	}
}

func TestInferenceFeaturesPartialBuffer(t *testing.T) {
	buf := NewQuantityBuffer([]float64{3, 6, 9, 12, 15, 18, 21})
	fv := InferenceFeatures(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), buf)

	assert.Equal(t, 21.0, fv["sales_lag_1"])
	assert.Equal(t, 3.0, fv["sales_lag_7"])
	assert.Equal(t, 12.0, fv["sales_mean_7"])

	// Windows longer than the buffer stay absent rather than padded.
	_, has14 := fv["sales_mean_14"]
	assert.False(t, has14)
	_, hasLag14 := fv["sales_lag_14"]
	assert.False(t, hasLag14)
}

func TestQuantityBufferRing(t *testing.T) {
	history := make([]float64, 40)
	for i := range history {
		history[i] = float64(i)
	}

	buf := NewQuantityBuffer(history)
	assert.Equal(t, maxLookback, buf.Len())

	v, ok := buf.Lag(1)
	require.True(t, ok)
	assert.Equal(t, 39.0, v)

	v, ok = buf.Lag(30)
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = buf.Lag(31)
	assert.False(t, ok)

	buf.Push(100)
	v, _ = buf.Lag(1)
	assert.Equal(t, 100.0, v)

	tail := buf.Tail(3)
	assert.Equal(t, []float64{38, 39, 100}, tail)
}

func TestStandardizerRoundTrip(t *testing.T) {
	rows := [][]float64{{1, 10}, {2, 20}, {3, 30}}
	s := FitStandardizer(rows)

	got := s.Transform([]float64{2, 20})
	assert.InDelta(t, 0, got[0], 1e-12)
	assert.InDelta(t, 0, got[1], 1e-12)

	got = s.Transform([]float64{3, 30})
	assert.Greater(t, got[0], 0.0)
	assert.Greater(t, got[1], 0.0)
}

func TestLinearModelRecoversAffineTarget(t *testing.T) {
	rows := make([][]float64, 50)
	targets := make([]float64, 50)
	for i := range rows {
		x := float64(i)
		rows[i] = []float64{x, x * x}
		targets[i] = 3 + 2*x + 0.5*x*x
	}

	model, err := FitLinear(rows, targets)
	require.NoError(t, err)

	pred := model.Predict([]float64{10, 100})
	assert.InDelta(t, 73, pred, 1e-6)
}
