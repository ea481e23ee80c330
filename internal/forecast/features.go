package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/ahmadmuradi/electronics-store/internal/domain"
)

// featureNames fixes the feature vector order. Models are trained and
// served against this exact layout; reordering it invalidates every
// persisted artifact.
var featureNames = []string{
	"day_of_week",
	"month",
	"quarter",
	"is_weekend",
	"sin_month",
	"cos_month",
	"sin_day",
	"cos_day",
	"sales_lag_1",
	"sales_lag_7",
	"sales_lag_14",
	"sales_lag_30",
	"sales_mean_7",
	"sales_std_7",
	"sales_mean_14",
	"sales_std_14",
	"sales_mean_30",
	"sales_std_30",
	"price_change",
	"price_vs_avg",
}

var lagOffsets = []int{1, 7, 14, 30}
var rollingWindows = []int{7, 14, 30}

// maxLookback is the longest trailing buffer any feature needs.
const maxLookback = 30

// FeatureNames returns the fixed feature schema in vector order.
func FeatureNames() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// Vectorize lays a feature map out in schema order. Missing entries
// read as zero; this is the lenient inference path.
func Vectorize(fv domain.FeatureVector) []float64 {
	x := make([]float64, len(featureNames))
	for i, name := range featureNames {
		x[i] = fv[name]
	}
	return x
}

// calendarFeatures fills the date-derived entries. Weekdays run Monday
// through Sunday as 0..6 so the weekend flag covers 5 and 6.
func calendarFeatures(date time.Time, fv domain.FeatureVector) {
	dow := (int(date.Weekday()) + 6) % 7
	month := int(date.Month())

	fv["day_of_week"] = float64(dow)
	fv["month"] = float64(month)
	fv["quarter"] = float64((month-1)/3 + 1)
	if dow >= 5 {
		fv["is_weekend"] = 1
	} else {
		fv["is_weekend"] = 0
	}
	fv["sin_month"] = math.Sin(2 * math.Pi * float64(month) / 12)
	fv["cos_month"] = math.Cos(2 * math.Pi * float64(month) / 12)
	fv["sin_day"] = math.Sin(2 * math.Pi * float64(dow) / 7)
	fv["cos_day"] = math.Cos(2 * math.Pi * float64(dow) / 7)
}

// BuildTrainingTable converts a series into supervised rows. Rows whose
// trailing buffer cannot fill every lag and rolling feature are
// excluded rather than padded; training targets must be honest.
func BuildTrainingTable(series domain.DailySeries) []domain.TrainingRow {
	qty := series.Quantities()

	var priceMean, priceStd float64
	hasPrices := seriesHasPrices(series)
	if hasPrices {
		prices := make([]float64, len(series.Points))
		for i, p := range series.Points {
			prices[i] = p.Price
		}
		priceMean = mean(prices)
		priceStd = stddev(prices, priceMean)
	}

	var rows []domain.TrainingRow
	for i := maxLookback; i < len(series.Points); i++ {
		point := series.Points[i]
		fv := make(domain.FeatureVector, len(featureNames))
		calendarFeatures(point.Date, fv)

		for _, lag := range lagOffsets {
			fv[lagName(lag)] = qty[i-lag]
		}
		for _, w := range rollingWindows {
			window := qty[i-w+1 : i+1]
			m := mean(window)
			fv[meanName(w)] = m
			fv[stdName(w)] = stddev(window, m)
		}

		if hasPrices {
			prev := series.Points[i-1].Price
			if prev != 0 {
				fv["price_change"] = (point.Price - prev) / prev
			}
			if priceStd != 0 {
				fv["price_vs_avg"] = (point.Price - priceMean) / priceStd
			}
		}

		rows = append(rows, domain.TrainingRow{
			Date:     point.Date,
			Features: fv,
			Target:   point.Quantity,
		})
	}

	return rows
}

// InferenceFeatures builds the feature map for one future date from a
// trailing quantity buffer. A partial buffer is usable signal; whatever
// lags and windows it cannot cover stay at zero. Price features are
// unknown for future dates and stay at zero as well.
func InferenceFeatures(date time.Time, buf *QuantityBuffer) domain.FeatureVector {
	fv := make(domain.FeatureVector, len(featureNames))
	calendarFeatures(date, fv)

	for _, lag := range lagOffsets {
		if v, ok := buf.Lag(lag); ok {
			fv[lagName(lag)] = v
		}
	}
	for _, w := range rollingWindows {
		if window := buf.Tail(w); len(window) == w {
			m := mean(window)
			fv[meanName(w)] = m
			fv[stdName(w)] = stddev(window, m)
		}
	}

	return fv
}

// QuantityBuffer is a fixed-capacity ring of the most recent daily
// quantities. The forecast walk pushes each day's prediction so later
// days' lag and rolling features see it.
type QuantityBuffer struct {
	ring  [maxLookback]float64
	next  int
	count int
}

// NewQuantityBuffer seeds a buffer with observed history, keeping only
// the most recent maxLookback values.
func NewQuantityBuffer(history []float64) *QuantityBuffer {
	b := &QuantityBuffer{}
	for _, v := range history {
		b.Push(v)
	}
	return b
}

func (b *QuantityBuffer) Push(v float64) {
	b.ring[b.next] = v
	b.next = (b.next + 1) % maxLookback
	if b.count < maxLookback {
		b.count++
	}
}

// Lag returns the value lag days back, where lag 1 is the most recent.
func (b *QuantityBuffer) Lag(lag int) (float64, bool) {
	if lag < 1 || lag > b.count {
		return 0, false
	}
	idx := (b.next - lag + maxLookback) % maxLookback
	return b.ring[idx], true
}

// Tail returns up to n most recent values, oldest first.
func (b *QuantityBuffer) Tail(n int) []float64 {
	if n > b.count {
		n = b.count
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, _ := b.Lag(n - i)
		out[i] = v
	}
	return out
}

// Len returns the number of values currently buffered.
func (b *QuantityBuffer) Len() int { return b.count }

func seriesHasPrices(series domain.DailySeries) bool {
	for _, p := range series.Points {
		if p.HasPrice {
			return true
		}
	}
	return false
}

func lagName(lag int) string { return fmt.Sprintf("sales_lag_%d", lag) }

func meanName(w int) string { return fmt.Sprintf("sales_mean_%d", w) }

func stdName(w int) string { return fmt.Sprintf("sales_std_%d", w) }

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation; it returns zero for windows
// too small to estimate spread.
func stddev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, v := range xs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
