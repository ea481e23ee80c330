package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadmuradi/electronics-store/internal/domain"
)

func day(offset int) time.Time {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestAssembleFillsGaps(t *testing.T) {
	repo := &fakeSalesRepo{daily: map[int64][]domain.DailySale{
		7: {
			{Date: day(0), Quantity: 5, AvgPrice: 10, HasPrice: true},
			{Date: day(2), Quantity: 3, AvgPrice: 12, HasPrice: true},
			{Date: day(4), Quantity: 8, AvgPrice: 11, HasPrice: true},
		},
	}}

	series, observed, err := NewAssembler(repo).Assemble(context.Background(), 7, nil, 3650)
	require.NoError(t, err)

	assert.Equal(t, 3, observed)
	require.Equal(t, 5, series.Len())

	// One row per calendar day, strictly ascending.
	for i := 1; i < series.Len(); i++ {
		assert.Equal(t, 24*time.Hour, series.Points[i].Date.Sub(series.Points[i-1].Date))
	}

	// Absent days get zero quantity and the last known price.
	assert.Equal(t, 0.0, series.Points[1].Quantity)
	assert.Equal(t, 10.0, series.Points[1].Price)
	assert.True(t, series.Points[1].HasPrice)

	assert.Equal(t, 3.0, series.Points[2].Quantity)
	assert.Equal(t, 12.0, series.Points[2].Price)

	assert.Equal(t, 0.0, series.Points[3].Quantity)
	assert.Equal(t, 12.0, series.Points[3].Price)
}

func TestAssembleNoPriceUntilFirstObserved(t *testing.T) {
	repo := &fakeSalesRepo{daily: map[int64][]domain.DailySale{
		7: {
			{Date: day(0), Quantity: 2},
			{Date: day(2), Quantity: 4, AvgPrice: 9, HasPrice: true},
		},
	}}

	series, _, err := NewAssembler(repo).Assemble(context.Background(), 7, nil, 3650)
	require.NoError(t, err)

	assert.False(t, series.Points[0].HasPrice)
	assert.False(t, series.Points[1].HasPrice)
	assert.True(t, series.Points[2].HasPrice)
	assert.Equal(t, 9.0, series.Points[2].Price)
}

func TestAssembleEmptyHistory(t *testing.T) {
	repo := &fakeSalesRepo{daily: map[int64][]domain.DailySale{}}

	_, _, err := NewAssembler(repo).Assemble(context.Background(), 7, nil, 365)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindInsufficientHistory))
}
