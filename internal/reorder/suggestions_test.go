package reorder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadmuradi/electronics-store/internal/domain"
)

type fakeStockRepo struct {
	levels []domain.StockLevel
	err    error
}

func (f *fakeStockRepo) LowStockLevels(_ context.Context, _ *int64) ([]domain.StockLevel, error) {
	return f.levels, f.err
}

func level(productID int64, name string, stock, reorder float64) domain.StockLevel {
	return domain.StockLevel{
		ProductID:     productID,
		LocationID:    1,
		ProductName:   name,
		StockQuantity: stock,
		ReorderLevel:  reorder,
	}
}

func newTestSuggester(stock *fakeStockRepo, repo *fakeSalesRepo) *Suggester {
	cfg := testReorderConfig()
	calc := NewCalculator(repo, &fakeForecaster{average: 20}, cfg)
	return NewSuggester(stock, calc, cfg)
}

func TestGenerateOrdersByPriority(t *testing.T) {
	stock := &fakeStockRepo{levels: []domain.StockLevel{
		level(1, "USB Cable", 80, 100),  // 40
		level(2, "Mouse", 0, 100),       // 100
		level(3, "Keyboard", 70, 100),   // 60
		level(4, "Headphones", 40, 100), // 80
	}}
	repo := &fakeSalesRepo{
		daily: alternatingRows(),
		cost:  domain.ProductCost{ProductID: 1, Price: 100, Cost: 50, HasCost: true},
	}

	suggestions, err := newTestSuggester(stock, repo).Generate(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 4)

	assert.Equal(t, int64(2), suggestions[0].ProductID)
	assert.Equal(t, 100, suggestions[0].Priority)
	assert.Equal(t, int64(4), suggestions[1].ProductID)
	assert.Equal(t, int64(3), suggestions[2].ProductID)
	assert.Equal(t, int64(1), suggestions[3].ProductID)
	assert.Equal(t, 40, suggestions[3].Priority)
}

func TestGenerateTiesKeepScanOrder(t *testing.T) {
	stock := &fakeStockRepo{levels: []domain.StockLevel{
		level(1, "USB Cable", 0, 100),
		level(2, "Mouse", -3, 100),
		level(3, "Keyboard", 0, 50),
	}}
	repo := &fakeSalesRepo{
		daily: alternatingRows(),
		cost:  domain.ProductCost{ProductID: 1, Price: 100, Cost: 50, HasCost: true},
	}

	suggestions, err := newTestSuggester(stock, repo).Generate(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 3)

	for i, s := range suggestions {
		assert.Equal(t, 100, s.Priority)
		assert.Equal(t, int64(i+1), s.ProductID)
	}
}

func TestGenerateSkipsFailedPairs(t *testing.T) {
	stock := &fakeStockRepo{levels: []domain.StockLevel{
		level(1, "USB Cable", 0, 100),
		level(2, "Mouse", 10, 100),
		level(3, "Keyboard", 70, 100),
	}}
	repo := &fakeSalesRepo{
		daily:     alternatingRows(),
		cost:      domain.ProductCost{ProductID: 1, Price: 100, Cost: 50, HasCost: true},
		failDaily: map[int64]error{2: errors.New("connection reset")},
	}

	suggestions, err := newTestSuggester(stock, repo).Generate(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, int64(1), suggestions[0].ProductID)
	assert.Equal(t, int64(3), suggestions[1].ProductID)
}

func TestGenerateEmptyScan(t *testing.T) {
	repo := &fakeSalesRepo{daily: alternatingRows()}
	suggestions, err := newTestSuggester(&fakeStockRepo{}, repo).Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestGeneratePropagatesScanFailure(t *testing.T) {
	stock := &fakeStockRepo{err: errors.New("relation does not exist")}
	repo := &fakeSalesRepo{daily: alternatingRows()}

	_, err := newTestSuggester(stock, repo).Generate(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindPersistenceFailure))
}

func TestPriorityBands(t *testing.T) {
	assert.Equal(t, 100, priority(0, 100))
	assert.Equal(t, 80, priority(50, 100))
	assert.Equal(t, 60, priority(75, 100))
	assert.Equal(t, 40, priority(76, 100))
}
