package reorder

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ahmadmuradi/electronics-store/internal/config"
	"github.com/ahmadmuradi/electronics-store/internal/domain"
	"github.com/ahmadmuradi/electronics-store/internal/repository"
)

// Suggester scans below-threshold stock and ranks reorder suggestions
// by urgency.
type Suggester struct {
	stock      repository.StockRepository
	calculator *Calculator
	cfg        config.ReorderConfig
}

func NewSuggester(stock repository.StockRepository, calculator *Calculator, cfg config.ReorderConfig) *Suggester {
	return &Suggester{stock: stock, calculator: calculator, cfg: cfg}
}

// Generate computes a suggestion for every product/location pair whose
// stock sits at or below its reorder level. Pairs are independent and
// run on a bounded worker group; one failing pair is logged and skipped
// rather than aborting the batch. Ties in priority keep scan order.
func (s *Suggester) Generate(ctx context.Context, locationID *int64) ([]domain.ReorderSuggestion, error) {
	levels, err := s.stock.LowStockLevels(ctx, locationID)
	if err != nil {
		return nil, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not scan stock levels")
	}

	results := make([]*domain.ReorderSuggestion, len(levels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.SuggestionWorkers)

	for i, level := range levels {
		g.Go(func() error {
			calc, err := s.calculator.Calculate(gctx, level.ProductID, level.LocationID, s.cfg.DefaultServiceLevel)
			if err != nil {
				log.Warn().Err(err).
					Int64("product_id", level.ProductID).
					Int64("location_id", level.LocationID).
					Msg("skipping reorder suggestion")
				return nil
			}

			results[i] = &domain.ReorderSuggestion{
				ProductID:              level.ProductID,
				ProductName:            level.ProductName,
				LocationID:             level.LocationID,
				CurrentStock:           level.StockQuantity,
				ReorderLevel:           level.ReorderLevel,
				SuggestedReorderPoint:  calc.ReorderPoint,
				SuggestedOrderQuantity: calc.OrderQuantity,
				Priority:               priority(level.StockQuantity, level.ReorderLevel),
				Recommendation:         calc.Recommendation,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	suggestions := make([]domain.ReorderSuggestion, 0, len(levels))
	for _, r := range results {
		if r != nil {
			suggestions = append(suggestions, *r)
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority > suggestions[j].Priority
	})

	return suggestions, nil
}

// priority scores urgency: out of stock is critical, then bands at 50%
// and 75% of the reorder level.
func priority(currentStock, reorderLevel float64) int {
	switch {
	case currentStock <= 0:
		return 100
	case currentStock <= reorderLevel*0.5:
		return 80
	case currentStock <= reorderLevel*0.75:
		return 60
	default:
		return 40
	}
}
