package forecast

import (
	"context"
	"time"

	"github.com/ahmadmuradi/electronics-store/internal/domain"
	"github.com/ahmadmuradi/electronics-store/internal/repository"
)

// Assembler turns raw per-day sales aggregates into gap-free daily
// series. It performs no modeling.
type Assembler struct {
	repo repository.SalesRepository
}

func NewAssembler(repo repository.SalesRepository) *Assembler {
	return &Assembler{repo: repo}
}

// Assemble returns the gap-filled series for a product over the
// trailing lookback window, plus the number of days that actually had
// sales. The series spans the first observed day through the last;
// absent days get quantity zero and the last known price.
func (a *Assembler) Assemble(ctx context.Context, productID int64, locationID *int64, lookbackDays int) (domain.DailySeries, int, error) {
	since := time.Now().UTC().AddDate(0, 0, -lookbackDays)

	rows, err := a.repo.DailySales(ctx, productID, locationID, since)
	if err != nil {
		return domain.DailySeries{}, 0, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not read sales history for product %d", productID)
	}
	if len(rows) == 0 {
		return domain.DailySeries{}, 0, domain.NewAnalyticsError(domain.KindInsufficientHistory, "no sales history for product %d", productID)
	}

	series := fillGaps(productID, rows)
	return series, len(rows), nil
}

// fillGaps expands sparse daily rows into one point per calendar day.
// Prices forward-fill from the most recent observed price.
func fillGaps(productID int64, rows []domain.DailySale) domain.DailySeries {
	byDay := make(map[string]domain.DailySale, len(rows))
	for _, r := range rows {
		byDay[dayKey(r.Date)] = r
	}

	start := truncateDay(rows[0].Date)
	end := truncateDay(rows[len(rows)-1].Date)

	var points []domain.DailyPoint
	var lastPrice float64
	var havePrice bool

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		p := domain.DailyPoint{Date: d}
		if row, ok := byDay[dayKey(d)]; ok {
			p.Quantity = row.Quantity
			if row.HasPrice {
				lastPrice = row.AvgPrice
				havePrice = true
			}
		}
		p.Price = lastPrice
		p.HasPrice = havePrice
		points = append(points, p)
	}

	return domain.DailySeries{ProductID: productID, Points: points}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
