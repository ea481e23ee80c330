// internal/repository/sales_repository.go
package repository

import (
	"context"
	"time"

	"github.com/ahmadmuradi/electronics-store/internal/domain"
)

// SalesRepository reads historical sales facts. The engine treats the
// relational store as an external collaborator and never writes to it.
type SalesRepository interface {
	// DailySales returns per-day aggregates (quantity summed, line
	// prices averaged) for one product since the given date, oldest
	// first. A nil locationID means all locations.
	DailySales(ctx context.Context, productID int64, locationID *int64, since time.Time) ([]domain.DailySale, error)

	// PriceQuantityHistory returns raw sale lines (price, quantity,
	// date) for one product since the given date, oldest first.
	PriceQuantityHistory(ctx context.Context, productID int64, since time.Time) ([]domain.SalesFact, error)

	// ProductCost returns the catalog price/cost pair for a product.
	ProductCost(ctx context.Context, productID int64) (domain.ProductCost, error)

	// ProductIDs lists catalog product ids, optionally restricted to
	// those stocked at a location. Used by bulk training.
	ProductIDs(ctx context.Context, locationID *int64) ([]int64, error)
}

// StockRepository reads current stock and reorder thresholds.
type StockRepository interface {
	// LowStockLevels returns every product/location pair whose current
	// stock is at or below the product's reorder level, in catalog scan
	// order. A nil locationID means all locations.
	LowStockLevels(ctx context.Context, locationID *int64) ([]domain.StockLevel, error)
}
