package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ahmadmuradi/electronics-store/internal/domain"
)

type SalesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *SalesRepository {
	return &SalesRepository{db: db}
}

// DailySales returns per-day sales aggregates for a product since the
// given date. Days without sales are not returned; the series assembler
// fills the gaps.
func (r *SalesRepository) DailySales(ctx context.Context, productID int64, locationID *int64, since time.Time) ([]domain.DailySale, error) {
	query := `
		SELECT
			DATE(s.sale_date) AS sale_date,
			COALESCE(SUM(si.quantity), 0) AS quantity,
			COALESCE(AVG(si.price), 0) AS avg_price,
			COUNT(si.price) > 0 AS has_price
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE si.product_id = $1
		  AND s.sale_date >= $2`
	args := []interface{}{productID, since}

	if locationID != nil {
		query += ` AND s.location_id = $3`
		args = append(args, *locationID)
	}
	query += `
		GROUP BY DATE(s.sale_date)
		ORDER BY sale_date`

	var rows []domain.DailySale
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("could not query daily sales: %w", err)
	}

	return rows, nil
}

// PriceQuantityHistory returns raw sale lines with their prices for
// elasticity estimation.
func (r *SalesRepository) PriceQuantityHistory(ctx context.Context, productID int64, since time.Time) ([]domain.SalesFact, error) {
	query := `
		SELECT
			si.product_id,
			s.location_id,
			DATE(s.sale_date) AS sale_date,
			si.quantity,
			si.price
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE si.product_id = $1
		  AND s.sale_date >= $2
		  AND si.price > 0
		ORDER BY s.sale_date`

	var rows []domain.SalesFact
	if err := r.db.SelectContext(ctx, &rows, query, productID, since); err != nil {
		return nil, fmt.Errorf("could not query price history: %w", err)
	}

	return rows, nil
}

// ProductCost reads the current price and unit cost for a product.
func (r *SalesRepository) ProductCost(ctx context.Context, productID int64) (domain.ProductCost, error) {
	query := `
		SELECT
			id AS product_id,
			COALESCE(price, 0) AS price,
			COALESCE(cost, 0) AS cost,
			cost IS NOT NULL AND cost > 0 AS has_cost
		FROM products
		WHERE id = $1`

	var pc domain.ProductCost
	if err := r.db.GetContext(ctx, &pc, query, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ProductCost{}, fmt.Errorf("product %d not found", productID)
		}
		return domain.ProductCost{}, fmt.Errorf("could not query product cost: %w", err)
	}

	return pc, nil
}

// ProductIDs returns the ids of every product with at least one sale,
// optionally scoped to a location. Bulk training iterates over this set.
func (r *SalesRepository) ProductIDs(ctx context.Context, locationID *int64) ([]int64, error) {
	query := `
		SELECT DISTINCT si.product_id
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id`
	args := []interface{}{}

	if locationID != nil {
		query += ` WHERE s.location_id = $1`
		args = append(args, *locationID)
	}
	query += ` ORDER BY si.product_id`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("could not query product ids: %w", err)
	}

	return ids, nil
}

type StockRepository struct {
	db *DB
}

func NewStockRepository(db *DB) *StockRepository {
	return &StockRepository{db: db}
}

// LowStockLevels returns every product/location pair whose stock is at
// or below its configured reorder level.
func (r *StockRepository) LowStockLevels(ctx context.Context, locationID *int64) ([]domain.StockLevel, error) {
	query := `
		SELECT
			pl.product_id,
			pl.location_id,
			p.name AS product_name,
			pl.stock_quantity,
			COALESCE(p.reorder_level, 0) AS reorder_level
		FROM product_locations pl
		JOIN products p ON p.id = pl.product_id
		WHERE pl.stock_quantity <= COALESCE(p.reorder_level, 0)`
	args := []interface{}{}

	if locationID != nil {
		query += ` AND pl.location_id = $1`
		args = append(args, *locationID)
	}
	query += ` ORDER BY pl.product_id, pl.location_id`

	var rows []domain.StockLevel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("could not query low stock levels: %w", err)
	}

	return rows, nil
}
