// internal/domain/models.go
package domain

import "time"

// SalesFact is a single sale line joined to its sale header date.
// Facts are read-only inputs; the engine never writes them back.
type SalesFact struct {
	ProductID  int64     `json:"product_id" db:"product_id"`
	LocationID int64     `json:"location_id" db:"location_id"`
	Date       time.Time `json:"date" db:"sale_date"`
	Quantity   float64   `json:"quantity" db:"quantity"`
	UnitPrice  float64   `json:"unit_price" db:"price"`
}

// DailySale is one calendar day's aggregate straight from the sales
// store: quantities summed, line prices averaged. Days with no sales
// are absent; gap filling happens in the assembler.
type DailySale struct {
	Date     time.Time `json:"date" db:"sale_date"`
	Quantity float64   `json:"quantity" db:"quantity"`
	AvgPrice float64   `json:"avg_price" db:"avg_price"`
	HasPrice bool      `json:"has_price" db:"has_price"`
}

// DailyPoint is one calendar day of a gap-filled product series.
// HasPrice is false until the first observed price; after that the
// price carries forward across zero-sale days.
type DailyPoint struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
	HasPrice bool      `json:"has_price"`
}

// DailySeries is a per-product daily sales series with exactly one row
// per calendar day, dates strictly ascending, no gaps.
type DailySeries struct {
	ProductID int64        `json:"product_id"`
	Points    []DailyPoint `json:"points"`
}

// Len returns the number of days covered by the series.
func (s DailySeries) Len() int { return len(s.Points) }

// Quantities returns the quantity column in day order.
func (s DailySeries) Quantities() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Quantity
	}
	return out
}

// FeatureVector maps feature names to values. The schema is fixed by
// the feature extractor; at inference missing features read as zero.
type FeatureVector map[string]float64

// TrainingRow is one supervised example: features aligned to the
// observed quantity on the same date.
type TrainingRow struct {
	Date     time.Time
	Features FeatureVector
	Target   float64
}

// ModelKind identifies a candidate regressor.
type ModelKind string

const (
	ModelRandomForest     ModelKind = "random_forest"
	ModelGradientBoosting ModelKind = "gradient_boosting"
	ModelLinearRegression ModelKind = "linear_regression"
)

// TrainingReport summarizes a completed training run.
type TrainingReport struct {
	ProductID       int64     `json:"product_id"`
	ModelKind       ModelKind `json:"model_type"`
	MAE             float64   `json:"mae"`
	TrainingSamples int       `json:"training_samples"`
	TestSamples     int       `json:"test_samples"`
	TrainedAt       time.Time `json:"trained_at"`
}

// TrainingFailure records one product that could not be trained during
// a bulk run.
type TrainingFailure struct {
	ProductID int64  `json:"product_id"`
	Error     string `json:"error"`
}

// BulkTrainingReport collects per-product outcomes of a bulk training
// run. One product failing never aborts the batch.
type BulkTrainingReport struct {
	Trained  []TrainingReport  `json:"trained"`
	Failures []TrainingFailure `json:"failures"`
}

// ForecastPoint is a single predicted day. Predictions are clamped to
// be non-negative before they leave the model manager.
type ForecastPoint struct {
	Date              time.Time `json:"date"`
	PredictedQuantity float64   `json:"predicted_demand"`
}

// DemandForecast is the forward walk for one product. Total is the
// exact sum of the per-day predictions; Average is Total over the
// horizon length.
type DemandForecast struct {
	ProductID   int64           `json:"product_id"`
	Predictions []ForecastPoint `json:"predictions"`
	Total       float64         `json:"total_predicted_demand"`
	Average     float64         `json:"average_daily_demand"`
}

// ElasticityEstimate is the fitted log-log slope over price buckets.
type ElasticityEstimate struct {
	ProductID      int64   `json:"product_id"`
	Elasticity     float64 `json:"price_elasticity"`
	Interpretation string  `json:"interpretation"`
	DataPoints     int     `json:"data_points"`
}

// PriceRecommendation is the result of the profit-maximizing scan.
type PriceRecommendation struct {
	ProductID            int64   `json:"product_id"`
	CurrentPrice         float64 `json:"current_price"`
	OptimalPrice         float64 `json:"optimal_price"`
	TargetMarginPrice    float64 `json:"target_margin_price"`
	CurrentMargin        float64 `json:"current_margin"`
	OptimalMargin        float64 `json:"optimal_margin"`
	ProfitImprovementPct float64 `json:"profit_improvement_percent"`
	Elasticity           float64 `json:"price_elasticity"`
	Recommendation       string  `json:"recommendation"`
}

// ReorderMethod labels whether a calculation used the forecast-backed
// statistical path or the trailing-average fallback.
type ReorderMethod string

const (
	ReorderStatistical ReorderMethod = "statistical"
	ReorderSimple      ReorderMethod = "simple"
)

// ReorderCalculation is the reorder math for one product/location pair.
type ReorderCalculation struct {
	ProductID      int64         `json:"product_id"`
	LocationID     int64         `json:"location_id"`
	ReorderPoint   float64       `json:"reorder_point"`
	SafetyStock    float64       `json:"safety_stock"`
	OrderQuantity  float64       `json:"economic_order_quantity"`
	LeadTimeDemand float64       `json:"lead_time_demand"`
	AvgDailyDemand float64       `json:"average_daily_demand"`
	ServiceLevel   float64       `json:"service_level"`
	Method         ReorderMethod `json:"method"`
	Recommendation string        `json:"recommendation"`
}

// StockLevel is the current stock and configured reorder threshold for
// one product at one location, read from the inventory store.
type StockLevel struct {
	ProductID     int64   `json:"product_id" db:"product_id"`
	LocationID    int64   `json:"location_id" db:"location_id"`
	ProductName   string  `json:"product_name" db:"product_name"`
	StockQuantity float64 `json:"stock_quantity" db:"stock_quantity"`
	ReorderLevel  float64 `json:"reorder_level" db:"reorder_level"`
}

// ProductCost carries the cost/price pair used by EOQ and pricing.
type ProductCost struct {
	ProductID int64   `json:"product_id" db:"product_id"`
	Price     float64 `json:"price" db:"price"`
	Cost      float64 `json:"cost" db:"cost"`
	HasCost   bool    `json:"has_cost" db:"has_cost"`
}

// ReorderSuggestion is a ranked entry in the bulk reorder scan.
type ReorderSuggestion struct {
	ProductID              int64   `json:"product_id"`
	ProductName            string  `json:"product_name"`
	LocationID             int64   `json:"location_id"`
	CurrentStock           float64 `json:"current_stock"`
	ReorderLevel           float64 `json:"reorder_level"`
	SuggestedReorderPoint  float64 `json:"suggested_reorder_point"`
	SuggestedOrderQuantity float64 `json:"suggested_order_quantity"`
	Priority               int     `json:"priority"`
	Recommendation         string  `json:"recommendation"`
}
