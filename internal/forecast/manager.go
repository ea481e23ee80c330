package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ahmadmuradi/electronics-store/internal/artifact"
	"github.com/ahmadmuradi/electronics-store/internal/cache"
	"github.com/ahmadmuradi/electronics-store/internal/config"
	"github.com/ahmadmuradi/electronics-store/internal/domain"
	"github.com/ahmadmuradi/electronics-store/internal/repository"
)

const (
	forestTrees  = 100
	boostedTrees = 100

	backgroundTrainTimeout = 10 * time.Minute
	bulkTrainWorkers       = 4
)

// Manager trains, persists, loads, and serves per-product demand
// models. Training of the same product is serialized; prediction is
// read-only and runs concurrently.
type Manager struct {
	assembler *Assembler
	repo      repository.SalesRepository
	store     artifact.Store
	cache     cache.ForecastCache
	cfg       config.ForecastConfig

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewManager(repo repository.SalesRepository, store artifact.Store, fc cache.ForecastCache, cfg config.ForecastConfig) *Manager {
	return &Manager{
		assembler: NewAssembler(repo),
		repo:      repo,
		store:     store,
		cache:     fc,
		cfg:       cfg,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// productLock returns the mutex serializing training for one product.
func (m *Manager) productLock(productID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lk, ok := m.locks[productID]
	if !ok {
		lk = &sync.Mutex{}
		m.locks[productID] = lk
	}
	return lk
}

// Train builds the training table, fits the candidate menu, selects the
// lowest held-out MAE, and persists the winner. Any prior artifact for
// the product is replaced.
func (m *Manager) Train(ctx context.Context, productID int64) (domain.TrainingReport, error) {
	lk := m.productLock(productID)
	lk.Lock()
	defer lk.Unlock()

	return m.trainLocked(ctx, productID)
}

func (m *Manager) trainLocked(ctx context.Context, productID int64) (domain.TrainingReport, error) {
	series, observed, err := m.assembler.Assemble(ctx, productID, nil, m.cfg.TrainingLookbackDays)
	if err != nil {
		return domain.TrainingReport{}, err
	}
	if observed < m.cfg.MinHistoryRows {
		return domain.TrainingReport{}, domain.NewAnalyticsError(domain.KindInsufficientData,
			"product %d has %d days with sales, need at least %d", productID, observed, m.cfg.MinHistoryRows)
	}

	table := BuildTrainingTable(series)
	if len(table) < m.cfg.MinTrainingRows {
		return domain.TrainingReport{}, domain.NewAnalyticsError(domain.KindInsufficientData,
			"product %d has %d usable training rows, need at least %d", productID, len(table), m.cfg.MinTrainingRows)
	}

	// Chronological split. The table is already in date order; the last
	// 20% of rows form the held-out set so no future leaks into training.
	sort.SliceStable(table, func(i, j int) bool { return table[i].Date.Before(table[j].Date) })

	split := len(table) - len(table)/5
	if split == len(table) {
		split = len(table) - 1
	}

	trainRows, trainTargets := vectorizeRows(table[:split])
	testRows, testTargets := vectorizeRows(table[split:])

	art, err := m.fitCandidates(productID, trainRows, trainTargets, testRows, testTargets)
	if err != nil {
		return domain.TrainingReport{}, err
	}

	if err := m.persist(ctx, art); err != nil {
		return domain.TrainingReport{}, err
	}

	if err := m.cache.InvalidateProduct(ctx, productID); err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("could not invalidate forecast cache")
	}

	log.Info().
		Int64("product_id", productID).
		Str("model_type", string(art.Kind)).
		Float64("mae", art.MAE).
		Int("training_samples", art.TrainingSamples).
		Int("test_samples", art.TestSamples).
		Msg("demand model trained")

	return art.Report(), nil
}

// fitCandidates trains the fixed menu and keeps the candidate with the
// lowest held-out MAE. The linear baseline is scored first and wins
// ties against both ensembles.
func (m *Manager) fitCandidates(productID int64, trainRows [][]float64, trainTargets []float64, testRows [][]float64, testTargets []float64) (*ModelArtifact, error) {
	scaler := FitStandardizer(trainRows)

	linear, err := FitLinear(scaler.transformAll(trainRows), trainTargets)
	if err != nil {
		return nil, domain.WrapAnalyticsError(domain.KindInsufficientData, err, "could not fit linear baseline for product %d", productID)
	}

	art := &ModelArtifact{
		ProductID:       productID,
		Kind:            domain.ModelLinearRegression,
		TrainingSamples: len(trainRows),
		TestSamples:     len(testRows),
		TrainedAt:       time.Now().UTC(),
		FeatureNames:    FeatureNames(),
		Linear:          linear,
		Scaler:          scaler,
	}
	best := meanAbsoluteError(testTargets, predictAll(testRows, func(x []float64) float64 {
		return linear.Predict(scaler.Transform(x))
	}))
	art.MAE = best

	forest := FitForest(trainRows, trainTargets, forestTrees, m.cfg.Seed)
	if mae := meanAbsoluteError(testTargets, predictAll(testRows, forest.Predict)); mae < best {
		best = mae
		art.Kind = domain.ModelRandomForest
		art.MAE = mae
		art.Forest = forest
		art.Linear = nil
	}

	boosted := FitBoosted(trainRows, trainTargets, boostedTrees)
	if mae := meanAbsoluteError(testTargets, predictAll(testRows, boosted.Predict)); mae < best {
		art.Kind = domain.ModelGradientBoosting
		art.MAE = mae
		art.Boosted = boosted
		art.Forest = nil
		art.Linear = nil
	}

	return art, nil
}

func (m *Manager) persist(ctx context.Context, art *ModelArtifact) error {
	data, err := EncodeArtifact(art)
	if err != nil {
		return domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not encode model for product %d", art.ProductID)
	}
	if err := m.store.Put(ctx, artifact.ModelKey(art.ProductID), data); err != nil {
		return domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not store model for product %d", art.ProductID)
	}

	if art.Scaler != nil {
		scalerData, err := json.Marshal(art.Scaler)
		if err != nil {
			return domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not encode scaler for product %d", art.ProductID)
		}
		if err := m.store.Put(ctx, artifact.ScalerKey(art.ProductID), scalerData); err != nil {
			return domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not store scaler for product %d", art.ProductID)
		}
	}

	return nil
}

// load fetches the persisted artifact and its companion scaler.
func (m *Manager) load(ctx context.Context, productID int64) (*ModelArtifact, error) {
	data, err := m.store.Get(ctx, artifact.ModelKey(productID))
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return nil, domain.NewAnalyticsError(domain.KindArtifactNotFound, "no trained model for product %d", productID)
		}
		return nil, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not load model for product %d", productID)
	}

	art, err := DecodeArtifact(data)
	if err != nil {
		return nil, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "corrupt model artifact for product %d", productID)
	}

	scalerData, err := m.store.Get(ctx, artifact.ScalerKey(productID))
	if err == nil {
		var scaler Standardizer
		if err := json.Unmarshal(scalerData, &scaler); err != nil {
			return nil, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "corrupt scaler artifact for product %d", productID)
		}
		art.Scaler = &scaler
	} else if !errors.Is(err, artifact.ErrNotFound) {
		return nil, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not load scaler for product %d", productID)
	}

	return art, nil
}

// ensureModel loads the artifact, training first if none exists. The
// check-then-train step runs under the per-product lock so concurrent
// callers never trigger duplicate training.
func (m *Manager) ensureModel(ctx context.Context, productID int64) (*ModelArtifact, error) {
	art, err := m.load(ctx, productID)
	if err == nil {
		return art, nil
	}
	if !domain.IsKind(err, domain.KindArtifactNotFound) {
		return nil, err
	}

	lk := m.productLock(productID)
	lk.Lock()
	defer lk.Unlock()

	// Another caller may have trained while we waited on the lock.
	if art, err := m.load(ctx, productID); err == nil {
		return art, nil
	}

	if _, err := m.trainLocked(ctx, productID); err != nil {
		return nil, err
	}
	return m.load(ctx, productID)
}

// Predict forecasts daily demand for the given horizon. The walk is
// autoregressive: each predicted day enters the rolling buffer so later
// days' lag and rolling features see it.
func (m *Manager) Predict(ctx context.Context, productID int64, horizonDays int) (domain.DemandForecast, error) {
	if cached, ok, err := m.cache.GetForecast(ctx, productID, horizonDays); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("forecast cache read failed")
	}

	art, err := m.ensureModel(ctx, productID)
	if err != nil {
		return domain.DemandForecast{}, err
	}

	series, _, err := m.assembler.Assemble(ctx, productID, nil, m.cfg.InferenceLookbackDays)
	if err != nil {
		return domain.DemandForecast{}, err
	}

	buf := NewQuantityBuffer(series.Quantities())
	lastDate := series.Points[len(series.Points)-1].Date

	forecast := domain.DemandForecast{
		ProductID:   productID,
		Predictions: make([]domain.ForecastPoint, 0, horizonDays),
	}

	for d := 1; d <= horizonDays; d++ {
		date := lastDate.AddDate(0, 0, d)
		fv := InferenceFeatures(date, buf)

		pred, err := art.Predict(Vectorize(fv))
		if err != nil {
			return domain.DemandForecast{}, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "model for product %d cannot predict", productID)
		}
		pred = math.Max(0, pred)
		pred = math.Round(pred*100) / 100

		buf.Push(pred)
		forecast.Predictions = append(forecast.Predictions, domain.ForecastPoint{
			Date:              date,
			PredictedQuantity: pred,
		})
		forecast.Total += pred
	}

	if horizonDays > 0 {
		forecast.Average = forecast.Total / float64(horizonDays)
	}

	if err := m.cache.SetForecast(ctx, &forecast, horizonDays); err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("forecast cache write failed")
	}

	return forecast, nil
}

// TrainInBackground dispatches training without blocking the caller.
// Callers poll for artifact existence rather than awaiting the result.
func (m *Manager) TrainInBackground(productID int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTrainTimeout)
		defer cancel()

		if _, err := m.Train(ctx, productID); err != nil {
			log.Error().Err(err).Int64("product_id", productID).Msg("background training failed")
		}
	}()
}

// HasModel reports whether a trained artifact exists for the product.
func (m *Manager) HasModel(ctx context.Context, productID int64) (bool, error) {
	ok, err := m.store.Exists(ctx, artifact.ModelKey(productID))
	if err != nil {
		return false, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not check model for product %d", productID)
	}
	return ok, nil
}

// TrainAll trains every product with sales history, optionally scoped
// to one location. Products train in parallel; per-product failures are
// collected, never fatal to the batch.
func (m *Manager) TrainAll(ctx context.Context, locationID *int64) (domain.BulkTrainingReport, error) {
	ids, err := m.repo.ProductIDs(ctx, locationID)
	if err != nil {
		return domain.BulkTrainingReport{}, domain.WrapAnalyticsError(domain.KindPersistenceFailure, err, "could not list products for bulk training")
	}

	type outcome struct {
		report  domain.TrainingReport
		failure *domain.TrainingFailure
	}

	jobs := make(chan int64)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for w := 0; w < bulkTrainWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				report, err := m.Train(ctx, id)
				if err != nil {
					results <- outcome{failure: &domain.TrainingFailure{ProductID: id, Error: err.Error()}}
					continue
				}
				results <- outcome{report: report}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var report domain.BulkTrainingReport
	for out := range results {
		if out.failure != nil {
			report.Failures = append(report.Failures, *out.failure)
			continue
		}
		report.Trained = append(report.Trained, out.report)
	}

	return report, nil
}

func vectorizeRows(rows []domain.TrainingRow) ([][]float64, []float64) {
	xs := make([][]float64, len(rows))
	ys := make([]float64, len(rows))
	for i, r := range rows {
		xs[i] = Vectorize(r.Features)
		ys[i] = r.Target
	}
	return xs, ys
}

func predictAll(rows [][]float64, predict func([]float64) float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = predict(row)
	}
	return out
}

func meanAbsoluteError(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}
