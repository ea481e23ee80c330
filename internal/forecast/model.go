package forecast

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ahmadmuradi/electronics-store/internal/domain"
)

// ModelArtifact is the persisted form of a trained demand model. One
// artifact per product; retraining replaces it wholesale.
type ModelArtifact struct {
	ProductID       int64            `json:"product_id"`
	Kind            domain.ModelKind `json:"model_type"`
	MAE             float64          `json:"mae"`
	TrainingSamples int              `json:"training_samples"`
	TestSamples     int              `json:"test_samples"`
	TrainedAt       time.Time        `json:"trained_at"`
	FeatureNames    []string         `json:"feature_names"`

	Linear  *LinearModel  `json:"linear,omitempty"`
	Forest  *ForestModel  `json:"forest,omitempty"`
	Boosted *BoostedModel `json:"boosted,omitempty"`

	// Scaler is persisted under its own companion key, not inline.
	Scaler *Standardizer `json:"-"`
}

// Predict applies the winning candidate to a raw feature vector,
// standardizing first when the winner is the linear baseline.
func (a *ModelArtifact) Predict(x []float64) (float64, error) {
	switch a.Kind {
	case domain.ModelLinearRegression:
		if a.Linear == nil {
			return 0, fmt.Errorf("artifact for product %d has no linear parameters", a.ProductID)
		}
		if a.Scaler != nil {
			x = a.Scaler.Transform(x)
		}
		return a.Linear.Predict(x), nil
	case domain.ModelRandomForest:
		if a.Forest == nil {
			return 0, fmt.Errorf("artifact for product %d has no forest parameters", a.ProductID)
		}
		return a.Forest.Predict(x), nil
	case domain.ModelGradientBoosting:
		if a.Boosted == nil {
			return 0, fmt.Errorf("artifact for product %d has no boosting parameters", a.ProductID)
		}
		return a.Boosted.Predict(x), nil
	default:
		return 0, fmt.Errorf("unknown model kind %q", a.Kind)
	}
}

// Report converts the artifact metadata into a training report.
func (a *ModelArtifact) Report() domain.TrainingReport {
	return domain.TrainingReport{
		ProductID:       a.ProductID,
		ModelKind:       a.Kind,
		MAE:             a.MAE,
		TrainingSamples: a.TrainingSamples,
		TestSamples:     a.TestSamples,
		TrainedAt:       a.TrainedAt,
	}
}

// EncodeArtifact serializes an artifact for the object store.
func EncodeArtifact(a *ModelArtifact) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("could not encode model artifact: %w", err)
	}
	return data, nil
}

// DecodeArtifact restores an artifact from its stored bytes.
func DecodeArtifact(data []byte) (*ModelArtifact, error) {
	var a ModelArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("could not decode model artifact: %w", err)
	}
	return &a, nil
}
