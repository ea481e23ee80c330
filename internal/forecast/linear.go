package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Standardizer centers and scales feature columns to zero mean and unit
// variance. Fitted on the training split only; the same parameters are
// persisted with the model and reapplied at inference.
type Standardizer struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitStandardizer computes per-column mean and standard deviation.
// Constant columns keep a scale of one so transformation is a no-op.
func FitStandardizer(rows [][]float64) *Standardizer {
	if len(rows) == 0 {
		return &Standardizer{}
	}
	cols := len(rows[0])
	s := &Standardizer{
		Mean: make([]float64, cols),
		Std:  make([]float64, cols),
	}

	for j := 0; j < cols; j++ {
		var sum float64
		for _, row := range rows {
			sum += row[j]
		}
		m := sum / float64(len(rows))

		var ss float64
		for _, row := range rows {
			d := row[j] - m
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(len(rows)))
		if sd == 0 {
			sd = 1
		}

		s.Mean[j] = m
		s.Std[j] = sd
	}

	return s
}

// Transform returns a standardized copy of x.
func (s *Standardizer) Transform(x []float64) []float64 {
	if len(s.Mean) != len(x) {
		return x
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

func (s *Standardizer) transformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.Transform(row)
	}
	return out
}

// LinearModel is an ordinary least squares regressor over standardized
// features. It is the deterministic baseline candidate and wins ties
// against the tree ensembles.
type LinearModel struct {
	Intercept float64   `json:"intercept"`
	Weights   []float64 `json:"weights"`
}

// FitLinear solves minimum-norm least squares via SVD on the design
// matrix with a bias column. The matrix is rank deficient whenever a
// feature column is constant over the training split (a product whose
// price never changed, a short series spanning one quarter), so a
// plain QR solve is not safe here.
func FitLinear(rows [][]float64, targets []float64) (*LinearModel, error) {
	if len(rows) == 0 || len(rows) != len(targets) {
		return nil, fmt.Errorf("linear fit needs matching rows and targets")
	}
	n := len(rows)
	cols := len(rows[0]) + 1

	a := mat.NewDense(n, cols, nil)
	b := make([]float64, n)
	for i, row := range rows {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
		b[i] = targets[i]
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("could not factorize design matrix")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sigma := svd.Values(nil)

	// Singular values below the working-precision cutoff contribute
	// nothing; their directions stay at zero weight.
	tol := 1e-12 * sigma[0]
	coef := make([]float64, len(sigma))
	for k, sv := range sigma {
		if sv <= tol {
			continue
		}
		var dot float64
		for i := 0; i < n; i++ {
			dot += u.At(i, k) * b[i]
		}
		coef[k] = dot / sv
	}

	sol := make([]float64, cols)
	for j := 0; j < cols; j++ {
		var s float64
		for k := range coef {
			s += v.At(j, k) * coef[k]
		}
		sol[j] = s
	}

	model := &LinearModel{
		Intercept: sol[0],
		Weights:   sol[1:],
	}

	return model, nil
}

func (m *LinearModel) Predict(x []float64) float64 {
	y := m.Intercept
	for j, w := range m.Weights {
		if j < len(x) {
			y += w * x[j]
		}
	}
	return y
}
