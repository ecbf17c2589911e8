package cost

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// LinearEstimator predicts tokens as Intercept + Slope*chars, rounded up,
// with a minimum of one token.
//
// It is usually produced by Calibrate, which fits the coefficients against
// a precise tokenizer so that the cheap estimate tracks it closely.
type LinearEstimator struct {
	Intercept float64
	Slope     float64
}

var _ Estimator = LinearEstimator{}

// Count implements Estimator. Characters are counted as runes.
func (e LinearEstimator) Count(text string) int {
	n := float64(utf8.RuneCountInString(text))

	return max(1, int(math.Ceil(e.Intercept+e.Slope*n)))
}

// Name implements Estimator.
func (e LinearEstimator) Name() string {
	return fmt.Sprintf("linear(%.3f+%.4f*chars)", e.Intercept, e.Slope)
}

// Calibration is the outcome of fitting a LinearEstimator.
//
// Fields:
//   - Estimator: the fitted estimator
//   - RSquared: coefficient of determination (0-1, higher is better)
//   - RMSE: root mean square error in tokens (lower is better)
//   - Samples: number of samples used
type Calibration struct {
	Estimator LinearEstimator
	RSquared  float64
	RMSE      float64
	Samples   int
}

// String returns a human-readable summary of the fit.
func (c *Calibration) String() string {
	return fmt.Sprintf("Calibration{%s, R²: %.4f, RMSE: %.4f, Samples: %d}",
		c.Estimator.Name(), c.RSquared, c.RMSE, c.Samples)
}

// Calibrate fits tokens = a + b*chars by least squares over samples, using
// ref to count the tokens of each sample.
//
// The fitted slope must be positive so that the estimate stays monotonic in
// the text length; otherwise, and when fewer than two distinct sample
// lengths are given, an error is returned.
func Calibrate(samples []string, ref Estimator) (*Calibration, error) {
	if ref == nil {
		return nil, errors.New("calibrate: nil reference estimator")
	}

	x := make([]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = float64(utf8.RuneCountInString(s))
		y[i] = float64(ref.Count(s))
	}

	a, b, err := fitLinear(x, y)
	if err != nil {
		return nil, err
	}
	if b <= 0 {
		return nil, errors.Newf("calibrate: non-positive slope %.4f", b)
	}

	predicted := make([]float64, len(x))
	for i := range x {
		predicted[i] = a + b*x[i]
	}

	return &Calibration{
		Estimator: LinearEstimator{Intercept: a, Slope: b},
		RSquared:  rSquared(y, predicted),
		RMSE:      rmse(y, predicted),
		Samples:   len(samples),
	}, nil
}

// fitLinear performs simple linear regression y = a + b*x.
func fitLinear(x, y []float64) (a, b float64, err error) {
	n := float64(len(x))
	if len(x) < 2 {
		return 0, 0, errors.Newf("calibrate: need at least 2 samples, got %d", len(x))
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}

	meanX := sumX / n
	meanY := sumY / n
	denom := sumX2 - n*meanX*meanX
	if denom == 0 {
		return 0, 0, errors.New("calibrate: samples must have at least two distinct lengths")
	}
	b = (sumXY - n*meanX*meanY) / denom
	a = meanY - b*meanX

	return a, b, nil
}

// rSquared calculates the coefficient of determination.
//
// Formula: R² = 1 - (SS_res / SS_tot)
func rSquared(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return 0
	}

	mean := 0.0
	for _, v := range observed {
		mean += v
	}
	mean /= float64(len(observed))

	ssTot, ssRes := 0.0, 0.0
	for i := range observed {
		ssTot += (observed[i] - mean) * (observed[i] - mean)
		ssRes += (observed[i] - predicted[i]) * (observed[i] - predicted[i])
	}
	if ssTot == 0 {
		return 0
	}

	return 1.0 - (ssRes / ssTot)
}

// rmse calculates the root mean square error.
func rmse(observed, predicted []float64) float64 {
	if len(observed) == 0 {
		return 0
	}

	sumSq := 0.0
	for i := range observed {
		diff := observed[i] - predicted[i]
		sumSq += diff * diff
	}

	return math.Sqrt(sumSq / float64(len(observed)))
}
