// Package forecast generates demand forecasts from ingested sales history.
package forecast

import (
	"math"
	"time"
)

// Point is one day of aggregated demand.
type Point struct {
	Date  time.Time
	Value float64
}

// Prediction is one forecasted day with a 95% confidence band.
type Prediction struct {
	Date  time.Time
	Value float64
	Lower float64
	Upper float64
}

// Forecaster turns a daily demand history into future predictions.
type Forecaster interface {
	Name() string
	Version() string
	Forecast(history []Point, horizon int) []Prediction
}

// ExponentialSmoothing is a single-parameter smoother. The forecast is the
// final smoothed level held flat over the horizon; the confidence band
// grows with the standard deviation of the one-step residuals.
type ExponentialSmoothing struct {
	Alpha float64
}

func NewExponentialSmoothing() *ExponentialSmoothing {
	return &ExponentialSmoothing{Alpha: 0.3}
}

func (e *ExponentialSmoothing) Name() string {
	return "exponential_smoothing"
}

func (e *ExponentialSmoothing) Version() string {
	return "1.0"
}

func (e *ExponentialSmoothing) Forecast(history []Point, horizon int) []Prediction {
	if len(history) == 0 || horizon <= 0 {
		return nil
	}

	alpha := e.Alpha
	if alpha <= 0 || alpha > 1 {
		alpha = 0.3
	}

	level := history[0].Value
	var residuals []float64
	for _, p := range history[1:] {
		residuals = append(residuals, p.Value-level)
		level = alpha*p.Value + (1-alpha)*level
	}

	sigma := stddev(residuals)
	last := history[len(history)-1].Date

	predictions := make([]Prediction, horizon)
	for i := 0; i < horizon; i++ {
		// The band widens with the horizon under a random-walk error model.
		band := 1.96 * sigma * math.Sqrt(float64(i+1))
		predictions[i] = Prediction{
			Date:  last.AddDate(0, 0, i+1),
			Value: level,
			Lower: math.Max(0, level-band),
			Upper: level + band,
		}
	}
	return predictions
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)-1))
}
