package attribution

import "math"

// DefaultAlpha is the confidence level used when none is given.
const DefaultAlpha = 0.05

// DefaultTaus are the period ratios swept when none are given.
var DefaultTaus = []float64{0.5, 1, 2, 3, 4, 5}

// SweepPoint is one evaluation of the estimator at a period ratio.
// Risk and Interval are zero when Defined is false.
type SweepPoint struct {
	Tau      float64  `json:"tau"`
	Risk     float64  `json:"risk"`
	Interval Interval `json:"interval"`
	Defined  bool     `json:"defined"`
}

// Sweep evaluates the point estimate and confidence interval at each tau.
// Points where the interval is undefined are kept as gaps.
func Sweep(x, y, alpha float64, taus []float64) []SweepPoint {
	points := make([]SweepPoint, 0, len(taus))
	for _, tau := range taus {
		p := SweepPoint{Tau: tau}
		if ci, ok := ConfidenceInterval(x, y, alpha, tau); ok {
			p.Risk = AttributableRisk(x, y, tau)
			p.Interval = ci
			p.Defined = true
		}
		points = append(points, p)
	}
	return points
}

// Periods holds the lengths of the baseline and comparison windows, in any
// consistent unit (the service uses years).
type Periods struct {
	Baseline   float64 `json:"baseline"`
	Comparison float64 `json:"comparison"`
}

// Tau returns Baseline / Comparison.
func (p Periods) Tau() float64 {
	return p.Baseline / p.Comparison
}

// Observation is a pair of event counts over two periods.
type Observation struct {
	Baseline   float64 `json:"baseline_count"`
	Comparison float64 `json:"comparison_count"`
	Periods    Periods `json:"periods"`
}

// Estimate is the attribution result for an Observation.
type Estimate struct {
	Tau      float64   `json:"tau"`
	Alpha    float64   `json:"alpha"`
	Risk     *float64  `json:"risk,omitempty"`
	Interval *Interval `json:"interval,omitempty"`
}

// Estimate computes the point estimate and interval for o. Both are nil
// when the comparison period has no events.
func (o Observation) Estimate(alpha float64) Estimate {
	tau := o.Periods.Tau()
	est := Estimate{Tau: tau, Alpha: alpha}

	ci, ok := ConfidenceInterval(o.Baseline, o.Comparison, alpha, tau)
	if !ok {
		return est
	}
	risk := AttributableRisk(o.Baseline, o.Comparison, tau)
	if !math.IsNaN(risk) && !math.IsInf(risk, 0) {
		est.Risk = &risk
	}
	est.Interval = &ci
	return est
}
