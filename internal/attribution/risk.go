package attribution

import "math"

// Interval is a two-sided confidence band for attributable risk.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether v lies inside the interval, bounds included.
func (i Interval) Contains(v float64) bool {
	return v >= i.Lower && v <= i.Upper
}

// Width returns Upper - Lower.
func (i Interval) Width() float64 {
	return i.Upper - i.Lower
}

// JointProbability returns Pr(X=x, Y=y) for baseline count x and comparison
// count y, given baseline rate mu, relative risk beta and period lengths t1
// and t2. The mass is evaluated in log space so large counts do not overflow.
// When the expected total or the counts exceed float range the mass
// underflows and the result is 0, never NaN.
func JointProbability(x, y, mu, beta, t1, t2 float64) float64 {
	n := x + y
	logTotal := poissonLogPMF(n, mu*(t1+beta*t2))
	if math.IsInf(logTotal, -1) {
		return 0
	}
	px, py := splitShares(t1/t2, beta)
	logSplit := logBinomial(n, x) + xlogy(x, px) + xlogy(y, py)
	return math.Exp(logTotal + logSplit)
}

// AttributableRisk returns the point estimate 1 - x/(tau*y).
//
// There is no guard for y == 0 or tau == 0: the result is -Inf or NaN as the
// float division dictates. Callers that need an error must check first.
func AttributableRisk(x, y, tau float64) float64 {
	return 1 - x/(tau*y)
}

// ConfidenceInterval returns the two-sided (1-alpha) confidence interval for
// attributable risk given counts x and y and period ratio tau. The boolean
// is false when the interval is undefined: no comparison events, no events
// at all, or parameters outside their domain.
func ConfidenceInterval(x, y, alpha, tau float64) (Interval, bool) {
	if y == 0 || !validInputs(x, y, alpha, tau) {
		return Interval{}, false
	}

	n := x + y
	if x == 0 {
		return ordered(zeroBaselineBounds(n, alpha, tau)), true
	}

	q := x / n
	z := normalQuantile(alpha / 2)
	z2 := z * z

	det := math.Sqrt(q*(1-q) + z2/(4*n))
	a := (x + z2/2) / (n + z2)
	b := z * math.Sqrt(n) / (n + z2)

	// z < 0, so lo is the larger Wilson root and hi the smaller.
	lo := a - b*det
	hi := a + b*det

	betaU := tau * (1 - hi) / hi
	betaL := tau * (1 - lo) / lo

	return ordered(1-1/betaL, 1-1/betaU), true
}

// zeroBaselineBounds handles x == 0, where the Wilson bound collapses and the
// exact bound alpha^(1/n) on the proportion is used instead.
func zeroBaselineBounds(n, alpha, tau float64) (lower, upper float64) {
	r := math.Pow(alpha, 1/n)
	upper = 1 - r
	lower = 1 - (1-r)/(tau*r)
	return lower, upper
}

// ordered builds an Interval with Lower <= Upper. The zero-baseline branch
// yields its bounds in reverse order for tau > 0, so they are swapped here.
func ordered(lower, upper float64) Interval {
	if lower > upper {
		lower, upper = upper, lower
	}
	return Interval{Lower: lower, Upper: upper}
}

func validInputs(x, y, alpha, tau float64) bool {
	switch {
	case math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(alpha) || math.IsNaN(tau):
		return false
	case math.IsInf(x, 0) || math.IsInf(y, 0) || math.IsInf(tau, 0):
		return false
	case x < 0 || y < 0:
		return false
	case alpha <= 0 || alpha >= 1:
		return false
	case tau <= 0:
		return false
	}
	return true
}
