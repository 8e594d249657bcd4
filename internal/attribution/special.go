package attribution

import "math"

// normalQuantile returns Φ⁻¹(p) for the standard normal distribution.
func normalQuantile(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	if p >= 1 {
		return math.Inf(1)
	}
	return math.Sqrt2 * math.Erfinv(2*p-1)
}

// logFactorial returns ln(n!) = lnΓ(n+1). Non-integer n is accepted.
func logFactorial(n float64) float64 {
	v, _ := math.Lgamma(n + 1)
	return v
}

// logBinomial returns ln C(n, k).
func logBinomial(n, k float64) float64 {
	return logFactorial(n) - logFactorial(k) - logFactorial(n-k)
}

// poissonLogPMF returns ln Pr(N=k) for N ~ Poisson(lambda). An infinite rate
// or a count whose log-factorial overflows yields -Inf, the limit of the mass.
func poissonLogPMF(k, lambda float64) float64 {
	lf := logFactorial(k)
	if math.IsInf(lambda, 1) || math.IsInf(lf, 1) {
		return math.Inf(-1)
	}
	return xlogy(k, lambda) - lambda - lf
}

// splitShares returns tau/(tau+beta) and beta/(tau+beta) without forming the
// sum, so neither share overflows to Inf/Inf.
func splitShares(tau, beta float64) (baseline, comparison float64) {
	if tau >= beta {
		q := beta / tau
		return 1 / (1 + q), q / (1 + q)
	}
	r := tau / beta
	return r / (1 + r), 1 / (1 + r)
}

// xlogy returns x*ln(y), defined as 0 when x == 0 so that p^0 == 1 even for p == 0.
func xlogy(x, y float64) float64 {
	if x == 0 {
		return 0
	}
	return x * math.Log(y)
}
