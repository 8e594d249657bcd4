// Package attribution estimates how much of an observed rise in extreme
// events can be attributed to a change in the underlying event rate.
//
// # Model
//
// Events in a baseline period of length T1 and a comparison period of length
// T2 are modelled as independent Poisson processes with rates μ and βμ. The
// total count x+y is then Poisson with mean μ(T1+βT2), and given the total,
// the baseline count x is Binomial with success probability τ/(τ+β), where
// τ = T1/T2 (Hansen et al., 2014).
//
// # Attributable risk
//
// With β estimated as τy/x, attributable risk is 1 - 1/β = 1 - x/(τy): the
// probability that an event in the comparison period would not have
// happened at the baseline rate.
//
// # Confidence interval
//
// The interval is built on the binomial proportion q = x/(x+y) with a
// Wilson-score bound, then mapped through β = τ(1-q)/q and p = 1 - 1/β.
// When x is zero the Wilson bound degenerates and the exact one-sided bound
// α^(1/n) is used instead.
//
// All functions are pure and safe for concurrent use.
package attribution
