package http

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/storm-attribution-service/internal/attribution"
	"github.com/couchcryptid/storm-attribution-service/internal/observability"
)

// Request outcomes recorded in AttributionRequests.
const (
	outcomeOK        = "ok"
	outcomeUndefined = "undefined"
	outcomeInvalid   = "invalid"
)

// ObservationSource supplies the live extreme-storm counts.
// pipeline.Tally implements it.
type ObservationSource interface {
	Observation() attribution.Observation
}

// AttributionHandler serves the estimator over HTTP.
type AttributionHandler struct {
	source       ObservationSource
	defaultAlpha float64
	metrics      *observability.Metrics
}

// NewAttributionHandler creates the handler. source may be nil, in which case
// /observed responds 503.
func NewAttributionHandler(source ObservationSource, defaultAlpha float64, metrics *observability.Metrics) *AttributionHandler {
	return &AttributionHandler{source: source, defaultAlpha: defaultAlpha, metrics: metrics}
}

func (h *AttributionHandler) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/attribution/joint", h.handleJoint)
	mux.HandleFunc("GET /api/v1/attribution/risk", h.handleRisk)
	mux.HandleFunc("GET /api/v1/attribution/interval", h.handleInterval)
	mux.HandleFunc("GET /api/v1/attribution/sweep", h.handleSweep)
	mux.HandleFunc("GET /api/v1/attribution/observed", h.handleObserved)
}

type intervalResponse struct {
	Defined bool     `json:"defined"`
	Lower   *float64 `json:"lower,omitempty"`
	Upper   *float64 `json:"upper,omitempty"`
}

type observedResponse struct {
	attribution.Observation
	attribution.Estimate
}

func (h *AttributionHandler) handleJoint(w http.ResponseWriter, r *http.Request) {
	p := params(r.URL.Query())
	x, y := p.count("x"), p.count("y")
	mu := p.positive("mu")
	beta := p.positive("beta")
	t1, t2 := p.positive("t1"), p.positive("t2")
	if p.err != nil {
		h.invalid(w, "joint", p.err)
		return
	}
	prob := attribution.JointProbability(x, y, mu, beta, t1, t2)
	if !finite(prob) {
		h.undefined(w, "joint", "joint probability is not representable for these parameters")
		return
	}
	h.ok(w, "joint", outcomeOK, map[string]float64{"probability": prob})
}

func (h *AttributionHandler) handleRisk(w http.ResponseWriter, r *http.Request) {
	p := params(r.URL.Query())
	x, y := p.count("x"), p.count("y")
	tau := p.positive("tau")
	if p.err != nil {
		h.invalid(w, "risk", p.err)
		return
	}
	if y == 0 {
		h.undefined(w, "risk", "attributable risk is undefined when the comparison count is zero")
		return
	}
	risk := attribution.AttributableRisk(x, y, tau)
	if !finite(risk) {
		h.undefined(w, "risk", "attributable risk overflows for these parameters")
		return
	}
	h.ok(w, "risk", outcomeOK, map[string]float64{"risk": risk})
}

func (h *AttributionHandler) handleInterval(w http.ResponseWriter, r *http.Request) {
	p := params(r.URL.Query())
	x, y := p.count("x"), p.count("y")
	alpha := p.alpha("alpha", h.defaultAlpha)
	tau := p.positive("tau")
	if p.err != nil {
		h.invalid(w, "interval", p.err)
		return
	}

	ci, ok := attribution.ConfidenceInterval(x, y, alpha, tau)
	if !ok {
		h.ok(w, "interval", outcomeUndefined, intervalResponse{})
		return
	}
	h.ok(w, "interval", outcomeOK, intervalResponse{Defined: true, Lower: &ci.Lower, Upper: &ci.Upper})
}

func (h *AttributionHandler) handleSweep(w http.ResponseWriter, r *http.Request) {
	p := params(r.URL.Query())
	x, y := p.count("x"), p.count("y")
	alpha := p.alpha("alpha", h.defaultAlpha)
	taus := p.taus("tau")
	if p.err != nil {
		h.invalid(w, "sweep", p.err)
		return
	}
	h.ok(w, "sweep", outcomeOK, map[string][]attribution.SweepPoint{
		"points": attribution.Sweep(x, y, alpha, taus),
	})
}

func (h *AttributionHandler) handleObserved(w http.ResponseWriter, r *http.Request) {
	p := params(r.URL.Query())
	alpha := p.alpha("alpha", h.defaultAlpha)
	if p.err != nil {
		h.invalid(w, "observed", p.err)
		return
	}
	if h.source == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no observation source configured"})
		return
	}

	obs := h.source.Observation()
	est := obs.Estimate(alpha)
	outcome := outcomeOK
	if est.Interval == nil {
		outcome = outcomeUndefined
	}
	h.ok(w, "observed", outcome, observedResponse{Observation: obs, Estimate: est})
}

func (h *AttributionHandler) ok(w http.ResponseWriter, endpoint, outcome string, v any) {
	h.count(endpoint, outcome)
	writeJSON(w, http.StatusOK, v)
}

func (h *AttributionHandler) invalid(w http.ResponseWriter, endpoint string, err error) {
	h.count(endpoint, outcomeInvalid)
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func (h *AttributionHandler) undefined(w http.ResponseWriter, endpoint, msg string) {
	h.count(endpoint, outcomeUndefined)
	writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": msg})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (h *AttributionHandler) count(endpoint, outcome string) {
	if h.metrics != nil {
		h.metrics.AttributionRequests.WithLabelValues(endpoint, outcome).Inc()
	}
}

// queryParams parses numeric query parameters, keeping the first error.
type queryParams struct {
	values url.Values
	err    error
}

func params(v url.Values) *queryParams {
	return &queryParams{values: v}
}

func (p *queryParams) float(name string) (float64, bool) {
	if p.err != nil {
		return 0, false
	}
	s := p.values.Get(name)
	if s == "" {
		p.err = fmt.Errorf("missing parameter %q", name)
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.err = fmt.Errorf("parameter %q must be a finite number", name)
		return 0, false
	}
	return v, true
}

func (p *queryParams) count(name string) float64 {
	v, ok := p.float(name)
	if ok && v < 0 {
		p.err = fmt.Errorf("parameter %q must be non-negative", name)
	}
	return v
}

func (p *queryParams) positive(name string) float64 {
	v, ok := p.float(name)
	if ok && v <= 0 {
		p.err = fmt.Errorf("parameter %q must be positive", name)
	}
	return v
}

func (p *queryParams) alpha(name string, def float64) float64 {
	if p.err == nil && p.values.Get(name) == "" {
		return def
	}
	v, ok := p.float(name)
	if ok && (v <= 0 || v >= 1) {
		p.err = fmt.Errorf("parameter %q must be between 0 and 1 (exclusive)", name)
	}
	return v
}

// taus parses a comma-separated list, falling back to the default sweep.
func (p *queryParams) taus(name string) []float64 {
	if p.err != nil {
		return nil
	}
	s := p.values.Get(name)
	if s == "" {
		return attribution.DefaultTaus
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || !(v > 0) || math.IsInf(v, 0) {
			p.err = fmt.Errorf("parameter %q must be a list of positive numbers", name)
			return nil
		}
		out = append(out, v)
	}
	return out
}
