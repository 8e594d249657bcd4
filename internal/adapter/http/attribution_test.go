package http_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	httpadapter "github.com/couchcryptid/storm-attribution-service/internal/adapter/http"
	"github.com/couchcryptid/storm-attribution-service/internal/attribution"
	"github.com/couchcryptid/storm-attribution-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource attribution.Observation

func (f fixedSource) Observation() attribution.Observation { return attribution.Observation(f) }

func newAttributionServer(t *testing.T, source httpadapter.ObservationSource) (*httpadapter.Server, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	attr := httpadapter.NewAttributionHandler(source, attribution.DefaultAlpha, metrics)
	return httpadapter.NewServer(":0", &mockReadiness{}, attr, slog.Default()), metrics
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestJoint(t *testing.T) {
	srv, _ := newAttributionServer(t, nil)

	rec := get(srv, "/api/v1/attribution/joint?x=3&y=5&mu=0.2&beta=1.5&t1=20&t2=10")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.01969665045597754, decode(t, rec.Body.Bytes())["probability"], 1e-12)
}

func TestJoint_RateOverflowReturnsZero(t *testing.T) {
	srv, metrics := newAttributionServer(t, nil)

	rec := get(srv, "/api/v1/attribution/joint?x=1&y=1&mu=1e300&beta=1&t1=1e10&t2=1e10")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Body.Bytes())
	assert.Equal(t, 0.0, decode(t, rec.Body.Bytes())["probability"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AttributionRequests.WithLabelValues("joint", "ok")))
}

func TestRisk_OverflowIsUndefined(t *testing.T) {
	srv, metrics := newAttributionServer(t, nil)

	rec := get(srv, "/api/v1/attribution/risk?x=1&y=1&tau=1e-320")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec.Body.Bytes())["error"], "overflows")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AttributionRequests.WithLabelValues("risk", "undefined")))
}

func TestRisk(t *testing.T) {
	srv, metrics := newAttributionServer(t, nil)

	rec := get(srv, "/api/v1/attribution/risk?x=10&y=20&tau=2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.75, decode(t, rec.Body.Bytes())["risk"], 1e-12)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AttributionRequests.WithLabelValues("risk", "ok")))
}

func TestRisk_ZeroComparisonCount(t *testing.T) {
	srv, metrics := newAttributionServer(t, nil)

	rec := get(srv, "/api/v1/attribution/risk?x=3&y=0&tau=1")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec.Body.Bytes())["error"], "comparison count is zero")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AttributionRequests.WithLabelValues("risk", "undefined")))
}

func TestInterval(t *testing.T) {
	srv, _ := newAttributionServer(t, nil)

	rec := get(srv, "/api/v1/attribution/interval?x=10&y=20&alpha=0.05&tau=2")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec.Body.Bytes())
	assert.Equal(t, true, body["defined"])
	assert.InDelta(t, 0.4749908350990315, body["lower"], 1e-9)
	assert.InDelta(t, 0.8809544591249387, body["upper"], 1e-9)
}

func TestInterval_DefaultAlpha(t *testing.T) {
	srv, _ := newAttributionServer(t, nil)

	rec := get(srv, "/api/v1/attribution/interval?x=10&y=20&tau=2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.4749908350990315, decode(t, rec.Body.Bytes())["lower"], 1e-9)
}

func TestInterval_Undefined(t *testing.T) {
	srv, metrics := newAttributionServer(t, nil)

	rec := get(srv, "/api/v1/attribution/interval?x=4&y=0&alpha=0.05&tau=1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"defined":false}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AttributionRequests.WithLabelValues("interval", "undefined")))
}

func TestSweep(t *testing.T) {
	srv, _ := newAttributionServer(t, nil)

	rec := get(srv, "/api/v1/attribution/sweep?x=10&y=20&tau=1,2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Points []attribution.SweepPoint `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Points, 2)
	assert.Equal(t, 1.0, body.Points[0].Tau)
	assert.InDelta(t, 0.5, body.Points[0].Risk, 1e-12)
	assert.True(t, body.Points[1].Defined)
	assert.InDelta(t, 0.4749908350990315, body.Points[1].Interval.Lower, 1e-9)
}

func TestSweep_DefaultTausWithGaps(t *testing.T) {
	srv, _ := newAttributionServer(t, nil)

	rec := get(srv, "/api/v1/attribution/sweep?x=2&y=0")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Points []attribution.SweepPoint `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Points, len(attribution.DefaultTaus))
	for _, pt := range body.Points {
		assert.False(t, pt.Defined, "tau %v", pt.Tau)
	}
}

func TestObserved(t *testing.T) {
	source := fixedSource{Baseline: 1, Comparison: 3, Periods: attribution.Periods{Baseline: 35, Comparison: 35}}
	srv, _ := newAttributionServer(t, source)

	rec := get(srv, "/api/v1/attribution/observed")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec.Body.Bytes())
	assert.Equal(t, 1.0, body["baseline_count"])
	assert.Equal(t, 3.0, body["comparison_count"])
	assert.Equal(t, 1.0, body["tau"])
	assert.Equal(t, 0.05, body["alpha"])
	assert.InDelta(t, 2.0/3.0, body["risk"], 1e-12)
	assert.Contains(t, body, "interval")
}

func TestObserved_NoComparisonEvents(t *testing.T) {
	source := fixedSource{Baseline: 2, Periods: attribution.Periods{Baseline: 35, Comparison: 35}}
	srv, metrics := newAttributionServer(t, source)

	rec := get(srv, "/api/v1/attribution/observed?alpha=0.1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec.Body.Bytes())
	assert.NotContains(t, body, "risk")
	assert.NotContains(t, body, "interval")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AttributionRequests.WithLabelValues("observed", "undefined")))
}

func TestObserved_NoSource(t *testing.T) {
	srv, _ := newAttributionServer(t, nil)

	rec := get(srv, "/api/v1/attribution/observed")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInvalidParameters(t *testing.T) {
	srv, metrics := newAttributionServer(t, nil)

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"missing count", "/api/v1/attribution/risk?x=1&tau=1", `missing parameter "y"`},
		{"not a number", "/api/v1/attribution/risk?x=one&y=2&tau=1", `"x" must be a finite number`},
		{"NaN", "/api/v1/attribution/interval?x=NaN&y=2&tau=1", `"x" must be a finite number`},
		{"negative count", "/api/v1/attribution/interval?x=-1&y=2&tau=1", `"x" must be non-negative`},
		{"zero tau", "/api/v1/attribution/interval?x=1&y=2&tau=0", `"tau" must be positive`},
		{"alpha out of range", "/api/v1/attribution/interval?x=1&y=2&tau=1&alpha=1.5", `"alpha" must be between 0 and 1`},
		{"bad tau list", "/api/v1/attribution/sweep?x=1&y=2&tau=1,-2", `"tau" must be a list of positive numbers`},
		{"bad observed alpha", "/api/v1/attribution/observed?alpha=0", `"alpha" must be between 0 and 1`},
		{"zero rate", "/api/v1/attribution/joint?x=1&y=2&mu=0&beta=1&t1=1&t2=1", `"mu" must be positive`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(srv, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode(t, rec.Body.Bytes())["error"], tt.want)
		})
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AttributionRequests.WithLabelValues("sweep", "invalid")))
}
