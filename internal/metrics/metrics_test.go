package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestCheckIn_Counts(t *testing.T) {
	before := counterValue(t, checkIns.WithLabelValues("CODE", "already_marked"))
	CheckIns{}.CheckIn("CODE", "already_marked")
	CheckIns{}.CheckIn("CODE", "already_marked")
	assert.Equal(t, before+2, counterValue(t, checkIns.WithLabelValues("CODE", "already_marked")))
}

func TestMiddleware_ObservesRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/events-upcoming", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/events-upcoming", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	var m dto.Metric
	obs, err := httpDuration.GetMetricWithLabelValues(http.MethodGet, "/events-upcoming", "200")
	require.NoError(t, err)
	require.NoError(t, obs.(prometheus.Metric).Write(&m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))

	obs, err = httpDuration.GetMetricWithLabelValues(http.MethodGet, "unmatched", "404")
	require.NoError(t, err)
	m.Reset()
	require.NoError(t, obs.(prometheus.Metric).Write(&m))
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
}
