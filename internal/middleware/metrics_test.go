package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"site-content-store/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	router := gin.New()
	router.Use(Metrics(m))
	router.GET("/stories/:slug", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/stories/a", "/stories/b", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/stories/:slug", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}
