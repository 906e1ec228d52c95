package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSettlement(t *testing.T) {
	p := NewPrometheusAdapter()
	before := testutil.ToFloat64(settlementsTotal.WithLabelValues("TradeIn", "completed"))

	p.RecordSettlement("TradeIn", "completed")
	p.RecordSettlement("TradeIn", "completed")

	after := testutil.ToFloat64(settlementsTotal.WithLabelValues("TradeIn", "completed"))
	assert.Equal(t, before+2, after)
}

func TestRecordMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewPrometheusAdapter()

	r := gin.New()
	r.GET("/bikes/:id", func(c *gin.Context) {
		defer p.RecordMetrics(c, time.Now())
		c.Status(http.StatusNotFound)
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/bikes/:id", "404")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bikes/12", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
