package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emuka/emuka/pkg/config"
	"github.com/emuka/emuka/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestHandlerRoutes(t *testing.T) {
	conf := config.Monitoring{URLPrefix: "/emuka", MetricEnabled: true}
	h := handler(conf, "localhost", logger.Discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/emuka/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/emuka/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIsEnabled(t *testing.T) {
	assert.False(t, (&config.Monitoring{}).IsEnabled())
	assert.True(t, (&config.Monitoring{ProfilingEnabled: true}).IsEnabled())
}
