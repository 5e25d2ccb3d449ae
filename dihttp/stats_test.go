package dihttp_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectrean/dicore"
	"github.com/sectrean/dicore/dihttp"
	"github.com/sectrean/dicore/internal/testtypes"
)

func Test_StatsHandler(t *testing.T) {
	c, err := di.NewContainer()
	require.NoError(t, err)
	require.NoError(t, di.Register[testtypes.InterfaceA](c, testtypes.NewInterfaceA))

	_ = di.MustGet[testtypes.InterfaceA](c)
	_ = di.MustGet[testtypes.InterfaceA](c)

	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/di", http.NoBody)
	dihttp.StatsHandler(c).ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))

	var got di.PerformanceStats
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))

	assert.Equal(t, int64(2), got.TotalResolutions)
	assert.Equal(t, int64(1), got.CacheHits)
	assert.Equal(t, int64(1), got.CacheMisses)
	assert.Equal(t, 1, got.CacheSize)
}

func Test_MetricsHandler(t *testing.T) {
	c, err := di.NewContainer()
	require.NoError(t, err)
	require.NoError(t, di.Register[testtypes.InterfaceA](c, testtypes.NewInterfaceA))

	_ = di.MustGet[testtypes.InterfaceA](c)

	h, err := dihttp.MetricsHandler(c)
	require.NoError(t, err)

	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	h.ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)

	body := res.Body.String()
	assert.Contains(t, body, `di_resolutions_total{container_id="`+c.ID()+`"} 1`)
	assert.Contains(t, body, `di_cache_entries{container_id="`+c.ID()+`"} 1`)
}
