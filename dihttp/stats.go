package dihttp

import (
	"net/http"

	json "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sectrean/dicore"
)

// StatsHandler returns a handler that writes the [di.PerformanceStats] of the Container as JSON.
func StatsHandler(c *di.Container) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c.GetPerformanceStats())
	})
}

// MetricsHandler returns a handler that serves the Container statistics in the
// Prometheus exposition format.
//
// Each call registers a collector with a new registry. To export the statistics with
// other metrics, register [di.Container.Collector] with your own registry instead.
func MetricsHandler(c *di.Container) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c.Collector()); err != nil {
		return nil, err
	}

	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}
