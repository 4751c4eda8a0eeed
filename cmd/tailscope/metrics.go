package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// serveMetrics exposes the prometheus registry when a listen address
// was configured.
func serveMetrics() {
	if metricsAddr == "" {
		return
	}

	log.Infof("Serving metrics on http://%s/metrics", metricsAddr)

	go func() {
		http.Handle("/metrics", promhttp.Handler())

		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			log.Errorf("metrics server: %s", err)
		}
	}()
}
