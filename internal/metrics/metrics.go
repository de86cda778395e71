package metrics

/*
unirun — batch recon automation and root-domain extraction in Go
Copyright (C) 2026  trinity999

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	registry           = prometheus.NewRegistry()
	defaultRegisterer  = promauto.With(registry)
	metricsInitialized sync.Once
	metricsEnabled     bool
	metricsServer      *http.Server
)

// Metrics contains all the Prometheus metrics for the application.
type Metrics struct {
	// Batch runner metrics
	CommandDuration *prometheus.HistogramVec
	CommandsTotal   *prometheus.CounterVec

	// Extraction metrics
	ExtractionDuration prometheus.Histogram
	SourcesTotal       prometheus.Counter
	DomainsFoundTotal  prometheus.Counter
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics returns the global metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics()
	})
	return globalMetrics
}

// EnableMetrics enables metrics collection.
func EnableMetrics() {
	metricsEnabled = true
}

// IsMetricsEnabled returns whether metrics collection is enabled.
func IsMetricsEnabled() bool {
	return metricsEnabled
}

func newMetrics() *Metrics {
	buckets := []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

	return &Metrics{
		CommandDuration: defaultRegisterer.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "unirun_command_duration_seconds",
				Help:    "Wall time of external commands per client directory",
				Buckets: buckets,
			},
			[]string{"dir", "status"},
		),
		CommandsTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unirun_commands_total",
				Help: "Total number of external commands executed",
			},
			[]string{"status"},
		),
		ExtractionDuration: defaultRegisterer.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "unirun_extraction_duration_seconds",
				Help:    "Time spent extracting root domains per source file",
				Buckets: buckets,
			},
		),
		SourcesTotal: defaultRegisterer.NewCounter(
			prometheus.CounterOpts{
				Name: "unirun_sources_processed_total",
				Help: "Total number of source files processed",
			},
		),
		DomainsFoundTotal: defaultRegisterer.NewCounter(
			prometheus.CounterOpts{
				Name: "unirun_domains_found_total",
				Help: "Total number of unique root domains written",
			},
		),
	}
}

// ObserveCommand records one external command invocation.
func ObserveCommand(dir, status string, elapsed time.Duration) {
	if !metricsEnabled {
		return
	}
	m := GetMetrics()
	m.CommandDuration.WithLabelValues(dir, status).Observe(elapsed.Seconds())
	m.CommandsTotal.WithLabelValues(status).Inc()
}

// ObserveExtraction records one processed source file.
func ObserveExtraction(domains int, elapsed time.Duration) {
	if !metricsEnabled {
		return
	}
	m := GetMetrics()
	m.ExtractionDuration.Observe(elapsed.Seconds())
	m.SourcesTotal.Inc()
	m.DomainsFoundTotal.Add(float64(domains))
}

// StartMetricsServer starts an HTTP server exposing Prometheus metrics.
func StartMetricsServer(addr string) error {
	if !metricsEnabled {
		return nil
	}

	metricsInitialized.Do(func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

		metricsServer = &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		go func() {
			log.Info().Str("addr", addr).Msg("starting metrics server")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server error")
			}
		}()
	})

	return nil
}

// ShutdownMetricsServer gracefully shuts down the metrics server.
func ShutdownMetricsServer(ctx context.Context) error {
	if metricsServer != nil {
		return metricsServer.Shutdown(ctx)
	}
	return nil
}
