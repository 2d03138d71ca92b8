// Package metrics exposes detection and calibration statistics to
// Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application collectors on a private registry.
type Metrics struct {
	detections   prometheus.Counter
	coinsFound   prometheus.Counter
	objects      prometheus.Counter
	rejections   *prometheus.CounterVec
	passes       *prometheus.HistogramVec
	duration     prometheus.Histogram
	calibrations *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with its collectors registered.
func New() *Metrics {
	m := &Metrics{
		detections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coin_measure_detections_total",
			Help: "Total detection runs completed",
		}),
		coinsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coin_measure_coins_found_total",
			Help: "Detection runs that found a reference coin",
		}),
		objects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coin_measure_objects_detected_total",
			Help: "Total objects returned by detection, coin included",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coin_measure_contours_rejected_total",
			Help: "Contours rejected by the shape analyzer",
		}, []string{"reason"}),
		passes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coin_measure_pass_duration_seconds",
			Help:    "Duration of one detection pass",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"pass"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coin_measure_detection_duration_seconds",
			Help:    "End-to-end detection duration, runtime wait included",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		calibrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coin_measure_calibrations_total",
			Help: "Calibrations applied, by source",
		}, []string{"source"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coin_measure_tool_calls_total",
			Help: "MCP tool calls, by tool and outcome",
		}, []string{"tool", "outcome"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.detections,
		m.coinsFound,
		m.objects,
		m.rejections,
		m.passes,
		m.duration,
		m.calibrations,
		m.toolCalls,
		collectors.NewGoCollector(),
	)
	return m
}

// ObservePass records the duration of one detection pass.
func (m *Metrics) ObservePass(pass string, elapsed time.Duration, _ int) {
	m.passes.WithLabelValues(pass).Observe(elapsed.Seconds())
}

// ObserveRejection counts a contour rejected for reason.
func (m *Metrics) ObserveRejection(reason string) {
	m.rejections.WithLabelValues(reason).Inc()
}

// ObserveDetection records a completed detection run.
func (m *Metrics) ObserveDetection(elapsed time.Duration, objects int, coinFound bool) {
	m.detections.Inc()
	m.objects.Add(float64(objects))
	if coinFound {
		m.coinsFound.Inc()
	}
	m.duration.Observe(elapsed.Seconds())
}

// ObserveCalibration counts a calibration by source: coin, object, distance,
// two_point or ppm.
func (m *Metrics) ObserveCalibration(source string) {
	m.calibrations.WithLabelValues(source).Inc()
}

// ObserveToolCall counts a tool call and whether it failed.
func (m *Metrics) ObserveToolCall(tool string, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve serves /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
