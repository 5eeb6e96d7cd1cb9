package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load pipeline metrics
var (
	LoadJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedata_load_jobs_total",
			Help: "Total number of image load jobs by outcome",
		},
		[]string{"result"}, // "success", "failed", "aborted"
	)

	LoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagedata_load_duration_seconds",
			Help:    "Background duration of image load jobs by phase",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"phase"}, // "decode", "convert", "analyze", "preview", "total"
	)

	LoadsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagedata_loads_in_flight",
			Help: "Number of load jobs scheduled but not yet committed",
		},
	)

	Diagnostics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedata_diagnostics_total",
			Help: "Diagnostics emitted by load jobs by severity",
		},
		[]string{"severity"},
	)

	DisplacedBitmaps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imagedata_displaced_bitmaps_total",
			Help: "Bitmaps disposed because a later commit replaced them",
		},
	)
)

// Texture metrics
var (
	TexturesMaterialized = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagedata_textures_materialized",
			Help: "Number of resource textures currently resident on the device",
		},
	)

	TextureOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedata_texture_operations_total",
			Help: "Texture operations issued to the renderer backend",
		},
		[]string{"operation", "status"},
	)

	DeviceResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "imagedata_device_resets_total",
			Help: "Number of device reset notifications handled",
		},
	)
)

// Interactive thread metrics
var (
	DispatcherQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagedata_dispatcher_queue_depth",
			Help: "Tasks waiting to run on the interactive thread",
		},
	)

	DispatcherDrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imagedata_dispatcher_drain_duration_seconds",
			Help:    "Time spent running posted tasks per drain",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.033, 0.1},
		},
	)

	ResourcesRegistered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagedata_resources_registered",
			Help: "Number of image resources known to the image system",
		},
	)
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first scrape.
func InitializeMetrics() {
	for _, r := range []string{"success", "failed", "aborted"} {
		LoadJobsTotal.WithLabelValues(r)
	}
	for _, p := range []string{"decode", "convert", "analyze", "preview", "total"} {
		LoadDuration.WithLabelValues(p)
	}
	for _, s := range []string{"warning", "error"} {
		Diagnostics.WithLabelValues(s)
	}
	for _, op := range []string{"create", "write", "destroy"} {
		TextureOperations.WithLabelValues(op, "success")
		TextureOperations.WithLabelValues(op, "error")
	}
}
