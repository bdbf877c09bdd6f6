package batch

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// runMetrics lives on a private registry so that every run exports only its
// own numbers.
type runMetrics struct {
	registry *prometheus.Registry

	imagesTotal        *prometheus.CounterVec
	imageDuration      *prometheus.HistogramVec
	regionsTotal       prometheus.Counter
	regionFailures     prometheus.Counter
	regionsPerImage    prometheus.Histogram
	runDuration        prometheus.Gauge
	lastRunTimestamp   prometheus.Gauge
	eligibleImages     prometheus.Gauge
	directoryEntries   prometheus.Gauge
	reportedImageCount prometheus.Gauge
}

func newRunMetrics() *runMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &runMetrics{
		registry: reg,
		imagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ocrbatch_images_total",
				Help: "Images handled, by outcome",
			},
			[]string{"outcome"}, // processed, decode_failed, detect_failed
		),
		imageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ocrbatch_image_duration_seconds",
				Help:    "Time spent per image in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25},
			},
			[]string{"outcome"},
		),
		regionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocrbatch_regions_total",
			Help: "Text regions detected",
		}),
		regionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ocrbatch_region_failures_total",
			Help: "Regions whose crop or recognition failed",
		}),
		regionsPerImage: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ocrbatch_regions_per_image",
			Help:    "Number of text regions detected per image",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ocrbatch_run_duration_seconds",
			Help: "Duration of the last run in seconds",
		}),
		lastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ocrbatch_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		eligibleImages: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ocrbatch_eligible_images",
			Help: "Files that passed the identifier filter",
		}),
		directoryEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ocrbatch_directory_entries",
			Help: "Entries found in the input directory",
		}),
		reportedImageCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ocrbatch_report_images",
			Help: "Entries written to the report",
		}),
	}
}

func (m *runMetrics) observeImage(outcome string, d time.Duration) {
	m.imagesTotal.WithLabelValues(outcome).Inc()
	m.imageDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *runMetrics) observeRegions(n, failed int) {
	m.regionsTotal.Add(float64(n))
	m.regionFailures.Add(float64(failed))
	m.regionsPerImage.Observe(float64(n))
}

func (m *runMetrics) finish(res *Result) {
	m.runDuration.Set(res.Duration.Seconds())
	m.lastRunTimestamp.SetToCurrentTime()
	m.eligibleImages.Set(float64(res.Stats.Eligible))
	m.directoryEntries.Set(float64(res.Stats.Entries))
	m.reportedImageCount.Set(float64(len(res.Records)))
}

// writeTextfile writes the registry for the node exporter textfile collector.
func (m *runMetrics) writeTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
