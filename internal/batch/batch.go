// Package batch drives the OCR run: it scans a directory, keeps the images
// whose stem is listed in the identifier file, runs detection and per-region
// recognition over each one and writes a single JSON report.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MeKo-Tech/ocrbatch/internal/cropper"
	"github.com/MeKo-Tech/ocrbatch/internal/filter"
	"github.com/MeKo-Tech/ocrbatch/internal/utils"
)

// Detector returns the text regions of an image.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]utils.Quad, error)
}

// Recognizer reads the text of a single cropped region.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// DecodePolicy decides what happens to images that cannot be decoded.
type DecodePolicy string

const (
	// DecodeRecord keeps the image in the report with empty words and boxes.
	DecodeRecord DecodePolicy = "record"
	// DecodeSkip leaves the image out of the report.
	DecodeSkip DecodePolicy = "skip"
)

// Options configures a run.
type Options struct {
	InputDir   string
	IDsFile    string
	OutputFile string

	// Extensions restricts eligible files; empty accepts any extension.
	Extensions []string
	Padding    int
	ClampBoxes bool

	OnDecodeError DecodePolicy
	Workers       int

	// Progress receives one call per processed image. Nil means silent.
	Progress ProgressCallback
	// MetricsFile, when set, receives the run metrics in Prometheus text format.
	MetricsFile string
}

// DefaultOptions returns options matching the classic driver: .png only,
// padding 5, one worker.
func DefaultOptions() Options {
	return Options{
		Extensions:    []string{".png"},
		Padding:       cropper.DefaultPadding,
		ClampBoxes:    true,
		OnDecodeError: DecodeRecord,
		Workers:       1,
	}
}

// Validate checks the options before any file is touched.
func (o Options) Validate() error {
	if o.InputDir == "" {
		return errors.New("input directory is required")
	}
	if o.IDsFile == "" {
		return fmt.Errorf("identifier file is required: %w", filter.ErrEmptyPath)
	}
	if o.OutputFile == "" {
		return errors.New("output file is required")
	}
	if o.Padding < 0 {
		return fmt.Errorf("padding must not be negative, got %d", o.Padding)
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", o.Workers)
	}
	switch o.OnDecodeError {
	case "", DecodeRecord, DecodeSkip:
	default:
		return fmt.Errorf("unknown decode policy %q", o.OnDecodeError)
	}
	return nil
}

// Result is the outcome of a completed run.
type Result struct {
	RunID    string
	Records  []ImageRecord
	Stats    Stats
	Duration time.Duration
}

// Run executes the batch. Collaborator failures are contained per image and
// per region; only startup problems, cancellation and a failed report write
// abort the run. The report is written once, after every image is processed.
func Run(ctx context.Context, opts Options, det Detector, rec Recognizer) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if det == nil || rec == nil {
		return nil, errors.New("detector and recognizer are required")
	}
	if opts.OnDecodeError == "" {
		opts.OnDecodeError = DecodeRecord
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	progress := opts.Progress
	if progress == nil {
		progress = NoOpProgressCallback{}
	}

	runID := uuid.NewString()
	logger := slog.Default().With("run_id", runID)
	start := time.Now()
	logger.Info("batch run started", "input", opts.InputDir, "ids", opts.IDsFile, "workers", opts.Workers)

	ids, err := filter.LoadIdentifiers(opts.IDsFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("identifiers loaded", "count", ids.Len())

	stats := &Stats{}
	names, err := scanDirectory(opts.InputDir, filter.New(ids, opts.Extensions), stats)
	if err != nil {
		return nil, err
	}

	metrics := newRunMetrics()
	p := &processor{
		det:      det,
		rec:      rec,
		crop:     cropper.Options{Padding: opts.Padding, ClampToImage: opts.ClampBoxes},
		policy:   opts.OnDecodeError,
		stats:    stats,
		metrics:  metrics,
		logger:   logger,
		progress: progress,
	}

	progress.OnStart(len(names))
	records, err := p.processAll(ctx, opts.InputDir, names, opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("batch processing aborted: %w", err)
	}

	if err := WriteReport(opts.OutputFile, records); err != nil {
		return nil, err
	}
	progress.OnComplete(opts.OutputFile)

	res := &Result{
		RunID:    runID,
		Records:  records,
		Stats:    stats.snapshot(),
		Duration: time.Since(start),
	}
	res.Stats.Duration = res.Duration

	if opts.MetricsFile != "" {
		metrics.finish(res)
		if err := metrics.writeTextfile(opts.MetricsFile); err != nil {
			logger.Warn("failed to write metrics", "file", opts.MetricsFile, "error", err)
		}
	}

	logger.Info("batch run finished",
		"images", res.Stats.Processed,
		"regions", res.Stats.Regions,
		"output", opts.OutputFile,
		"duration", res.Duration.Round(time.Millisecond))
	return res, nil
}
