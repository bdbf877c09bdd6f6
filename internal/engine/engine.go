// Package engine builds the detector and recognizer selected by the
// configuration.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/ocrbatch/internal/batch"
	"github.com/MeKo-Tech/ocrbatch/internal/config"
	"github.com/MeKo-Tech/ocrbatch/internal/detector"
	"github.com/MeKo-Tech/ocrbatch/internal/models"
	"github.com/MeKo-Tech/ocrbatch/internal/onnx"
	"github.com/MeKo-Tech/ocrbatch/internal/recognizer"
	"github.com/MeKo-Tech/ocrbatch/internal/remote"
	"github.com/MeKo-Tech/ocrbatch/internal/tesseract"
)

// ErrUnknownEngine is returned for engine names other than onnx, remote and tesseract.
var ErrUnknownEngine = errors.New("unknown engine")

// Engine holds the collaborators for one run. Close releases them.
type Engine struct {
	Name       string
	Detector   batch.Detector
	Recognizer batch.Recognizer

	closers []io.Closer
}

// New constructs the collaborators for cfg.Engine.
func New(cfg *config.Config) (*Engine, error) {
	switch cfg.Engine {
	case config.EngineONNX:
		return newONNX(cfg)
	case config.EngineRemote:
		return newRemote(cfg)
	case config.EngineTesseract:
		return newTesseract(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}
}

func newONNX(cfg *config.Config) (*Engine, error) {
	det, err := detector.NewDetector(cfg.ToDetectorConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}
	rec, err := recognizer.NewRecognizer(cfg.ToRecognizerConfig())
	if err != nil {
		_ = det.Close()
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}
	return &Engine{
		Name:       config.EngineONNX,
		Detector:   det,
		Recognizer: rec,
		closers:    []io.Closer{rec, det},
	}, nil
}

func newRemote(cfg *config.Config) (*Engine, error) {
	client, err := remote.New(cfg.ToRemoteConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create remote client: %w", err)
	}
	return &Engine{
		Name:       config.EngineRemote,
		Detector:   client,
		Recognizer: client,
		closers:    []io.Closer{client},
	}, nil
}

func newTesseract(cfg *config.Config) (*Engine, error) {
	e, err := tesseract.New(cfg.ToTesseractConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create tesseract engine: %w", err)
	}
	return &Engine{
		Name:       config.EngineTesseract,
		Detector:   e,
		Recognizer: e,
		closers:    []io.Closer{e},
	}, nil
}

// Close releases every collaborator and joins their errors.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	var errs []error
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// CheckResult describes what Check verified.
type CheckResult struct {
	Engine  string
	Details map[string]string
}

// Check verifies that the selected engine can be initialised without running
// a batch: model files and runtime library for onnx, the health endpoint for
// remote and the linked library for tesseract.
func Check(ctx context.Context, cfg *config.Config) (*CheckResult, error) {
	res := &CheckResult{Engine: cfg.Engine, Details: map[string]string{}}

	switch cfg.Engine {
	case config.EngineONNX:
		det := cfg.ToDetectorConfig()
		rec := cfg.ToRecognizerConfig()
		for key, path := range map[string]string{
			"detector_model":   det.ModelPath,
			"recognizer_model": rec.ModelPath,
		} {
			if err := models.ValidateModelExists(path); err != nil {
				return res, err
			}
			res.Details[key] = path
		}
		if _, err := os.Stat(rec.DictPath); err != nil {
			return res, fmt.Errorf("dictionary not found: %s: %w", rec.DictPath, err)
		}
		res.Details["dictionary"] = rec.DictPath

		lib, err := onnx.Check(cfg.ONNX.LibraryPath, cfg.GPU.Enabled)
		if err != nil {
			return res, err
		}
		res.Details["onnxruntime"] = lib

	case config.EngineRemote:
		client, err := remote.New(cfg.ToRemoteConfig())
		if err != nil {
			return res, err
		}
		defer func() { _ = client.Close() }()
		ok, err := client.Healthz(ctx)
		if err != nil {
			return res, fmt.Errorf("health check failed: %w", err)
		}
		if !ok {
			return res, fmt.Errorf("health check failed: %w", remote.ErrUnexpectedStatus)
		}
		res.Details["endpoint"] = cfg.Remote.Endpoint

	case config.EngineTesseract:
		e, err := tesseract.New(cfg.ToTesseractConfig())
		if err != nil {
			return res, err
		}
		res.Details["version"] = e.Version()
		if err := e.Close(); err != nil {
			slog.Warn("failed to close tesseract engine", "error", err)
		}

	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}
	return res, nil
}
