package batch

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/MeKo-Tech/ocrbatch/internal/cropper"
	"github.com/MeKo-Tech/ocrbatch/internal/utils"
)

// Image outcomes, used as the metrics label.
const (
	outcomeProcessed    = "processed"
	outcomeDecodeFailed = "decode_failed"
	outcomeDetectFailed = "detect_failed"
)

type processor struct {
	det      Detector
	rec      Recognizer
	crop     cropper.Options
	policy   DecodePolicy
	metrics  *runMetrics
	logger   *slog.Logger
	progress ProgressCallback

	statsMu sync.Mutex
	stats   *Stats
}

func (p *processor) count(fn func(s *Stats)) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	fn(p.stats)
}

// processImage runs one image through detect, crop and recognize. It returns
// nil when the image is to be left out of the report.
func (p *processor) processImage(ctx context.Context, dir, name string) *ImageRecord {
	p.progress.OnImage(name)
	start := time.Now()
	logger := p.logger.With("image", name)

	img, _, err := utils.LoadImage(filepath.Join(dir, name))
	if err != nil {
		logger.Warn("image could not be decoded", "error", err, "policy", string(p.policy))
		p.count(func(s *Stats) { s.DecodeFailures++ })
		p.metrics.observeImage(outcomeDecodeFailed, time.Since(start))
		if p.policy == DecodeSkip {
			p.count(func(s *Stats) { s.Skipped++ })
			return nil
		}
		p.count(func(s *Stats) { s.Processed++ })
		return newImageRecord(name, nil, nil)
	}

	quads, err := p.detect(ctx, img)
	if err != nil {
		logger.Warn("text detection failed", "error", err)
		p.count(func(s *Stats) {
			s.DetectFailures++
			s.Processed++
		})
		p.metrics.observeImage(outcomeDetectFailed, time.Since(start))
		return newImageRecord(name, nil, nil)
	}

	boxes := cropper.NormalizeAll(quads, img.Bounds(), p.crop)
	words := make([]string, len(boxes))
	failed := 0
	for i, b := range boxes {
		text, err := p.recognizeRegion(ctx, img, b)
		if err != nil {
			failed++
			logger.Warn("region recognition failed", "region", i, "box", b.String(), "error", err)
		} else {
			logger.Debug("region recognized", "region", i, "box", b.String(), "text", text)
		}
		words[i] = text
	}

	p.count(func(s *Stats) {
		s.Processed++
		s.Regions += len(boxes)
		s.RecognitionFailures += failed
	})
	p.metrics.observeRegions(len(boxes), failed)
	p.metrics.observeImage(outcomeProcessed, time.Since(start))
	return newImageRecord(name, words, boxes)
}

// detect calls the detector, turning a panic into an error.
func (p *processor) detect(ctx context.Context, img image.Image) (quads []utils.Quad, err error) {
	defer func() {
		if r := recover(); r != nil {
			quads, err = nil, fmt.Errorf("detector panic: %v", r)
		}
	}()
	return p.det.Detect(ctx, img)
}

// recognizeRegion crops b out of img and recognizes it. Any failure, panics
// included, yields an empty string together with the cause.
func (p *processor) recognizeRegion(ctx context.Context, img image.Image, b cropper.Box) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("recognizer panic: %v", r)
		}
	}()

	region, err := cropper.Crop(img, b)
	if err != nil {
		return "", err
	}
	text, err = p.rec.Recognize(ctx, region)
	if err != nil {
		return "", err
	}
	return text, nil
}
