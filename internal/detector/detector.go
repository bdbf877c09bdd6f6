// Package detector locates text regions with a DB (differentiable
// binarization) ONNX model.
package detector

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/ocrbatch/internal/mempool"
	"github.com/MeKo-Tech/ocrbatch/internal/onnx"
	"github.com/MeKo-Tech/ocrbatch/internal/utils"
)

var (
	imageNetMean = [3]float32{0.485, 0.456, 0.406}
	imageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// Detector runs text detection only. It never classifies or recognizes.
type Detector struct {
	config  Config
	session *onnx.Session
}

// NewDetector loads the detection model.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	session, err := onnx.NewSession(onnx.SessionConfig{
		ModelPath:   cfg.ModelPath,
		LibraryPath: cfg.LibraryPath,
		NumThreads:  cfg.NumThreads,
		GPU:         cfg.GPU,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create detector session: %w", err)
	}
	slog.Debug("Detector initialized", "model_path", cfg.ModelPath, "gpu_enabled", cfg.GPU.UseGPU)
	return &Detector{config: cfg, session: session}, nil
}

// Detect returns the text regions of img in reading order, as quads in
// original image coordinates.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]utils.Quad, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	regions, err := d.detectRegions(img)
	if err != nil {
		return nil, err
	}
	quads := make([]utils.Quad, len(regions))
	for i, r := range regions {
		quads[i] = r.Quad
	}
	return quads, nil
}

func (d *Detector) detectRegions(img image.Image) ([]Region, error) {
	b := img.Bounds()
	resized, err := utils.ResizeForDetection(img, utils.ImageConstraints{MaxSide: d.config.MaxSide, MinSide: 32})
	if err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}
	data, w, h, err := utils.NormalizeImage(resized, imageNetMean, imageNetStd)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize image: %w", err)
	}
	defer mempool.PutFloat32(data)
	input, err := onnx.NewImageTensor(data, 3, h, w)
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor: %w", err)
	}

	out, err := d.session.Run(input)
	if err != nil {
		return nil, err
	}
	if len(out.Shape) != 4 {
		return nil, fmt.Errorf("expected 4D output tensor, got %dD", len(out.Shape))
	}
	mapW, mapH := int(out.Shape[3]), int(out.Shape[2])
	// The first channel holds the shrink probability map.
	prob := out.Data[:mapW*mapH]

	regions := PostProcess(prob, mapW, mapH, d.config)
	regions = ScaleToOriginal(regions, mapW, mapH, b.Dx(), b.Dy())
	SortReadingOrder(regions)
	return regions, nil
}

// Close releases the model session.
func (d *Detector) Close() error {
	if d.session == nil {
		return nil
	}
	return d.session.Close()
}
