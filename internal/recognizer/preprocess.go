package recognizer

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/MeKo-Tech/ocrbatch/internal/onnx"
	"github.com/MeKo-Tech/ocrbatch/internal/utils"
	"github.com/disintegration/imaging"
)

// ResizeForRecognition scales an image to a fixed target height while preserving
// aspect ratio. If padToMultiple > 0, the width is padded with black pixels to the
// next multiple. If maxWidth > 0, the width is clamped to maxWidth.
func ResizeForRecognition(img image.Image, targetHeight, maxWidth, padToMultiple int) (image.Image, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	if targetHeight <= 0 {
		return nil, fmt.Errorf("invalid targetHeight: %d", targetHeight)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errors.New("input image is empty")
	}

	newW := max(1, int(float64(w)*float64(targetHeight)/float64(h)))
	if maxWidth > 0 && newW > maxWidth {
		newW = maxWidth
	}
	resized := imaging.Resize(img, newW, targetHeight, imaging.Lanczos)

	outW := newW
	if padToMultiple > 0 {
		if rem := newW % padToMultiple; rem != 0 {
			outW = newW + padToMultiple - rem
		}
	}
	if outW == newW {
		return resized, nil
	}
	canvas := imaging.New(outW, targetHeight, color.Black)
	return imaging.Paste(canvas, resized, image.Pt(0, 0)), nil
}

// NormalizeForRecognition converts an image to a [1,3,H,W] tensor scaled to [-1,1].
func NormalizeForRecognition(img image.Image) (onnx.Tensor, error) {
	data, w, h, err := utils.NormalizeImage(img, [3]float32{0.5, 0.5, 0.5}, [3]float32{0.5, 0.5, 0.5})
	if err != nil {
		return onnx.Tensor{}, err
	}
	return onnx.NewImageTensor(data, 3, h, w)
}
