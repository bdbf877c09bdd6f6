package cropper

import (
	"encoding/json"
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/ocrbatch/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		quad utils.Quad
		want Box
	}{
		{"padded", utils.NewQuad(10, 10, 50, 50), Box{5, 5, 55, 55}},
		{"lower bound clamped", utils.NewQuad(2, 2, 40, 40), Box{0, 0, 45, 45}},
		{"truncated", utils.NewQuad(10.9, 20.7, 30.2, 40.99), Box{5, 15, 35, 45}},
		{"origin", utils.NewQuad(0, 0, 1, 1), Box{0, 0, 6, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.quad, DefaultPadding))
		})
	}
}

func TestNormalizeUsesFirstAndThirdCorner(t *testing.T) {
	// A tilted quad: only corners 0 and 2 matter.
	q := utils.Quad{{X: 20, Y: 10}, {X: 90, Y: 0}, {X: 80, Y: 40}, {X: 0, Y: 60}}
	assert.Equal(t, Box{20, 10, 80, 40}, Normalize(q, 0))
}

func TestNormalizeAllReversesOrder(t *testing.T) {
	quads := []utils.Quad{
		utils.NewQuad(10, 10, 20, 20),
		utils.NewQuad(30, 30, 40, 40),
		utils.NewQuad(50, 50, 60, 60),
	}
	boxes := NormalizeAll(quads, image.Rect(0, 0, 100, 100), Options{Padding: 0})
	require.Len(t, boxes, 3)
	assert.Equal(t, Box{50, 50, 60, 60}, boxes[0])
	assert.Equal(t, Box{30, 30, 40, 40}, boxes[1])
	assert.Equal(t, Box{10, 10, 20, 20}, boxes[2])

	assert.Empty(t, NormalizeAll(nil, image.Rect(0, 0, 1, 1), Options{}))
}

func TestNormalizeAllClamp(t *testing.T) {
	quads := []utils.Quad{utils.NewQuad(80, 80, 98, 99)}
	bounds := image.Rect(0, 0, 100, 100)

	unclamped := NormalizeAll(quads, bounds, Options{Padding: 5})
	assert.Equal(t, Box{75, 75, 103, 104}, unclamped[0])

	clamped := NormalizeAll(quads, bounds, Options{Padding: 5, ClampToImage: true})
	assert.Equal(t, Box{75, 75, 100, 100}, clamped[0])
}

func TestClampRegionPastEdge(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	b := Normalize(utils.NewQuad(120, 10, 150, 40), DefaultPadding).Clamp(bounds)
	assert.Equal(t, Box{100, 5, 100, 45}, b)
	assert.LessOrEqual(t, b.X1(), b.X2())
	assert.LessOrEqual(t, b.Y1(), b.Y2())

	_, err := Crop(image.NewRGBA(bounds), b)
	require.ErrorIs(t, err, ErrEmptyCrop)

	b = Normalize(utils.NewQuad(10, 130, 40, 160), DefaultPadding).Clamp(bounds)
	assert.Equal(t, Box{5, 100, 45, 100}, b)
}

func TestCrop(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 60))
	img.Set(12, 7, color.RGBA{R: 255, A: 255})

	out, err := Crop(img, Box{10, 5, 30, 25})
	require.NoError(t, err)
	assert.Equal(t, 20, out.Bounds().Dx())
	assert.Equal(t, 20, out.Bounds().Dy())
	r, _, _, _ := out.At(2, 2).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	out, err = Crop(img, Box{90, 50, 200, 200})
	require.NoError(t, err)
	assert.Equal(t, 10, out.Bounds().Dx())
	assert.Equal(t, 10, out.Bounds().Dy())
}

func TestCropEmpty(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))

	_, err := Crop(img, Box{10, 10, 10, 30})
	require.ErrorIs(t, err, ErrEmptyCrop)

	_, err = Crop(img, Box{60, 60, 80, 80})
	require.ErrorIs(t, err, ErrEmptyCrop)

	// Inverted box, e.g. after clamping a region that starts past the edge.
	_, err = Crop(img, Box{55, 55, 50, 50})
	require.ErrorIs(t, err, ErrEmptyCrop)

	_, err = Crop(nil, Box{0, 0, 1, 1})
	require.Error(t, err)
}

func TestBoxJSON(t *testing.T) {
	b := Box{5, 5, 55, 55}
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `[5,5,55,55]`, string(data))
	assert.Equal(t, "[5,5,55,55]", b.String())
	assert.Equal(t, 5, b.X1())
	assert.Equal(t, 55, b.Y2())
}
