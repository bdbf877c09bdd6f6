package testutil

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/ocrbatch/internal/utils"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.True(t, FileExists(filepath.Join(root, "go.mod")))
}

func TestGenerateTextImage(t *testing.T) {
	cfg := DefaultTestImageConfig()
	cfg.Lines = []string{"first line", "second"}
	img, rects, err := GenerateTextImage(cfg)
	require.NoError(t, err)
	require.Len(t, rects, 2)

	assert.Equal(t, image.Rect(0, 0, 320, 240), img.Bounds())
	assert.Less(t, rects[0].Max.Y, rects[1].Min.Y)
	assert.Greater(t, rects[0].Dx(), rects[1].Dx())
	for _, r := range rects {
		assert.True(t, r.In(img.Bounds()))
	}

	cfg.Size = ImageSize{Width: 50, Height: 10}
	_, _, err = GenerateTextImage(cfg)
	assert.Error(t, err)
}

func TestBatchFixture(t *testing.T) {
	f := NewBatchFixture(t, "a", "c")
	f.AddBlankImage(t, "a.png", 40, 30)
	f.AddBlankImage(t, "c.jpg", 40, 30)
	f.AddBlankImage(t, "d.bmp", 40, 30)
	f.AddFile(t, "broken.png", []byte("nope"))
	f.AddDir(t, "sub")

	ids, err := os.ReadFile(f.IDsFile)
	require.NoError(t, err)
	assert.Equal(t, "a\nc\n", string(ids))

	for _, name := range []string{"a.png", "c.jpg", "d.bmp"} {
		img, meta, err := utils.LoadImage(filepath.Join(f.InputDir, name))
		require.NoError(t, err, name)
		assert.Equal(t, 40, img.Bounds().Dx())
		assert.NotEmpty(t, meta.Format)
	}
	_, _, err = utils.LoadImage(filepath.Join(f.InputDir, "broken.png"))
	assert.Error(t, err)
}

func TestCollaborators(t *testing.T) {
	ctx := context.Background()
	img := CreateTestImage(10, 10, image.White.C)

	quads, err := RectDetector(image.Rect(1, 2, 3, 4)).Detect(ctx, img)
	require.NoError(t, err)
	require.Len(t, quads, 1)
	assert.Equal(t, utils.Point{X: 1, Y: 2}, quads[0][0])
	assert.Equal(t, utils.Point{X: 3, Y: 4}, quads[0][2])

	text, err := SizeRecognizer().Recognize(ctx, img)
	require.NoError(t, err)
	assert.Equal(t, "10x10", text)

	rec := &RecordingRecognizer{Texts: []string{"x"}}
	first, _ := rec.Recognize(ctx, img)
	second, _ := rec.Recognize(ctx, img)
	assert.Equal(t, "x", first)
	assert.Empty(t, second)
	assert.Equal(t, 2, rec.Calls())
}
