package testutil

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// BatchFixture is an input directory, identifier file and output path laid out
// in a temporary directory.
type BatchFixture struct {
	Root       string
	InputDir   string
	IDsFile    string
	OutputFile string
}

// NewBatchFixture creates the layout and writes ids, one per line.
func NewBatchFixture(t *testing.T, ids ...string) *BatchFixture {
	t.Helper()

	root := t.TempDir()
	f := &BatchFixture{
		Root:       root,
		InputDir:   filepath.Join(root, "images"),
		IDsFile:    filepath.Join(root, "ids.txt"),
		OutputFile: filepath.Join(root, "results.json"),
	}
	require.NoError(t, EnsureDir(f.InputDir))
	f.WriteIDs(t, strings.Join(ids, "\n")+"\n")
	return f
}

// WriteIDs replaces the identifier file with raw content.
func (f *BatchFixture) WriteIDs(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.IDsFile, []byte(content), 0o600))
}

// AddImage writes img under name, encoded according to its extension.
func (f *BatchFixture) AddImage(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(f.InputDir, name)
	require.NoError(t, WriteImageFile(path, img))
	return path
}

// AddBlankImage writes a white image of the given size.
func (f *BatchFixture) AddBlankImage(t *testing.T, name string, width, height int) string {
	t.Helper()
	return f.AddImage(t, name, CreateTestImage(width, height, color.White))
}

// AddTextImage renders lines into an image and returns the line rectangles.
func (f *BatchFixture) AddTextImage(t *testing.T, name string, lines ...string) []image.Rectangle {
	t.Helper()
	cfg := DefaultTestImageConfig()
	cfg.Lines = lines
	img, rects, err := GenerateTextImage(cfg)
	require.NoError(t, err)
	f.AddImage(t, name, img)
	return rects
}

// AddFile writes arbitrary bytes, e.g. a corrupt image.
func (f *BatchFixture) AddFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(f.InputDir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// AddDir creates a subdirectory inside the input directory.
func (f *BatchFixture) AddDir(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.InputDir, name)
	require.NoError(t, EnsureDir(path))
	return path
}
