package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/ocrbatch/internal/batch"
	"github.com/MeKo-Tech/ocrbatch/internal/cropper"
	"github.com/MeKo-Tech/ocrbatch/internal/testutil"
)

const testEndpoint = "http://ocr-service.test:9000"

// mockService answers every detect call with one region and every recognize
// call with the same text.
func mockService(t *testing.T, text string) {
	t.Helper()
	t.Cleanup(gock.Off)

	gock.New(testEndpoint).
		Post("/api/v1/detect").
		Persist().
		Reply(http.StatusOK).
		JSON(map[string]any{
			"regions": [][4][2]float64{{{10, 10}, {50, 10}, {50, 50}, {10, 50}}},
		})
	gock.New(testEndpoint).
		Post("/api/v1/recognize").
		Persist().
		Reply(http.StatusOK).
		JSON(map[string]string{"text": text})
}

func newRunFixture(t *testing.T) *testutil.BatchFixture {
	t.Helper()
	f := testutil.NewBatchFixture(t, "a", "c")
	f.AddBlankImage(t, "a.png", 64, 64)
	f.AddBlankImage(t, "b.png", 64, 64)
	f.AddBlankImage(t, "c.jpg", 64, 64)
	return f
}

func runArgs(f *testutil.BatchFixture, extra ...string) []string {
	args := []string{
		"run",
		"--engine", "remote",
		"--endpoint", testEndpoint,
		"--input", f.InputDir,
		"--ids", f.IDsFile,
		"--output", f.OutputFile,
	}
	return append(args, extra...)
}

func imageNames(records []batch.ImageRecord) []string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Image)
	}
	return names
}

func TestRunDefaultExtension(t *testing.T) {
	isolate(t)
	mockService(t, "Xin chào")
	f := newRunFixture(t)

	out, _, err := execute(t, runArgs(f)...)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("Processing image: a.png\nResults saved to %s\n", f.OutputFile), out)

	records, err := batch.ReadReport(f.OutputFile)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a.png", records[0].Image)
	assert.Equal(t, []string{"Xin chào"}, records[0].Words)
	assert.Equal(t, []cropper.Box{{5, 5, 55, 55}}, records[0].Boxes)
}

func TestRunAnyExtension(t *testing.T) {
	tests := []struct {
		name  string
		extra []string
	}{
		{"empty extension list", []string{"--extensions", ""}},
		{"any-extension flag", []string{"--any-extension"}},
		{"explicit list", []string{"--extensions", ".png,.jpg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			mockService(t, "ok")
			f := newRunFixture(t)

			_, _, err := execute(t, runArgs(f, tt.extra...)...)
			require.NoError(t, err)

			records, err := batch.ReadReport(f.OutputFile)
			require.NoError(t, err)
			assert.Equal(t, []string{"a.png", "c.jpg"}, imageNames(records))
		})
	}
}

func TestRunQuietWithStats(t *testing.T) {
	isolate(t)
	mockService(t, "ok")
	f := newRunFixture(t)

	out, _, err := execute(t, runArgs(f, "--quiet", "--stats", "--workers", "2")...)
	require.NoError(t, err)
	assert.NotContains(t, out, "Processing image:")
	assert.Contains(t, out, "Processing Statistics:")
	assert.Contains(t, out, "Eligible images: 1")
	assert.Contains(t, out, "Regions: 1")
}

func TestRunProgressIsLogged(t *testing.T) {
	tests := []struct {
		name        string
		extra       []string
		wantConsole bool
	}{
		{"console and log", []string{"--log-level", "debug"}, true},
		{"quiet keeps the log", []string{"--log-level", "debug", "--quiet"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			mockService(t, "ok")
			f := newRunFixture(t)

			out, logs, err := execute(t, runArgs(f, tt.extra...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantConsole, strings.Contains(out, "Processing image: a.png"))
			assert.Contains(t, logs, `"msg":"starting batch","images":1`)
			assert.Contains(t, logs, `"msg":"processing image","image":"a.png"`)
			assert.Contains(t, logs, `"msg":"results saved"`)
		})
	}
}

func TestRunProgressNotLoggedAtInfo(t *testing.T) {
	isolate(t)
	mockService(t, "ok")
	f := newRunFixture(t)

	_, logs, err := execute(t, runArgs(f)...)
	require.NoError(t, err)
	assert.NotContains(t, logs, `"msg":"processing image"`)
}

func TestRunPaddingAndClamp(t *testing.T) {
	isolate(t)
	mockService(t, "ok")
	f := newRunFixture(t)

	_, _, err := execute(t, runArgs(f, "--padding", "20", "--clamp-boxes=false")...)
	require.NoError(t, err)

	records, err := batch.ReadReport(f.OutputFile)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []cropper.Box{{0, 0, 70, 70}}, records[0].Boxes)
}

func TestRunMetricsFile(t *testing.T) {
	isolate(t)
	mockService(t, "ok")
	f := newRunFixture(t)
	metricsFile := filepath.Join(f.Root, "ocrbatch.prom")

	_, _, err := execute(t, runArgs(f, "--quiet", "--metrics-file", metricsFile)...)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `ocrbatch_images_total{outcome="processed"} 1`)
}

func TestRunRecognitionFailureKeepsRegion(t *testing.T) {
	isolate(t)
	t.Cleanup(gock.Off)
	gock.New(testEndpoint).
		Post("/api/v1/detect").
		Persist().
		Reply(http.StatusOK).
		JSON(map[string]any{
			"regions": [][4][2]float64{{{10, 10}, {50, 10}, {50, 50}, {10, 50}}},
		})
	gock.New(testEndpoint).
		Post("/api/v1/recognize").
		Persist().
		Reply(http.StatusInternalServerError)
	f := newRunFixture(t)

	_, _, err := execute(t, runArgs(f)...)
	require.NoError(t, err)

	records, err := batch.ReadReport(f.OutputFile)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{""}, records[0].Words)
	assert.Len(t, records[0].Boxes, 1)
}

func TestRunFromConfigFile(t *testing.T) {
	dir := isolate(t)
	mockService(t, "ok")
	f := newRunFixture(t)

	cfgPath := filepath.Join(dir, "custom.yaml")
	content := fmt.Sprintf(`engine: remote
remote:
  endpoint: %s
batch:
  input_dir: %s
  ids_file: %s
  output_file: %s
  extensions: [".jpg"]
`, testEndpoint, f.InputDir, f.IDsFile, f.OutputFile)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	_, _, err := execute(t, "--config", cfgPath, "run", "--quiet")
	require.NoError(t, err)

	records, err := batch.ReadReport(f.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"c.jpg"}, imageNames(records))
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    func(t *testing.T, f *testutil.BatchFixture) []string
		wantErr string
	}{
		{
			name: "missing identifier file",
			args: func(t *testing.T, f *testutil.BatchFixture) []string {
				require.NoError(t, os.Remove(f.IDsFile))
				return runArgs(f)
			},
			wantErr: "ids.txt",
		},
		{
			name: "missing input directory",
			args: func(t *testing.T, f *testutil.BatchFixture) []string {
				return runArgs(f, "--input", filepath.Join(f.Root, "nope"))
			},
			wantErr: "cannot read input directory",
		},
		{
			name: "no input flag",
			args: func(t *testing.T, f *testutil.BatchFixture) []string {
				return []string{"run", "--engine", "remote", "--endpoint", testEndpoint, "--ids", f.IDsFile, "--output", f.OutputFile}
			},
			wantErr: "input directory is required",
		},
		{
			name: "invalid decode policy",
			args: func(t *testing.T, f *testutil.BatchFixture) []string {
				return runArgs(f, "--on-decode-error", "ignore")
			},
			wantErr: "invalid on_decode_error",
		},
		{
			name: "remote engine without endpoint",
			args: func(t *testing.T, f *testutil.BatchFixture) []string {
				return []string{"run", "--engine", "remote", "--input", f.InputDir, "--ids", f.IDsFile, "--output", f.OutputFile}
			},
			wantErr: "remote.endpoint is required",
		},
		{
			name: "unexpected argument",
			args: func(t *testing.T, f *testutil.BatchFixture) []string {
				return runArgs(f, "extra")
			},
			wantErr: "unknown command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			mockService(t, "ok")
			f := newRunFixture(t)

			_, _, err := execute(t, tt.args(t, f)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.False(t, testutil.FileExists(f.OutputFile), "no report may be written")
		})
	}
}
