package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, infoLevel, cfg.LogLevel)
	assert.Equal(t, EngineONNX, cfg.Engine)
	assert.Equal(t, []string{".png"}, cfg.Batch.Extensions)
	assert.Equal(t, 5, cfg.Batch.Padding)
	assert.True(t, cfg.Batch.ClampBoxes)
	assert.Equal(t, DecodeErrorRecord, cfg.Batch.OnDecodeError)
	assert.Equal(t, 1, cfg.Batch.Workers)
	assert.Equal(t, "vi", cfg.Recognizer.Language)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"bad engine", func(c *Config) { c.Engine = "cloud" }, "invalid engine"},
		{"negative padding", func(c *Config) { c.Batch.Padding = -1 }, "padding"},
		{"zero workers", func(c *Config) { c.Batch.Workers = 0 }, "workers"},
		{"bad decode policy", func(c *Config) { c.Batch.OnDecodeError = "ignore" }, "on_decode_error"},
		{"threshold above one", func(c *Config) { c.Detector.Threshold = 1.5 }, "detector.threshold"},
		{"small max side", func(c *Config) { c.Detector.MaxSide = 16 }, "max_side"},
		{"zero beam width", func(c *Config) { c.Recognizer.BeamWidth = 0 }, "beam_width"},
		{"bad normalize form", func(c *Config) { c.Recognizer.NormalizeForm = "NFX" }, "normalize_form"},
		{"remote without endpoint", func(c *Config) { c.Engine = EngineRemote }, "remote.endpoint"},
		{"bad timeout", func(c *Config) { c.Remote.Timeout = "soon" }, "remote.timeout"},
		{"bad memory limit", func(c *Config) { c.GPU.MemoryLimit = "12XB" }, "memory limit"},
		{"negative device", func(c *Config) { c.GPU.Device = -1 }, "GPU device"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseMemoryLimit(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"", 0, true},
		{"auto", 0, true},
		{"512MB", 512 << 20, true},
		{"1gb", 1 << 30, true},
		{"2KB", 2048, true},
		{"100B", 100, true},
		{"lots", 0, false},
		{"xMB", 0, false},
	}
	for _, tt := range tests {
		got, err := parseMemoryLimit(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestConverters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelsDir = t.TempDir()
	cfg.Detector.ModelPath = "/models/det.onnx"
	cfg.Detector.Threshold = 0.4
	cfg.Recognizer.DictPath = "/models/dict.txt"
	cfg.Recognizer.BeamSearch = true
	cfg.ONNX.LibraryPath = "/usr/lib/libonnxruntime.so"
	cfg.GPU = GPUConfig{Enabled: true, Device: 1, MemoryLimit: "1GB"}
	cfg.Remote = RemoteConfig{Endpoint: "http://ocr:8080", Timeout: "5s", Serialize: true}

	det := cfg.ToDetectorConfig()
	assert.Equal(t, "/models/det.onnx", det.ModelPath)
	assert.InDelta(t, 0.4, det.Threshold, 1e-6)
	assert.Equal(t, cfg.ONNX.LibraryPath, det.LibraryPath)
	assert.True(t, det.GPU.UseGPU)
	assert.Equal(t, 1, det.GPU.DeviceID)
	assert.Equal(t, uint64(1<<30), det.GPU.GPUMemLimit)

	rec := cfg.ToRecognizerConfig()
	assert.Equal(t, "/models/dict.txt", rec.DictPath)
	assert.Contains(t, rec.ModelPath, "PP-OCRv5_mobile_rec.onnx")
	assert.True(t, rec.BeamSearch)
	assert.Equal(t, "vi", rec.Language)

	rc := cfg.ToRemoteConfig()
	assert.Equal(t, "http://ocr:8080", rc.Endpoint)
	assert.Equal(t, 5*time.Second, rc.Timeout)
	assert.Equal(t, "vi", rc.Language)
	assert.True(t, rc.BeamSearch)
	assert.True(t, rc.Serialize)

	tc := cfg.ToTesseractConfig()
	assert.Equal(t, []string{"vi"}, tc.Languages)
	cfg.Tesseract.Languages = []string{"vie", "eng"}
	assert.Equal(t, []string{"vie", "eng"}, cfg.ToTesseractConfig().Languages)
}
