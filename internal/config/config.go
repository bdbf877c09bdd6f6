package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/ocrbatch/internal/cropper"
	"github.com/MeKo-Tech/ocrbatch/internal/detector"
	"github.com/MeKo-Tech/ocrbatch/internal/models"
	"github.com/MeKo-Tech/ocrbatch/internal/onnx"
	"github.com/MeKo-Tech/ocrbatch/internal/recognizer"
	"github.com/MeKo-Tech/ocrbatch/internal/remote"
	"github.com/MeKo-Tech/ocrbatch/internal/tesseract"
	"github.com/MeKo-Tech/ocrbatch/internal/utils"
)

// Engine names.
const (
	EngineONNX      = "onnx"
	EngineRemote    = "remote"
	EngineTesseract = "tesseract"
)

// Decode failure policies.
const (
	DecodeErrorRecord = "record"
	DecodeErrorSkip   = "skip"
)

const infoLevel = "info"

var (
	validLogLevels      = []string{"debug", "info", "warn", "error"}
	validEngines        = []string{EngineONNX, EngineRemote, EngineTesseract}
	validDecodePolicies = []string{DecodeErrorRecord, DecodeErrorSkip}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	det := detector.DefaultConfig()
	rec := recognizer.DefaultConfig()
	return Config{
		ModelsDir: models.DefaultModelsDir,
		LogLevel:  infoLevel,
		Engine:    EngineONNX,
		Batch: BatchConfig{
			Extensions:    []string{".png"},
			Padding:       cropper.DefaultPadding,
			ClampBoxes:    true,
			OnDecodeError: DecodeErrorRecord,
			Workers:       1,
		},
		Detector: DetectorConfig{
			Threshold:    det.Threshold,
			BoxThreshold: det.BoxThreshold,
			UnclipRatio:  det.UnclipRatio,
			MaxSide:      det.MaxSide,
			NumThreads:   det.NumThreads,
		},
		Recognizer: RecognizerConfig{
			Language:      rec.Language,
			BeamWidth:     rec.BeamWidth,
			NormalizeForm: rec.NormalizeForm,
			ImageHeight:   rec.ImageHeight,
			MaxWidth:      rec.MaxWidth,
			NumThreads:    rec.NumThreads,
		},
		Remote: RemoteConfig{
			Timeout: "30s",
		},
		GPU: GPUConfig{
			MemoryLimit: "auto",
		},
	}
}

// Validate validates the configuration and returns the first problem found.
// Paths are not checked here; the run reports missing files itself.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validEngines, c.Engine) {
		return fmt.Errorf("invalid engine: %s (must be one of: %s)", c.Engine, strings.Join(validEngines, ", "))
	}

	if c.Batch.Padding < 0 {
		return fmt.Errorf("invalid batch padding: %d (must not be negative)", c.Batch.Padding)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}
	if !slices.Contains(validDecodePolicies, c.Batch.OnDecodeError) {
		return fmt.Errorf("invalid on_decode_error: %s (must be one of: %s)",
			c.Batch.OnDecodeError, strings.Join(validDecodePolicies, ", "))
	}

	if err := validateThreshold(float64(c.Detector.Threshold), "detector.threshold"); err != nil {
		return err
	}
	if err := validateThreshold(float64(c.Detector.BoxThreshold), "detector.box_threshold"); err != nil {
		return err
	}
	if c.Detector.UnclipRatio < 0 {
		return fmt.Errorf("invalid detector.unclip_ratio: %.2f (must not be negative)", c.Detector.UnclipRatio)
	}
	if c.Detector.MaxSide < 32 {
		return fmt.Errorf("invalid detector.max_side: %d (must be at least 32)", c.Detector.MaxSide)
	}

	if c.Recognizer.BeamWidth < 1 {
		return fmt.Errorf("invalid recognizer.beam_width: %d (must be positive)", c.Recognizer.BeamWidth)
	}
	if !utils.ValidNormalizationForm(c.Recognizer.NormalizeForm) {
		return fmt.Errorf("invalid recognizer.normalize_form: %s", c.Recognizer.NormalizeForm)
	}
	if c.Recognizer.ImageHeight <= 0 {
		return fmt.Errorf("invalid recognizer.image_height: %d (must be positive)", c.Recognizer.ImageHeight)
	}

	if c.Engine == EngineRemote && c.Remote.Endpoint == "" {
		return fmt.Errorf("remote.endpoint is required for the %s engine", EngineRemote)
	}
	if _, err := c.remoteTimeout(); err != nil {
		return err
	}

	if _, err := parseMemoryLimit(c.GPU.MemoryLimit); err != nil {
		return fmt.Errorf("invalid GPU memory limit: %w", err)
	}
	if c.GPU.Device < 0 {
		return fmt.Errorf("invalid GPU device: %d (must not be negative)", c.GPU.Device)
	}
	return nil
}

// ToGPUConfig converts to onnx.GPUConfig.
func (c *Config) ToGPUConfig() onnx.GPUConfig {
	limit, _ := parseMemoryLimit(c.GPU.MemoryLimit)
	return onnx.GPUConfig{
		UseGPU:      c.GPU.Enabled,
		DeviceID:    c.GPU.Device,
		GPUMemLimit: limit,
	}
}

// ToDetectorConfig converts to detector.Config. An empty model path resolves
// under the models directory.
func (c *Config) ToDetectorConfig() detector.Config {
	cfg := detector.DefaultConfig()
	cfg.ModelPath = c.Detector.ModelPath
	if cfg.ModelPath == "" {
		cfg.ModelPath = models.GetDetectionModelPath(c.ModelsDir, c.Detector.UseServer)
	}
	cfg.LibraryPath = c.ONNX.LibraryPath
	cfg.NumThreads = c.Detector.NumThreads
	cfg.GPU = c.ToGPUConfig()
	cfg.MaxSide = c.Detector.MaxSide
	cfg.Threshold = c.Detector.Threshold
	cfg.BoxThreshold = c.Detector.BoxThreshold
	cfg.UnclipRatio = c.Detector.UnclipRatio
	return cfg
}

// ToRecognizerConfig converts to recognizer.Config.
func (c *Config) ToRecognizerConfig() recognizer.Config {
	cfg := recognizer.DefaultConfig()
	cfg.ModelPath = c.Recognizer.ModelPath
	if cfg.ModelPath == "" {
		cfg.ModelPath = models.GetRecognitionModelPath(c.ModelsDir, c.Recognizer.UseServer)
	}
	cfg.DictPath = c.Recognizer.DictPath
	if cfg.DictPath == "" {
		cfg.DictPath = models.GetDictionaryPath(c.ModelsDir, c.Recognizer.Language)
	}
	cfg.LibraryPath = c.ONNX.LibraryPath
	cfg.NumThreads = c.Recognizer.NumThreads
	cfg.GPU = c.ToGPUConfig()
	cfg.Language = c.Recognizer.Language
	cfg.ImageHeight = c.Recognizer.ImageHeight
	cfg.MaxWidth = c.Recognizer.MaxWidth
	cfg.BeamSearch = c.Recognizer.BeamSearch
	cfg.BeamWidth = c.Recognizer.BeamWidth
	cfg.NormalizeForm = c.Recognizer.NormalizeForm
	return cfg
}

// ToRemoteConfig converts to remote.Config.
func (c *Config) ToRemoteConfig() remote.Config {
	timeout, _ := c.remoteTimeout()
	return remote.Config{
		Endpoint:   c.Remote.Endpoint,
		Timeout:    timeout,
		Language:   c.Recognizer.Language,
		BeamSearch: c.Recognizer.BeamSearch,
		Serialize:  c.Remote.Serialize,
	}
}

// ToTesseractConfig converts to tesseract.Config. Without explicit languages
// the recognizer language is used.
func (c *Config) ToTesseractConfig() tesseract.Config {
	langs := c.Tesseract.Languages
	if len(langs) == 0 && c.Recognizer.Language != "" {
		langs = []string{c.Recognizer.Language}
	}
	return tesseract.Config{
		Languages:      langs,
		TessdataPrefix: c.Tesseract.TessdataPrefix,
	}
}

func (c *Config) remoteTimeout() (time.Duration, error) {
	if c.Remote.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid remote.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid remote.timeout: %s (must not be negative)", c.Remote.Timeout)
	}
	return d, nil
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}

// parseMemoryLimit parses limits such as "512MB" or "1.5GB" into bytes.
// "auto" and "" mean no limit.
func parseMemoryLimit(limit string) (uint64, error) {
	s := strings.ToUpper(strings.TrimSpace(limit))
	if s == "" || s == "AUTO" {
		return 0, nil
	}

	units := []struct {
		suffix string
		scale  float64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	}
	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid number in memory limit: %s", limit)
		}
		return uint64(n * u.scale), nil
	}
	return 0, fmt.Errorf("memory limit must end with one of: B, KB, MB, GB (got %s)", limit)
}
