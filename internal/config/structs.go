//nolint:lll
package config

// Config represents the complete configuration for ocrbatch. It is assembled
// from the configuration file, OCRBATCH_* environment variables and
// command-line flags, in increasing order of precedence.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Engine selects the detector/recognizer backend: onnx, remote or tesseract.
	Engine string `mapstructure:"engine" yaml:"engine" json:"engine"`

	Batch      BatchConfig      `mapstructure:"batch" yaml:"batch" json:"batch"`
	Detector   DetectorConfig   `mapstructure:"detector" yaml:"detector" json:"detector"`
	Recognizer RecognizerConfig `mapstructure:"recognizer" yaml:"recognizer" json:"recognizer"`
	ONNX       ONNXConfig       `mapstructure:"onnx" yaml:"onnx" json:"onnx"`
	Remote     RemoteConfig     `mapstructure:"remote" yaml:"remote" json:"remote"`
	Tesseract  TesseractConfig  `mapstructure:"tesseract" yaml:"tesseract" json:"tesseract"`
	GPU        GPUConfig        `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// BatchConfig contains the batch run settings.
type BatchConfig struct {
	InputDir      string   `mapstructure:"input_dir" yaml:"input_dir" json:"input_dir"`
	IDsFile       string   `mapstructure:"ids_file" yaml:"ids_file" json:"ids_file"`
	OutputFile    string   `mapstructure:"output_file" yaml:"output_file" json:"output_file"`
	Extensions    []string `mapstructure:"extensions" yaml:"extensions" json:"extensions"`
	Padding       int      `mapstructure:"padding" yaml:"padding" json:"padding"`
	ClampBoxes    bool     `mapstructure:"clamp_boxes" yaml:"clamp_boxes" json:"clamp_boxes"`
	OnDecodeError string   `mapstructure:"on_decode_error" yaml:"on_decode_error" json:"on_decode_error"`
	Workers       int      `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// DetectorConfig contains text detection settings for the onnx engine.
type DetectorConfig struct {
	ModelPath    string  `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	UseServer    bool    `mapstructure:"use_server" yaml:"use_server" json:"use_server"`
	Threshold    float32 `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
	BoxThreshold float32 `mapstructure:"box_threshold" yaml:"box_threshold" json:"box_threshold"`
	UnclipRatio  float64 `mapstructure:"unclip_ratio" yaml:"unclip_ratio" json:"unclip_ratio"`
	MaxSide      int     `mapstructure:"max_side" yaml:"max_side" json:"max_side"`
	NumThreads   int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// RecognizerConfig contains text recognition settings.
type RecognizerConfig struct {
	ModelPath     string `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	DictPath      string `mapstructure:"dict_path" yaml:"dict_path" json:"dict_path"`
	UseServer     bool   `mapstructure:"use_server" yaml:"use_server" json:"use_server"`
	Language      string `mapstructure:"language" yaml:"language" json:"language"`
	BeamSearch    bool   `mapstructure:"beam_search" yaml:"beam_search" json:"beam_search"`
	BeamWidth     int    `mapstructure:"beam_width" yaml:"beam_width" json:"beam_width"`
	NormalizeForm string `mapstructure:"normalize_form" yaml:"normalize_form" json:"normalize_form"`
	ImageHeight   int    `mapstructure:"image_height" yaml:"image_height" json:"image_height"`
	MaxWidth      int    `mapstructure:"max_width" yaml:"max_width" json:"max_width"`
	NumThreads    int    `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// ONNXConfig locates the ONNX Runtime shared library.
type ONNXConfig struct {
	LibraryPath string `mapstructure:"library_path" yaml:"library_path" json:"library_path"`
}

// RemoteConfig contains the remote OCR service settings.
type RemoteConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	Timeout   string `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	Serialize bool   `mapstructure:"serialize" yaml:"serialize" json:"serialize"`
}

// TesseractConfig contains Tesseract engine settings.
type TesseractConfig struct {
	Languages      []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	TessdataPrefix string   `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix" json:"tessdata_prefix"`
}

// GPUConfig contains GPU acceleration settings.
type GPUConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Device      int    `mapstructure:"device" yaml:"device" json:"device"`
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	File string `mapstructure:"file" yaml:"file" json:"file"`
}
