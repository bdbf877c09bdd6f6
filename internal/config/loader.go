package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "ocrbatch"
	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "OCRBATCH"
	// DefaultConfigFile is written by GenerateDefaultConfigFile when no name is given.
	DefaultConfigFile = ConfigFileName + ".yaml"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance, so that flags bound
// by the commands take part in resolution.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper creates a loader on an isolated viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load searches the standard paths for a configuration file, applies
// environment overrides and defaults, and validates the result. A missing
// configuration file is not an error.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.LoadWithoutValidation()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithoutValidation is Load without the final Validate call.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	cfg, err := l.LoadWithFileWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithFileWithoutValidation is LoadWithFile without the final Validate call.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	if configFile == "" {
		return l.LoadWithoutValidation()
	}
	if _, err := os.Stat(configFile); err != nil {
		return nil, fmt.Errorf("config file does not exist: %s: %w", configFile, err)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.Batch.Extensions = splitList(config.Batch.Extensions)
	config.Tesseract.Languages = splitList(config.Tesseract.Languages)
	return &config, nil
}

// splitList flattens comma separated entries, which is how list values arrive
// from environment variables and string flags.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables maps keys such as batch.ids_file to
// OCRBATCH_BATCH_IDS_FILE.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("models_dir", defaults.ModelsDir)
	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)
	l.v.SetDefault("engine", defaults.Engine)

	l.v.SetDefault("batch.input_dir", defaults.Batch.InputDir)
	l.v.SetDefault("batch.ids_file", defaults.Batch.IDsFile)
	l.v.SetDefault("batch.output_file", defaults.Batch.OutputFile)
	l.v.SetDefault("batch.extensions", defaults.Batch.Extensions)
	l.v.SetDefault("batch.padding", defaults.Batch.Padding)
	l.v.SetDefault("batch.clamp_boxes", defaults.Batch.ClampBoxes)
	l.v.SetDefault("batch.on_decode_error", defaults.Batch.OnDecodeError)
	l.v.SetDefault("batch.workers", defaults.Batch.Workers)

	l.v.SetDefault("detector.model_path", defaults.Detector.ModelPath)
	l.v.SetDefault("detector.use_server", defaults.Detector.UseServer)
	l.v.SetDefault("detector.threshold", defaults.Detector.Threshold)
	l.v.SetDefault("detector.box_threshold", defaults.Detector.BoxThreshold)
	l.v.SetDefault("detector.unclip_ratio", defaults.Detector.UnclipRatio)
	l.v.SetDefault("detector.max_side", defaults.Detector.MaxSide)
	l.v.SetDefault("detector.num_threads", defaults.Detector.NumThreads)

	l.v.SetDefault("recognizer.model_path", defaults.Recognizer.ModelPath)
	l.v.SetDefault("recognizer.dict_path", defaults.Recognizer.DictPath)
	l.v.SetDefault("recognizer.use_server", defaults.Recognizer.UseServer)
	l.v.SetDefault("recognizer.language", defaults.Recognizer.Language)
	l.v.SetDefault("recognizer.beam_search", defaults.Recognizer.BeamSearch)
	l.v.SetDefault("recognizer.beam_width", defaults.Recognizer.BeamWidth)
	l.v.SetDefault("recognizer.normalize_form", defaults.Recognizer.NormalizeForm)
	l.v.SetDefault("recognizer.image_height", defaults.Recognizer.ImageHeight)
	l.v.SetDefault("recognizer.max_width", defaults.Recognizer.MaxWidth)
	l.v.SetDefault("recognizer.num_threads", defaults.Recognizer.NumThreads)

	l.v.SetDefault("onnx.library_path", defaults.ONNX.LibraryPath)

	l.v.SetDefault("remote.endpoint", defaults.Remote.Endpoint)
	l.v.SetDefault("remote.timeout", defaults.Remote.Timeout)
	l.v.SetDefault("remote.serialize", defaults.Remote.Serialize)

	l.v.SetDefault("tesseract.languages", defaults.Tesseract.Languages)
	l.v.SetDefault("tesseract.tessdata_prefix", defaults.Tesseract.TessdataPrefix)

	l.v.SetDefault("gpu.enabled", defaults.GPU.Enabled)
	l.v.SetDefault("gpu.device", defaults.GPU.Device)
	l.v.SetDefault("gpu.memory_limit", defaults.GPU.MemoryLimit)

	l.v.SetDefault("metrics.file", defaults.Metrics.File)
}

// GetResolvedConfig returns all resolved settings as a nested map.
func (l *Loader) GetResolvedConfig() map[string]any {
	return l.v.AllSettings()
}

// GenerateDefaultConfigFile writes the default configuration to filename.
// Existing files are only replaced when force is set.
func GenerateDefaultConfigFile(filename string, force bool) error {
	if filename == "" {
		filename = DefaultConfigFile
	}
	loader := NewLoaderWithViper(viper.New())
	loader.setDefaults()

	if force {
		return loader.v.WriteConfigAs(filename)
	}
	if err := loader.v.SafeWriteConfigAs(filename); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists && configDir != "" {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}

	return append(paths, filepath.Join("/etc", ConfigFileName))
}
