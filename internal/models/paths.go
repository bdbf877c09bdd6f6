package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Model file names.
const (
	DetectionMobile   = "PP-OCRv5_mobile_det.onnx"
	DetectionServer   = "PP-OCRv5_server_det.onnx"
	RecognitionMobile = "PP-OCRv5_mobile_rec.onnx"
	RecognitionServer = "PP-OCRv5_server_rec.onnx"

	DictionaryPPOCRKeysV1 = "ppocr_keys_v1.txt"
)

// Model type categories for organized directory structure.
const (
	TypeDetection    = "detection"
	TypeRecognition  = "recognition"
	TypeDictionaries = "dictionaries"
)

// Model variant categories.
const (
	VariantMobile = "mobile"
	VariantServer = "server"
)

// DefaultModelsDir is relative to the project root.
const DefaultModelsDir = "models"

// EnvModelsDir overrides the models directory.
const EnvModelsDir = "OCRBATCH_MODELS_DIR"

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.New("could not find project root (go.mod not found)")
}

// GetModelsDir returns the models directory.
// Priority: 1. explicit modelsDir, 2. environment variable, 3. project root + default.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}
	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}
	if projectRoot, err := findProjectRoot(); err == nil {
		return filepath.Join(projectRoot, DefaultModelsDir)
	}
	return DefaultModelsDir
}

// ResolveModelPath prefers the organized layout
// (<dir>/<type>/<variant>/<file>) and falls back to a flat one (<dir>/<file>).
func ResolveModelPath(modelsDir, modelType, variant, filename string) string {
	baseDir := GetModelsDir(modelsDir)

	if modelType != "" {
		organized := filepath.Join(baseDir, modelType, filename)
		if variant != "" && (modelType == TypeDetection || modelType == TypeRecognition) {
			organized = filepath.Join(baseDir, modelType, variant, filename)
		}
		if _, err := os.Stat(organized); err == nil {
			return organized
		}
	}
	return filepath.Join(baseDir, filename)
}

func variantFor(useServer bool) string {
	if useServer {
		return VariantServer
	}
	return VariantMobile
}

// GetDetectionModelPath returns the path for a detection model.
func GetDetectionModelPath(modelsDir string, useServer bool) string {
	filename := DetectionMobile
	if useServer {
		filename = DetectionServer
	}
	return ResolveModelPath(modelsDir, TypeDetection, variantFor(useServer), filename)
}

// GetRecognitionModelPath returns the path for a recognition model.
func GetRecognitionModelPath(modelsDir string, useServer bool) string {
	filename := RecognitionMobile
	if useServer {
		filename = RecognitionServer
	}
	return ResolveModelPath(modelsDir, TypeRecognition, variantFor(useServer), filename)
}

// GetDictionaryPath resolves the dictionary for language, falling back to the
// multilingual PP-OCR keys file when no language-specific file exists.
func GetDictionaryPath(modelsDir, language string) string {
	base := GetModelsDir(modelsDir)
	if language != "" {
		for _, name := range []string{"ppocr_keys_" + language + ".txt", language + "_dict.txt", language + ".txt"} {
			p := filepath.Join(base, TypeDictionaries, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ResolveModelPath(base, TypeDictionaries, "", DictionaryPPOCRKeysV1)
}

// ValidateModelExists checks that a model file exists.
func ValidateModelExists(modelPath string) error {
	if _, err := os.Stat(modelPath); err != nil {
		return fmt.Errorf("model file not found: %s: %w", modelPath, err)
	}
	return nil
}
