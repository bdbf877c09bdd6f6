package onnx

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	onnxrt "github.com/yalue/onnxruntime_go"
)

// EnvLibraryPath overrides the ONNX Runtime shared library location.
const EnvLibraryPath = "OCRBATCH_ONNXRUNTIME_LIB"

const (
	osLinux    = "linux"
	osDarwin   = "darwin"
	osWindows  = "windows"
	libLinux   = "libonnxruntime.so"
	libDarwin  = "libonnxruntime.dylib"
	libWindows = "onnxruntime.dll"
)

var (
	envMu   sync.Mutex
	envRefs int
)

// LibraryName returns the shared library file name for goos.
func LibraryName(goos string) (string, error) {
	switch goos {
	case osLinux:
		return libLinux, nil
	case osDarwin:
		return libDarwin, nil
	case osWindows:
		return libWindows, nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", goos)
	}
}

// candidateLibraryPaths lists the locations searched for the runtime library,
// GPU builds first when useGPU is set.
func candidateLibraryPaths(useGPU bool, projectRoot, libName string) []string {
	var paths []string
	if useGPU {
		paths = append(paths, filepath.Join("/opt/onnxruntime/gpu/lib", libName))
	}
	paths = append(paths,
		filepath.Join("/usr/local/lib", libName),
		filepath.Join("/usr/lib", libName),
		filepath.Join("/opt/onnxruntime/cpu/lib", libName),
	)
	if projectRoot != "" {
		if useGPU {
			paths = append(paths, filepath.Join(projectRoot, "onnxruntime", "gpu", "lib", libName))
		}
		paths = append(paths, filepath.Join(projectRoot, "onnxruntime", "lib", libName))
	}
	return paths
}

// ResolveLibraryPath finds the ONNX Runtime shared library. An explicit path
// wins, then the environment override, then well-known system and project
// locations.
func ResolveLibraryPath(explicit string, useGPU bool) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(EnvLibraryPath)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("ONNX Runtime library not found at %s: %w", explicit, err)
		}
		return explicit, nil
	}

	libName, err := LibraryName(runtime.GOOS)
	if err != nil {
		return "", err
	}
	root, _ := findProjectRoot()
	for _, p := range candidateLibraryPaths(useGPU, root, libName) {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("ONNX Runtime library %s not found in system or project paths", libName)
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not find project root")
		}
		dir = parent
	}
}

// Acquire initializes the ONNX Runtime environment on first use. Every
// successful call must be paired with Release.
func Acquire(libraryPath string, useGPU bool) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 && !onnxrt.IsInitialized() {
		path, err := ResolveLibraryPath(libraryPath, useGPU)
		if err != nil {
			return err
		}
		onnxrt.SetSharedLibraryPath(path)
		if err := onnxrt.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
		}
		slog.Debug("ONNX Runtime initialized", "library", path)
	}
	envRefs++
	return nil
}

// Release drops one reference and destroys the environment with the last one.
func Release() error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		return nil
	}
	envRefs--
	if envRefs == 0 && onnxrt.IsInitialized() {
		if err := onnxrt.DestroyEnvironment(); err != nil {
			return fmt.Errorf("failed to destroy ONNX Runtime environment: %w", err)
		}
	}
	return nil
}

// Check verifies that the runtime library can be loaded and initialized.
func Check(libraryPath string, useGPU bool) (string, error) {
	path, err := ResolveLibraryPath(libraryPath, useGPU)
	if err != nil {
		return "", err
	}
	if err := Acquire(path, useGPU); err != nil {
		return path, err
	}
	return path, Release()
}
