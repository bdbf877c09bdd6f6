package support

import (
	"fmt"
	"os"
	"path/filepath"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastArgs   []string
	LastOutput string
	LastStderr string
	LastError  error

	// Test environment
	TempDir    string
	InputDir   string
	IDsFile    string
	OutputFile string

	// Service is the fake OCR service the remote engine talks to.
	Service *OCRService

	savedEnv map[string]*string
}

// NewTestContext creates a scenario workspace in a fresh temporary directory
// and points the configuration search paths at it.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "ocrbatch-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	testCtx := &TestContext{
		TempDir:    tempDir,
		InputDir:   filepath.Join(tempDir, "images"),
		IDsFile:    filepath.Join(tempDir, "ids.txt"),
		OutputFile: filepath.Join(tempDir, "results.json"),
		savedEnv:   map[string]*string{},
	}
	if err := os.MkdirAll(testCtx.InputDir, 0o755); err != nil {
		_ = os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to create input directory: %w", err)
	}

	testCtx.setEnv("HOME", tempDir)
	testCtx.setEnv("XDG_CONFIG_HOME", tempDir)
	return testCtx, nil
}

// setEnv sets an environment variable for the rest of the scenario. The
// previous value is restored by Cleanup.
func (testCtx *TestContext) setEnv(name, value string) {
	if _, saved := testCtx.savedEnv[name]; !saved {
		if old, ok := os.LookupEnv(name); ok {
			testCtx.savedEnv[name] = &old
		} else {
			testCtx.savedEnv[name] = nil
		}
	}
	_ = os.Setenv(name, value)
}

// Cleanup stops the service, restores the environment and removes the
// scenario workspace.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.Service != nil {
		testCtx.Service.Close()
		testCtx.Service = nil
	}

	for name, old := range testCtx.savedEnv {
		if old == nil {
			_ = os.Unsetenv(name)
		} else {
			_ = os.Setenv(name, *old)
		}
	}

	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err)
	}
	return nil
}
