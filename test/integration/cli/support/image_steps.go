package support

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/ocrbatch/internal/testutil"
	"github.com/cucumber/godog"
)

// splitNames parses a comma separated list; an empty string is an empty list.
func splitNames(list string) []string {
	var out []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// theInputDirectoryContains writes a blank 64x64 image for every name,
// encoded according to its extension.
func (testCtx *TestContext) theInputDirectoryContains(names string) error {
	for _, name := range splitNames(names) {
		img := testutil.CreateTestImage(64, 64, color.White)
		if err := testutil.WriteImageFile(filepath.Join(testCtx.InputDir, name), img); err != nil {
			return fmt.Errorf("failed to create image %s: %w", name, err)
		}
	}
	return nil
}

func (testCtx *TestContext) theInputDirectoryContainsACorruptFile(name string) error {
	return os.WriteFile(filepath.Join(testCtx.InputDir, name), []byte("not an image"), 0o600)
}

func (testCtx *TestContext) theInputDirectoryContainsADirectory(name string) error {
	return os.MkdirAll(filepath.Join(testCtx.InputDir, name), 0o755)
}

func (testCtx *TestContext) theIdentifierFileLists(ids string) error {
	content := strings.Join(splitNames(ids), "\n") + "\n"
	return os.WriteFile(testCtx.IDsFile, []byte(content), 0o600)
}

func (testCtx *TestContext) theIdentifierFileContains(doc *godog.DocString) error {
	return os.WriteFile(testCtx.IDsFile, []byte(doc.Content), 0o600)
}

func (testCtx *TestContext) thereIsNoIdentifierFile() error {
	if err := os.Remove(testCtx.IDsFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (testCtx *TestContext) aReportFileAlreadyExists() error {
	return os.WriteFile(testCtx.OutputFile, []byte(`[{"image": "stale.png", "words": [], "boxes": []}]`), 0o600)
}

// RegisterImageSteps registers input fixture steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the input directory contains "([^"]*)"$`, testCtx.theInputDirectoryContains)
	sc.Step(`^the input directory contains a corrupt file "([^"]*)"$`, testCtx.theInputDirectoryContainsACorruptFile)
	sc.Step(`^the input directory contains a directory "([^"]*)"$`, testCtx.theInputDirectoryContainsADirectory)
	sc.Step(`^the identifier file lists "([^"]*)"$`, testCtx.theIdentifierFileLists)
	sc.Step(`^the identifier file contains:$`, testCtx.theIdentifierFileContains)
	sc.Step(`^there is no identifier file$`, testCtx.thereIsNoIdentifierFile)
	sc.Step(`^a report file already exists$`, testCtx.aReportFileAlreadyExists)
}
