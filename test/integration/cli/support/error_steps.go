package support

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// theErrorShouldMention checks the returned error and the log output.
func (testCtx *TestContext) theErrorShouldMention(expected string) error {
	if testCtx.LastError == nil {
		return errors.New("no error was returned")
	}
	haystack := strings.ToLower(testCtx.LastError.Error() + "\n" + testCtx.LastStderr)
	if !strings.Contains(haystack, strings.ToLower(expected)) {
		return fmt.Errorf("error does not mention %q: %v", expected, testCtx.LastError)
	}
	return nil
}

// theLogShouldMention checks the structured log written to stderr.
func (testCtx *TestContext) theLogShouldMention(expected string) error {
	if !strings.Contains(testCtx.LastStderr, expected) {
		return fmt.Errorf("log does not mention %q\nlog:\n%s", expected, testCtx.LastStderr)
	}
	return nil
}

// RegisterErrorSteps registers error assertion steps.
func (testCtx *TestContext) RegisterErrorSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^the log should mention "([^"]*)"$`, testCtx.theLogShouldMention)
}
