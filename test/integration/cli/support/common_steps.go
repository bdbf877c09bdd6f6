package support

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/ocrbatch/cmd/ocrbatch/cmd"
	"github.com/cucumber/godog"
)

// expand replaces the scenario placeholders in a command line.
func (testCtx *TestContext) expand(s string) string {
	endpoint := ""
	if testCtx.Service != nil {
		endpoint = testCtx.Service.URL()
	}
	return strings.NewReplacer(
		"{input}", testCtx.InputDir,
		"{ids}", testCtx.IDsFile,
		"{output}", testCtx.OutputFile,
		"{endpoint}", endpoint,
		"{tmp}", testCtx.TempDir,
	).Replace(s)
}

// iRunCommand executes "ocrbatch ..." in-process on a fresh command tree.
func (testCtx *TestContext) iRunCommand(command string) error {
	fields := strings.Fields(testCtx.expand(command))
	if len(fields) == 0 || fields[0] != "ocrbatch" {
		return fmt.Errorf("unsupported command: %q", command)
	}

	root := cmd.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(fields[1:])

	testCtx.LastArgs = fields[1:]
	testCtx.LastError = root.ExecuteContext(context.Background())
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("command %v failed: %w\nstderr: %s", testCtx.LastArgs, testCtx.LastError, testCtx.LastStderr)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastError == nil {
		return errors.New("command succeeded, expected failure")
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expected string) error {
	expected = testCtx.expand(expected)
	if !strings.Contains(testCtx.LastOutput, expected) {
		return fmt.Errorf("output does not contain %q\nactual output:\n%s", expected, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(unexpected string) error {
	if strings.Contains(testCtx.LastOutput, unexpected) {
		return fmt.Errorf("output unexpectedly contains %q", unexpected)
	}
	return nil
}

// theOutputShouldContainProgressLines counts "Processing image:" lines.
func (testCtx *TestContext) theOutputShouldContainProgressLines(count string) error {
	want, err := strconv.Atoi(count)
	if err != nil {
		return err
	}
	got := strings.Count(testCtx.LastOutput, "Processing image: ")
	if got != want {
		return fmt.Errorf("expected %d progress lines, got %d\nactual output:\n%s", want, got, testCtx.LastOutput)
	}
	return nil
}

// theLastLineShouldAnnounceTheReport checks the closing progress line.
func (testCtx *TestContext) theLastLineShouldAnnounceTheReport() error {
	lines := strings.Split(strings.TrimRight(testCtx.LastOutput, "\n"), "\n")
	want := "Results saved to " + testCtx.OutputFile
	if len(lines) == 0 || lines[len(lines)-1] != want {
		return fmt.Errorf("last output line is not %q\nactual output:\n%s", want, testCtx.LastOutput)
	}
	return nil
}

// RegisterCommonSteps registers command execution and output steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should contain (\d+) progress lines?$`, testCtx.theOutputShouldContainProgressLines)
	sc.Step(`^the last output line should announce the report$`, testCtx.theLastLineShouldAnnounceTheReport)
}
