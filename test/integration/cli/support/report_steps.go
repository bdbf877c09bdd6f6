package support

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/MeKo-Tech/ocrbatch/internal/batch"
	"github.com/MeKo-Tech/ocrbatch/internal/cropper"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) readReport() ([]batch.ImageRecord, error) {
	records, err := batch.ReadReport(testCtx.OutputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return records, nil
}

func (testCtx *TestContext) entry(image string) (*batch.ImageRecord, error) {
	records, err := testCtx.readReport()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].Image == image {
			return &records[i], nil
		}
	}
	return nil, fmt.Errorf("report has no entry for %q", image)
}

// theReportShouldListTheImages compares the image names in report order.
func (testCtx *TestContext) theReportShouldListTheImages(names string) error {
	records, err := testCtx.readReport()
	if err != nil {
		return err
	}
	got := make([]string, 0, len(records))
	for _, r := range records {
		got = append(got, r.Image)
	}
	want := splitNames(names)
	if want == nil {
		want = []string{}
	}
	if !reflect.DeepEqual(got, want) {
		return fmt.Errorf("report lists %v, expected %v", got, want)
	}
	return nil
}

func (testCtx *TestContext) theReportShouldBeEmpty() error {
	return testCtx.theReportShouldListTheImages("")
}

// theReportEntryShouldHaveWords compares words with a JSON array literal.
func (testCtx *TestContext) theReportEntryShouldHaveWords(image, wordsJSON string) error {
	var want []string
	if err := json.Unmarshal([]byte(wordsJSON), &want); err != nil {
		return fmt.Errorf("invalid words literal %s: %w", wordsJSON, err)
	}
	e, err := testCtx.entry(image)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(e.Words, want) {
		return fmt.Errorf("entry %s has words %q, expected %q", image, e.Words, want)
	}
	return nil
}

// theReportEntryShouldHaveBoxes compares boxes with a JSON array literal.
func (testCtx *TestContext) theReportEntryShouldHaveBoxes(image, boxesJSON string) error {
	var want []cropper.Box
	if err := json.Unmarshal([]byte(boxesJSON), &want); err != nil {
		return fmt.Errorf("invalid boxes literal %s: %w", boxesJSON, err)
	}
	e, err := testCtx.entry(image)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(e.Boxes, want) {
		return fmt.Errorf("entry %s has boxes %v, expected %v", image, e.Boxes, want)
	}
	return nil
}

func (testCtx *TestContext) everyReportEntryShouldHaveAsManyWordsAsBoxes() error {
	records, err := testCtx.readReport()
	if err != nil {
		return err
	}
	for _, r := range records {
		if len(r.Words) != len(r.Boxes) {
			return fmt.Errorf("entry %s has %d words and %d boxes", r.Image, len(r.Words), len(r.Boxes))
		}
	}
	return nil
}

// theReportFileShouldContainLiterally checks the raw bytes, so escaped
// sequences such as \u00e0 do not match.
func (testCtx *TestContext) theReportFileShouldContainLiterally(text string) error {
	data, err := os.ReadFile(testCtx.OutputFile)
	if err != nil {
		return err
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("report does not contain %q literally:\n%s", text, data)
	}
	return nil
}

func (testCtx *TestContext) theReportShouldBeIndentedWithFourSpaces() error {
	data, err := os.ReadFile(testCtx.OutputFile)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(string(data), "[\n    {\n        \"image\": ") {
		return fmt.Errorf("report is not indented with four spaces:\n%s", data)
	}
	return nil
}

func (testCtx *TestContext) noReportShouldBeWritten() error {
	if _, err := os.Stat(testCtx.OutputFile); err == nil {
		return errors.New("report file exists")
	} else if !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RegisterReportSteps registers report assertion steps.
func (testCtx *TestContext) RegisterReportSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the report should list the images "([^"]*)"$`, testCtx.theReportShouldListTheImages)
	sc.Step(`^the report should be an empty array$`, testCtx.theReportShouldBeEmpty)
	sc.Step(`^the report entry "([^"]*)" should have words (.+)$`, testCtx.theReportEntryShouldHaveWords)
	sc.Step(`^the report entry "([^"]*)" should have boxes (.+)$`, testCtx.theReportEntryShouldHaveBoxes)
	sc.Step(`^every report entry should have as many words as boxes$`,
		testCtx.everyReportEntryShouldHaveAsManyWordsAsBoxes)
	sc.Step(`^the report file should contain "([^"]*)" literally$`, testCtx.theReportFileShouldContainLiterally)
	sc.Step(`^the report should be indented with four spaces$`, testCtx.theReportShouldBeIndentedWithFourSpaces)
	sc.Step(`^no report should be written$`, testCtx.noReportShouldBeWritten)
}
