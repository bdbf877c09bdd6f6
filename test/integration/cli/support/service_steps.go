package support

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

func (testCtx *TestContext) theOCRServiceIsRunning() error {
	if testCtx.Service == nil {
		testCtx.Service = NewOCRService()
	}
	return nil
}

func (testCtx *TestContext) service() (*OCRService, error) {
	if testCtx.Service == nil {
		return nil, errors.New("the OCR service is not running")
	}
	return testCtx.Service, nil
}

// theOCRServiceDetectsTheRegions reads a table with x1, y1, x2, y2 columns
// and returns the axis-aligned quads for every image.
func (testCtx *TestContext) theOCRServiceDetectsTheRegions(table *godog.Table) error {
	svc, err := testCtx.service()
	if err != nil {
		return err
	}
	if len(table.Rows) < 2 {
		return errors.New("region table needs a header and at least one row")
	}

	regions := make([][4][2]float64, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		if len(row.Cells) != 4 {
			return fmt.Errorf("region row needs 4 cells, got %d", len(row.Cells))
		}
		var v [4]float64
		for i, cell := range row.Cells {
			if v[i], err = strconv.ParseFloat(cell.Value, 64); err != nil {
				return fmt.Errorf("invalid coordinate %q: %w", cell.Value, err)
			}
		}
		x1, y1, x2, y2 := v[0], v[1], v[2], v[3]
		regions = append(regions, [4][2]float64{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}})
	}
	svc.SetRegions(regions)
	return nil
}

func (testCtx *TestContext) theOCRServiceDetectsNoRegions() error {
	svc, err := testCtx.service()
	if err != nil {
		return err
	}
	svc.SetRegions([][4][2]float64{})
	return nil
}

func (testCtx *TestContext) theOCRServiceRecognizesEveryRegionAs(text string) error {
	svc, err := testCtx.service()
	if err != nil {
		return err
	}
	svc.SetText(text)
	return nil
}

func (testCtx *TestContext) theOCRServiceFailsToRecognizeAnyRegion() error {
	svc, err := testCtx.service()
	if err != nil {
		return err
	}
	svc.FailRecognition()
	return nil
}

func (testCtx *TestContext) theOCRServiceShouldHaveReceivedDetectRequests(count int) error {
	svc, err := testCtx.service()
	if err != nil {
		return err
	}
	if got := int(svc.DetectCalls.Load()); got != count {
		return fmt.Errorf("expected %d detect requests, got %d", count, got)
	}
	return nil
}

// RegisterServiceSteps registers the fake OCR service steps.
func (testCtx *TestContext) RegisterServiceSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the OCR service is running$`, testCtx.theOCRServiceIsRunning)
	sc.Step(`^the OCR service detects the regions:$`, testCtx.theOCRServiceDetectsTheRegions)
	sc.Step(`^the OCR service detects no regions$`, testCtx.theOCRServiceDetectsNoRegions)
	sc.Step(`^the OCR service recognizes every region as "([^"]*)"$`, testCtx.theOCRServiceRecognizesEveryRegionAs)
	sc.Step(`^the OCR service fails to recognize any region$`, testCtx.theOCRServiceFailsToRecognizeAnyRegion)
	sc.Step(`^the OCR service should have received (\d+) detect requests?$`,
		testCtx.theOCRServiceShouldHaveReceivedDetectRequests)
}
