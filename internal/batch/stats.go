package batch

import (
	"fmt"
	"io"
	"time"
)

// Stats summarizes a run.
type Stats struct {
	// Entries is the number of directory entries seen.
	Entries int `json:"entries"`
	// Eligible is the number of files that passed the identifier filter.
	Eligible int `json:"eligible"`
	// Processed is the number of images present in the report.
	Processed int `json:"processed"`
	// Skipped is the number of undecodable images left out of the report.
	Skipped             int           `json:"skipped"`
	DecodeFailures      int           `json:"decode_failures"`
	DetectFailures      int           `json:"detect_failures"`
	Regions             int           `json:"regions"`
	RecognitionFailures int           `json:"recognition_failures"`
	Duration            time.Duration `json:"duration"`
}

func (s *Stats) snapshot() Stats {
	return *s
}

// Print writes the statistics in a human-readable form.
func (s Stats) Print(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Directory entries: %d\n", s.Entries)
	_, _ = fmt.Fprintf(w, "  Eligible images: %d\n", s.Eligible)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", s.Processed)
	_, _ = fmt.Fprintf(w, "  Skipped: %d\n", s.Skipped)
	_, _ = fmt.Fprintf(w, "  Decode failures: %d\n", s.DecodeFailures)
	_, _ = fmt.Fprintf(w, "  Detection failures: %d\n", s.DetectFailures)
	_, _ = fmt.Fprintf(w, "  Regions: %d\n", s.Regions)
	_, _ = fmt.Fprintf(w, "  Recognition failures: %d\n", s.RecognitionFailures)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", s.Duration.Round(time.Millisecond))
	if s.Processed > 0 && s.Duration > 0 {
		_, _ = fmt.Fprintf(w, "  Avg per image: %v\n", (s.Duration / time.Duration(s.Processed)).Round(time.Millisecond))
	}
}
