package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/MeKo-Tech/ocrbatch/internal/cropper"
)

// ImageRecord is one entry of the report. Words and Boxes have equal length
// and share their order.
type ImageRecord struct {
	Image string        `json:"image"`
	Words []string      `json:"words"`
	Boxes []cropper.Box `json:"boxes"`
}

// newImageRecord keeps both sequences non-nil so they encode as [].
func newImageRecord(name string, words []string, boxes []cropper.Box) *ImageRecord {
	if words == nil {
		words = []string{}
	}
	if boxes == nil {
		boxes = []cropper.Box{}
	}
	return &ImageRecord{Image: name, Words: words, Boxes: boxes}
}

// EncodeReport renders records as an indented JSON array with non-ASCII text
// written literally.
func EncodeReport(records []ImageRecord) ([]byte, error) {
	if records == nil {
		records = []ImageRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return unescapeLineSeparators(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// unescapeLineSeparators writes U+2028 and U+2029 literally. encoding/json
// always escapes them, even with HTML escaping disabled. An escape is only
// rewritten when its backslash is not itself escaped.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' {
			out = append(out, data[i])
			continue
		}
		if i+1 < len(data) && data[i+1] == '\\' {
			out = append(out, data[i], data[i+1])
			i++
			continue
		}
		if rest := data[i:]; bytes.HasPrefix(rest, []byte(`\u2028`)) {
			out = append(out, "\u2028"...)
			i += 5
			continue
		} else if bytes.HasPrefix(rest, []byte(`\u2029`)) {
			out = append(out, "\u2029"...)
			i += 5
			continue
		}
		out = append(out, data[i])
	}
	return out
}

// WriteReport writes the report to path, replacing any existing file.
func WriteReport(path string, records []ImageRecord) error {
	data, err := EncodeReport(records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // report is meant to be shared
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) ([]ImageRecord, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the caller
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var records []ImageRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return records, nil
}
