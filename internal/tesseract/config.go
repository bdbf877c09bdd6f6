// Package tesseract adapts the Tesseract engine to the detector and recognizer
// contracts.
//
// The engine is only compiled with the "tesseract" build tag, which needs the
// Tesseract and Leptonica development headers:
//
//	go build -tags tesseract ./cmd/ocrbatch
//
// Without the tag New returns ErrNotEnabled.
package tesseract

import (
	"errors"
	"strings"
)

// ErrNotEnabled is returned when Tesseract support was not compiled in.
var ErrNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags tesseract")

// Config selects the trained data used by the engine.
type Config struct {
	// Languages are ISO 639-1 or Tesseract codes, e.g. "vi" or "vie".
	Languages []string
	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string
}

var isoToTesseract = map[string]string{
	"vi": "vie",
	"en": "eng",
	"de": "deu",
	"fr": "fra",
	"es": "spa",
	"it": "ita",
	"pt": "por",
	"zh": "chi_sim",
	"ja": "jpn",
	"ko": "kor",
	"ru": "rus",
}

// LanguageCodes maps configured languages to Tesseract codes. Unknown codes
// pass through unchanged; an empty list defaults to English.
func LanguageCodes(langs []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if code, ok := isoToTesseract[l]; ok {
			l = code
		}
		out = append(out, l)
	}
	if len(out) == 0 {
		out = append(out, "eng")
	}
	return out
}
