package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText applies a Unicode normalization form ("NFC", "NFKC", "NFD",
// "NFKD"), drops control and zero-width characters and trims the result.
// An empty form leaves the composition untouched.
func NormalizeText(s, form string) string {
	if s == "" {
		return s
	}
	switch strings.ToUpper(form) {
	case "NFC":
		s = norm.NFC.String(s)
	case "NFKC":
		s = norm.NFKC.String(s)
	case "NFD":
		s = norm.NFD.String(s)
	case "NFKD":
		s = norm.NFKD.String(s)
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
			return -1
		}
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// ValidNormalizationForm reports whether form is accepted by NormalizeText.
func ValidNormalizationForm(form string) bool {
	switch strings.ToUpper(form) {
	case "", "NFC", "NFKC", "NFD", "NFKD":
		return true
	}
	return false
}
