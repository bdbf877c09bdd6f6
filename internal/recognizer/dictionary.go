package recognizer

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Charset represents a recognition character set loaded from a dictionary file.
// Tokens can be single Unicode characters or multi-codepoint strings.
type Charset struct {
	Tokens []string
}

// LoadCharset loads a dictionary file where each non-empty line is a token.
// Leading/trailing whitespace is trimmed and a UTF-8 BOM is removed. When
// withSpace is set a single space token is appended, as PP-OCR models trained
// with use_space_char expect.
func LoadCharset(path string, withSpace bool) (*Charset, error) {
	if path == "" {
		return nil, errors.New("dictionary path cannot be empty")
	}
	f, err := os.Open(path) //nolint:gosec // G304: Opening user-provided dictionary file is expected
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	tokens := make([]string, 0, 512)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		if line == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed reading dictionary: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("dictionary is empty: %s", path)
	}
	if withSpace {
		tokens = append(tokens, " ")
	}
	return &Charset{Tokens: tokens}, nil
}

// Size returns the number of tokens in the charset.
func (c *Charset) Size() int { return len(c.Tokens) }

// LookupToken returns the token at index i, or "" when out of range.
func (c *Charset) LookupToken(i int) string {
	if c == nil || i < 0 || i >= len(c.Tokens) {
		return ""
	}
	return c.Tokens[i]
}

// Decode maps model class indices to text. Class 0 is the CTC blank, so
// class k selects token k-1.
func (c *Charset) Decode(classes []int) string {
	var b strings.Builder
	for _, k := range classes {
		b.WriteString(c.LookupToken(k - 1))
	}
	return b.String()
}
