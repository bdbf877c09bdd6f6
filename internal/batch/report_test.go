package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/ocrbatch/internal/cropper"
)

func TestWriteReportRoundTripKeepsNonASCII(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	records := []ImageRecord{
		{
			Image: "hoá_đơn.png",
			Words: []string{"Tiếng Việt", "<b>&</b>", ""},
			Boxes: []cropper.Box{{0, 0, 45, 45}, {5, 5, 55, 55}, {1, 2, 3, 4}},
		},
		*newImageRecord("empty.png", nil, nil),
	}

	require.NoError(t, WriteReport(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Tiếng Việt")
	assert.Contains(t, text, "hoá_đơn.png")
	assert.Contains(t, text, "<b>&</b>")
	assert.NotContains(t, text, `\u`)
	assert.True(t, strings.HasPrefix(text, "[\n    {\n        \"image\""), "four-space indent")
	assert.False(t, strings.HasSuffix(text, "\n"))

	back, err := ReadReport(path)
	require.NoError(t, err)
	assert.Equal(t, records, back)
}

func TestWriteReportOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 4096)), 0o600))

	require.NoError(t, WriteReport(path, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestEncodeReportShape(t *testing.T) {
	data, err := EncodeReport([]ImageRecord{*newImageRecord("a.png", []string{"x"}, []cropper.Box{{1, 2, 3, 4}})})
	require.NoError(t, err)
	want := `[
    {
        "image": "a.png",
        "words": [
            "x"
        ],
        "boxes": [
            [
                1,
                2,
                3,
                4
            ]
        ]
    }
]`
	assert.Equal(t, want, string(data))
}

func TestEncodeReportLineSeparators(t *testing.T) {
	words := []string{"x\u2028y", "p\u2029q", `\u2028 stays escaped`, "\\\u2028"}
	data, err := EncodeReport([]ImageRecord{*newImageRecord("a.png", words, make([]cropper.Box, len(words)))})
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "\"x\u2028y\"")
	assert.Contains(t, out, "\"p\u2029q\"")
	assert.Contains(t, out, `"\\u2028 stays escaped"`)
	assert.NotContains(t, out, `\u2028y`)

	var decoded []ImageRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, words, decoded[0].Words)
}

func TestReadReportErrors(t *testing.T) {
	_, err := ReadReport(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = ReadReport(path)
	require.Error(t, err)
}
