package parsers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revenue-dashboard/pkg/errors"
)

func TestSourceFormat(t *testing.T) {
	assert.Equal(t, FormatXLSX, FileSource("r", "data/Revenue.xlsx").Format())
	assert.Equal(t, FormatCSV, FileSource("r", "data/revenue.CSV").Format())
	assert.Equal(t, FormatCSV, ContentSource("r", "upload.csv", []byte("a")).Format())
	assert.Equal(t, FormatXLSX, ContentSource("r", "upload", []byte("a")).Format())
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "a.xlsx", FileSource("revenue workbook", "a.xlsx").Label())
	assert.Equal(t, "up.xlsx", ContentSource("revenue workbook", "up.xlsx", nil).Label())
	assert.Equal(t, "revenue workbook", FileSource("revenue workbook", "").Label())
	assert.Equal(t, "workbook", Source{}.Label())
}

func TestIdentifyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "revenue.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))

	first, err := FileSource("revenue workbook", path).Identify()
	require.NoError(t, err)
	assert.Contains(t, first.Origin, "revenue.xlsx")

	again, err := FileSource("revenue workbook", path).Identify()
	require.NoError(t, err)
	assert.Equal(t, first, again)

	require.NoError(t, os.WriteFile(path, []byte("second version"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	changed, err := FileSource("revenue workbook", path).Identify()
	require.NoError(t, err)
	assert.Equal(t, first.Origin, changed.Origin)
	assert.NotEqual(t, first.Key, changed.Key)
}

func TestIdentifyUpload(t *testing.T) {
	a, err := ContentSource("forecast workbook", "f.xlsx", []byte("abc")).Identify()
	require.NoError(t, err)
	b, err := ContentSource("forecast workbook", "f.xlsx", []byte("abc")).Identify()
	require.NoError(t, err)
	c, err := ContentSource("forecast workbook", "f.xlsx", []byte("abd")).Identify()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a.Origin, c.Origin)
	assert.NotEqual(t, a.Key, c.Key)
}

func TestIdentifyMissing(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		code errors.ErrorCode
	}{
		{name: "no path", src: FileSource("revenue workbook", ""), code: errors.CodeMissingInput},
		{name: "blank path", src: FileSource("revenue workbook", "   "), code: errors.CodeMissingInput},
		{name: "absent file", src: FileSource("revenue workbook", filepath.Join(t.TempDir(), "nope.xlsx")), code: errors.CodeMissingInput},
		{name: "empty upload", src: ContentSource("revenue workbook", "x.xlsx", nil), code: errors.CodeMissingInput},
		{name: "directory", src: FileSource("revenue workbook", t.TempDir()), code: errors.CodeInputUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.src.Identify()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}
