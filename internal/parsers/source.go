package parsers

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"revenue-dashboard/pkg/errors"
)

// Format is the container format of an input workbook
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Source is a workbook supplied either by path or as uploaded bytes
type Source struct {
	// Name labels the input in messages, e.g. "revenue workbook"
	Name string
	// Path is set for file inputs
	Path string
	// Filename and Content are set for uploaded inputs
	Filename string
	Content  []byte
}

// FileSource describes a workbook on disk
func FileSource(name, path string) Source {
	return Source{Name: name, Path: path}
}

// ContentSource describes an uploaded workbook held in memory
func ContentSource(name, filename string, content []byte) Source {
	if content == nil {
		content = []byte{}
	}
	return Source{Name: name, Filename: filename, Content: content}
}

// IsUpload reports whether the source carries its own bytes
func (s Source) IsUpload() bool {
	return s.Content != nil
}

// Label is the most specific human-readable description of the source
func (s Source) Label() string {
	switch {
	case s.Path != "":
		return s.Path
	case s.Filename != "":
		return s.Filename
	case s.Name != "":
		return s.Name
	default:
		return "workbook"
	}
}

// Format guesses the container format from the file extension
func (s Source) Format() Format {
	name := s.Path
	if s.IsUpload() {
		name = s.Filename
	}
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return FormatCSV
	}
	return FormatXLSX
}

// Identity names one particular version of a source. Two loads with equal
// keys are guaranteed to parse to the same tables.
type Identity struct {
	// Origin is stable across versions of the same input (path or upload name)
	Origin string
	// Key changes whenever the content may have changed
	Key string
}

// Identify computes the identity of the source. A source with no path, a
// path that does not exist, or empty uploaded content is a missing input.
func (s Source) Identify() (Identity, error) {
	if s.IsUpload() {
		if len(s.Content) == 0 {
			return Identity{}, errors.InputError(errors.CodeMissingInput, s.Label(), nil).
				WithContext("reason", "uploaded content is empty")
		}
		sum := sha256.Sum256(s.Content)
		return Identity{
			Origin: "upload:" + s.Label(),
			Key:    fmt.Sprintf("sha256:%x", sum),
		}, nil
	}

	if strings.TrimSpace(s.Path) == "" {
		return Identity{}, errors.InputError(errors.CodeMissingInput, s.Label(), nil).
			WithContext("reason", "no path configured")
	}

	info, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Identity{}, errors.InputError(errors.CodeMissingInput, s.Label(), err)
		}
		return Identity{}, errors.InputError(errors.CodeInputUnreadable, s.Label(), err)
	}
	if info.IsDir() {
		return Identity{}, errors.InputError(errors.CodeInputUnreadable, s.Label(), nil).
			WithContext("reason", "path is a directory")
	}

	abs, err := filepath.Abs(s.Path)
	if err != nil {
		abs = s.Path
	}
	return Identity{
		Origin: "file:" + abs,
		Key:    fmt.Sprintf("file:%s@%d:%d", abs, info.ModTime().UnixNano(), info.Size()),
	}, nil
}
