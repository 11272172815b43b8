// Package drawio reads and writes draws tables as CSV, CmdStan CSV and
// column-oriented JSON, optionally compressed with gzip or xz.
package drawio

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/tidydraws/core/draws"
	"github.com/FocuswithJustin/tidydraws/core/errors"
	"github.com/FocuswithJustin/tidydraws/internal/logging"
	"github.com/FocuswithJustin/tidydraws/internal/validation"
)

// Options controls Read.
type Options struct {
	// Chain numbers the draws of a CmdStan file. Zero means 1.
	Chain int
}

// Read reads the draws file at path. The format is detected from content
// and name; gzip and xz are unwrapped first.
func Read(path string, opts Options) (*draws.Table, error) {
	src, err := open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	t, err := decode(src, opts)
	if err != nil {
		return nil, withPath(err, path)
	}
	logging.Debug("read_draws", "path", path, "format", string(src.format), "compression", string(src.compression), "rows", t.NumRows(), "cols", t.NumCols())
	return t, nil
}

// ReadFrom reads a draws stream such as standard input. name is used only
// for format detection and messages.
func ReadFrom(r io.Reader, name string, opts Options) (*draws.Table, error) {
	src, err := newSource(r, name)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	t, err := decode(src, opts)
	if err != nil {
		return nil, withPath(err, name)
	}
	return t, nil
}

func decode(src *source, opts Options) (*draws.Table, error) {
	switch src.format {
	case validation.FileTypeJSON:
		return ReadJSON(src)
	case validation.FileTypeStanCSV:
		return ReadStanCSV(src, StanOptions{Chain: opts.Chain})
	default:
		return ReadCSV(src)
	}
}

// withPath fills in the input name of a parse error.
func withPath(err error, path string) error {
	var pe *errors.ParseError
	if errors.As(err, &pe) && pe.Path == "" {
		cp := *pe
		cp.Path = path
		return &cp
	}
	return err
}

// Write writes t to path. A ".json" name (before any ".gz" or ".xz") selects
// JSON, anything else CSV; ".gz" and ".xz" compress the output.
func Write(path string, t *draws.Table) (err error) {
	if err := validation.ValidatePath(path); err != nil {
		return &errors.ValidationError{Field: "path", Value: path, Message: err.Error()}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.NewIO("close", path, cerr)
		}
	}()

	var w io.Writer = f
	var compressor io.WriteCloser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		compressor = gzip.NewWriter(f)
	case ".xz":
		xzw, err := xz.NewWriter(f)
		if err != nil {
			return errors.NewIO("compress", path, err)
		}
		compressor = xzw
	}
	if compressor != nil {
		w = compressor
	}

	if err := Encode(w, validation.InnerName(path), t); err != nil {
		return withIOPath(err, path)
	}
	if compressor != nil {
		if err := compressor.Close(); err != nil {
			return errors.NewIO("compress", path, err)
		}
	}
	logging.Debug("write_draws", "path", path, "rows", t.NumRows(), "cols", t.NumCols())
	return nil
}

// Encode writes t to w as JSON when name ends in ".json", otherwise as CSV.
func Encode(w io.Writer, name string, t *draws.Table) error {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return WriteJSON(w, t)
	}
	return WriteCSV(w, t)
}

func withIOPath(err error, path string) error {
	var ioe *errors.IOError
	if errors.As(err, &ioe) && ioe.Path == "" {
		cp := *ioe
		cp.Path = path
		return &cp
	}
	return err
}
