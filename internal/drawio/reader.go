package drawio

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/tidydraws/core/errors"
	"github.com/FocuswithJustin/tidydraws/internal/validation"
)

// source is an opened draws stream with compression removed and its text
// format identified.
type source struct {
	io.Reader
	format       validation.FileType
	compression  validation.FileType // FileTypeGzip, FileTypeXZ or ""
	file         io.Closer
	decompressor io.Closer
}

// open opens path for reading. Files larger than validation.MaxFileSize are
// rejected.
func open(path string) (*source, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, &errors.ValidationError{Field: "path", Value: path, Message: err.Error()}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if info, err := f.Stat(); err == nil && info.Size() > validation.MaxFileSize {
		f.Close()
		return nil, &errors.ValidationError{
			Field:   "path",
			Value:   path,
			Message: fmt.Sprintf("file is %d bytes, limit is %d", info.Size(), validation.MaxFileSize),
		}
	}
	src, err := newSource(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.file = f
	return src, nil
}

// newSource identifies the format of r, unwrapping gzip or xz.
func newSource(r io.Reader, name string) (*source, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(validation.HeaderSize)
	ft, err := validation.ValidateFileType(bytes.NewReader(head), name)
	if err != nil {
		return nil, &errors.ParseError{Format: "draws file", Path: name, Message: err.Error(), Err: err}
	}

	src := &source{Reader: br, format: ft}
	switch ft {
	case validation.FileTypeXZ:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, &errors.ParseError{Format: "xz", Path: name, Message: err.Error(), Err: err}
		}
		src.compression = ft
		src.Reader = bufio.NewReader(xzr)
	case validation.FileTypeGzip:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, &errors.ParseError{Format: "gzip", Path: name, Message: err.Error(), Err: err}
		}
		src.compression = ft
		src.decompressor = gzr
		src.Reader = bufio.NewReader(gzr)
	case validation.FileTypeSQLite:
		return nil, errors.NewUnsupported("sqlite file", "import datasets with the store instead of reading "+name)
	default:
		return src, nil
	}

	inner, _ := src.Reader.(*bufio.Reader).Peek(validation.HeaderSize)
	src.format = validation.DetectText(inner)
	return src, nil
}

// Close closes the decompressor and the file.
func (s *source) Close() error {
	var errs []error
	if s.decompressor != nil {
		if err := s.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
