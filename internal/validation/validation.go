// Package validation checks user-supplied paths and identifies draws files
// by content before they are parsed.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
)

// Security limits to prevent DoS attacks (CWE-400).
const (
	// MaxFileSize is the maximum allowed draws file size (1 GB).
	MaxFileSize = 1 << 30
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
)

// SanitizePath validates and sanitizes a user-supplied path to prevent path traversal attacks.
// It ensures the path does not escape the provided base directory.
// Returns the cleaned path relative to the base directory, or an error if invalid.
func SanitizePath(baseDir, userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}

	// Check path length
	if len(userPath) > MaxPathLength {
		return "", ErrPathTooLong
	}

	// Clean the path to remove redundant separators and resolve . and ..
	cleanPath := filepath.Clean(userPath)

	// Reject paths that try to escape the base directory
	if strings.Contains(cleanPath, "..") {
		return "", ErrPathTraversal
	}

	// Reject absolute paths (should be relative to baseDir)
	if filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}

	// Build full path and verify it's within baseDir
	fullPath := filepath.Join(baseDir, cleanPath)
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	// Ensure the resolved path is within the base directory
	relPath, err := filepath.Rel(absBase, absPath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return "", ErrPathTraversal
	}

	return cleanPath, nil
}

// ValidateFilename checks if a filename is safe and does not contain malicious characters.
// It rejects filenames with path separators, control characters, and dangerous patterns.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}

	// Check length
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}

	// Reject dangerous filenames
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}

	// Check for path separators
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}

	// Check for null bytes (common injection attack)
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidFilename)
	}

	// Check for control characters
	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}

	// Reject filenames starting with hyphen (can be confused with command flags)
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}

	return nil
}

// IsPathSafe checks if a path is safe by validating it against common attack patterns.
// This is a convenience wrapper around SanitizePath that returns a boolean.
func IsPathSafe(baseDir, userPath string) bool {
	_, err := SanitizePath(baseDir, userPath)
	return err == nil
}

// ValidatePath performs comprehensive path validation without requiring a base directory.
// It checks for dangerous patterns, length limits, and invalid characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	// Check length
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	// Check for null bytes
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	// Check for control characters
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// SanitizeFilename sanitizes a filename by removing or replacing invalid characters.
// This is useful when generating filenames from user input.
// Returns a safe filename or an error if the filename cannot be sanitized.
func SanitizeFilename(filename string) (string, error) {
	if filename == "" {
		return "", ErrInvalidFilename
	}

	// Remove leading/trailing whitespace
	filename = strings.TrimSpace(filename)

	// Replace path separators with underscores
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")

	// Remove null bytes
	filename = strings.ReplaceAll(filename, "\x00", "")

	// Remove control characters
	var cleaned strings.Builder
	for _, r := range filename {
		if !unicode.IsControl(r) {
			cleaned.WriteRune(r)
		}
	}
	filename = cleaned.String()

	// Remove leading hyphens
	filename = strings.TrimLeft(filename, "-")

	// Final validation
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}

	return filename, nil
}

// FileType is a draws file format identified from content and name.
type FileType string

const (
	// Text formats
	FileTypeCSV     FileType = "csv"
	FileTypeStanCSV FileType = "stan-csv"
	FileTypeJSON    FileType = "json"

	// Compression wrappers around a text format
	FileTypeGzip FileType = "gzip"
	FileTypeXZ   FileType = "xz"

	// Binary formats
	FileTypeSQLite FileType = "sqlite"

	// Unknown
	FileTypeUnknown FileType = "unknown"
)

// IsCompressed reports whether the type wraps another format.
func (ft FileType) IsCompressed() bool {
	return ft == FileTypeGzip || ft == FileTypeXZ
}

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
	offset   int
}{
	{FileTypeGzip, []byte{0x1f, 0x8b}, 0},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, 0},
	{FileTypeSQLite, []byte("SQLite format 3"), 0},
}

// HeaderSize is how many leading bytes ValidateFileType and DetectText need.
const HeaderSize = 512

// ValidateFileType checks that a file's content matches the type its name
// suggests and returns the detected type. Text content is refined by
// sniffing: JSON starts with "{" or "[", CmdStan output carries "#" comment
// lines or an "lp__" column.
func ValidateFileType(reader io.Reader, filename string) (FileType, error) {
	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	detected := detectFileTypeFromMagic(buf)
	expected := detectFileTypeFromExtension(filename)

	if detected != FileTypeUnknown {
		if expected != FileTypeUnknown && expected != detected && !(expected == FileTypeCSV && detected.IsCompressed()) {
			return FileTypeUnknown, fmt.Errorf("file type mismatch: extension suggests %s but content is %s", expected, detected)
		}
		return detected, nil
	}

	if !isLikelyText(buf) {
		if n == 0 && expected != FileTypeUnknown && !expected.IsCompressed() && expected != FileTypeSQLite {
			return expected, nil
		}
		return FileTypeUnknown, fmt.Errorf("%s does not look like a draws file", filename)
	}
	if expected.IsCompressed() || expected == FileTypeSQLite {
		return FileTypeUnknown, fmt.Errorf("file type mismatch: extension suggests %s but content is text", expected)
	}

	text := DetectText(buf)
	if expected == FileTypeJSON && text != FileTypeJSON {
		return FileTypeUnknown, fmt.Errorf("file type mismatch: extension suggests json but content is %s", text)
	}
	return text, nil
}

// DetectText classifies a text header as JSON, CmdStan CSV or plain CSV.
func DetectText(buf []byte) FileType {
	trimmed := bytes.TrimLeft(buf, " \t\r\n\xef\xbb\xbf")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FileTypeJSON
	}
	if len(trimmed) > 0 && trimmed[0] == '#' {
		return FileTypeStanCSV
	}
	first, _, _ := bytes.Cut(trimmed, []byte("\n"))
	for _, field := range bytes.Split(bytes.TrimSpace(first), []byte(",")) {
		if string(bytes.Trim(field, `"`)) == "lp__" {
			return FileTypeStanCSV
		}
	}
	return FileTypeCSV
}

// InnerName strips a compression extension: "draws.csv.gz" becomes "draws.csv".
func InnerName(filename string) string {
	lower := strings.ToLower(filename)
	for _, ext := range []string{".gz", ".xz"} {
		if strings.HasSuffix(lower, ext) {
			return filename[:len(filename)-len(ext)]
		}
	}
	return filename
}

// detectFileTypeFromMagic detects file type from magic bytes.
func detectFileTypeFromMagic(buf []byte) FileType {
	for _, sig := range magicBytes {
		if sig.offset+len(sig.magic) <= len(buf) {
			if bytes.Equal(buf[sig.offset:sig.offset+len(sig.magic)], sig.magic) {
				return sig.fileType
			}
		}
	}
	return FileTypeUnknown
}

// detectFileTypeFromExtension determines expected file type from filename extension.
func detectFileTypeFromExtension(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FileTypeCSV
	case ".json":
		return FileTypeJSON
	case ".gz", ".tgz":
		return FileTypeGzip
	case ".xz":
		return FileTypeXZ
	case ".sqlite", ".db", ".sqlite3":
		return FileTypeSQLite
	default:
		return FileTypeUnknown
	}
}

// isLikelyText checks if the buffer contains likely text content.
// Returns true if the buffer appears to be text (UTF-8, ASCII).
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}

	// Check for null bytes (strong indicator of binary content)
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
	}

	// If more than 95% is printable, consider it text
	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
