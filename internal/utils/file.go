package utils

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"atscore/internal/errors"
)

var textExtensions = []string{".txt", ".md", ".markdown", ".text"}

// sniffLen is how much of a file is inspected by IsTextFile
const sniffLen = 512

// ValidateInputFile checks that filename is a readable regular file no
// larger than maxSize bytes. maxSize <= 0 disables the size check.
func ValidateInputFile(filename string, maxSize int64) error {
	if filename == "" {
		return errors.NewValidationError(errors.ErrCodeFileNotFound, "filename cannot be empty", nil)
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("file does not exist: %s", filename), err)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("cannot access file %s", filename), err)
	}

	if info.IsDir() {
		return errors.NewValidationError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("path is a directory, not a file: %s", filename), nil)
	}

	if maxSize > 0 && info.Size() > maxSize {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("file %s is %s, limit is %s", filename, FormatFileSize(info.Size()), FormatFileSize(maxSize)), nil).
			WithContext("size", info.Size()).
			WithContext("max_size", maxSize)
	}

	return nil
}

// ValidateOutputFile makes sure the output directory exists
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout
	}

	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsTextFile accepts known text extensions, and otherwise sniffs the first
// bytes of the file for UTF-8 text content.
func IsTextFile(filename string) bool {
	if slices.Contains(textExtensions, GetFileExtension(filename)) {
		return true
	}

	f, err := os.Open(filename)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false
	}
	buf = buf[:n]
	if n == 0 {
		return true
	}

	return strings.HasPrefix(http.DetectContentType(buf), "text/") && utf8.Valid(trimPartialRune(buf))
}

// trimPartialRune drops a rune cut off by the sniff window
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
