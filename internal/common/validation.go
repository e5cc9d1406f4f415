package common

import (
	"fmt"
	"slices"

	"atscore/internal/errors"
)

// ValidateOutputFormat checks format against the configured formats. An empty
// list allows any format the registry knows.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 || slices.Contains(supportedFormats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, supportedFormats), nil)
}
