package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ranvane/pdf4ofd"
	"github.com/ranvane/pdf4ofd/internal/config"
	"github.com/ranvane/pdf4ofd/internal/hints"
	"github.com/ranvane/pdf4ofd/internal/imageconv"
)

// Exit codes for pdf4ofd CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful conversion
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, output exists
	ExitBrowser = 4 // Browser/Chrome errors
	ExitFormat  = 5 // Input is not a readable PDF or OFD
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, pdf4ofd.ErrBrowserConnect) ||
		errors.Is(err, pdf4ofd.ErrPageCreate) ||
		errors.Is(err, pdf4ofd.ErrPageLoad) ||
		errors.Is(err, pdf4ofd.ErrScreenshot) {
		return ExitBrowser
	}

	// Format errors (exit 5)
	if errors.Is(err, pdf4ofd.ErrInvalidOFD) ||
		errors.Is(err, pdf4ofd.ErrInvalidPDF) {
		return ExitFormat
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrOutputExists) ||
		errors.Is(err, ErrCreateOutputDir) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, pdf4ofd.ErrInputTooLarge) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, pdf4ofd.ErrInvalidDirection) ||
		errors.Is(err, pdf4ofd.ErrInvalidMode) ||
		errors.Is(err, pdf4ofd.ErrFieldTooLong) ||
		errors.Is(err, pdf4ofd.ErrFontNotFound) ||
		errors.Is(err, ErrUnsupportedInput) ||
		errors.Is(err, ErrOutputConflict) ||
		errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidFlag) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}

// errorHint returns an actionable hint for err, or "".
func errorHint(err error, inputPath string, fontDirs []string) string {
	var notFound *config.NotFoundError
	switch {
	case errors.Is(err, pdf4ofd.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.As(err, &notFound):
		return hints.ForConfigNotFound(notFound.Paths)
	case errors.Is(err, ErrOutputExists):
		return hints.ForOutputExists()
	case errors.Is(err, ErrCreateOutputDir):
		return hints.ForOutputDirectory()
	case errors.Is(err, pdf4ofd.ErrFontNotFound):
		return hints.ForFontNotFound(fontDirs)
	case errors.Is(err, pdf4ofd.ErrInvalidOFD), errors.Is(err, pdf4ofd.ErrInvalidPDF):
		return hints.ForInvalidDocument(filepath.Ext(inputPath))
	}
	return ""
}

// warningHints returns hints for conversion warnings that a setting can
// fix: missing fonts and a missing JBIG2 decoder.
func warningHints(warnings []string, fontDirs []string) string {
	var out string
	var fontHint, jbig2Hint bool
	for _, w := range warnings {
		if !fontHint && strings.Contains(w, "not found, using") {
			fontHint = true
			out += hints.ForFontNotFound(fontDirs)
		}
		if !jbig2Hint && strings.Contains(w, imageconv.ErrDecoderNotFound.Error()) {
			jbig2Hint = true
			out += hints.ForJBIG2Decoder()
		}
	}
	return out
}
