package pdf4ofd

import "errors"

// Sentinel errors for library operations.
var (
	ErrRender = errors.New("rendering failed")

	// Input validation errors.
	ErrEmptyDocument    = errors.New("document cannot be empty")
	ErrNoImages         = errors.New("no images to convert")
	ErrInvalidDirection = errors.New("invalid conversion direction")
	ErrInvalidMode      = errors.New("invalid conversion mode")
	ErrInputTooLarge    = errors.New("input exceeds maximum size")
	ErrFieldTooLong     = errors.New("field exceeds maximum length")
	ErrInvalidBase64    = errors.New("invalid base64 input")

	// Source format errors.
	ErrInvalidOFD = errors.New("invalid OFD document")
	ErrInvalidPDF = errors.New("invalid PDF document")

	// Font errors.
	ErrFontNotFound = errors.New("font not found")

	// Browser errors, raised only when rasterizing OFD pages.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrScreenshot     = errors.New("failed to capture page")
)
