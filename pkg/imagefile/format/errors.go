package format

import (
	"errors"

	"github.com/jpfielding/imagefile.go/pkg/binio"
)

var (
	// ErrSignatureMismatch means the stream is not this format; dispatch tries the next one.
	ErrSignatureMismatch = errors.New("format: signature mismatch")

	// ErrTruncated means the stream ended before a required field.
	ErrTruncated = binio.ErrTruncated

	// ErrMalformedHeader means the signature matched but structural fields are inconsistent.
	ErrMalformedHeader = errors.New("format: malformed header")

	// ErrUnsupportedDepth is a structurally valid but unhandled bit depth.
	ErrUnsupportedDepth = errors.New("format: unsupported depth")

	// ErrUnsupportedMode is a structurally valid but unhandled mode or compression.
	ErrUnsupportedMode = errors.New("format: unsupported mode")

	// ErrUnrecognizedFormat means no registered format accepted the stream.
	ErrUnrecognizedFormat = errors.New("format: unrecognized format")

	// ErrUnsupportedSaveMode means the image mode has no encoding in the target format.
	ErrUnsupportedSaveMode = errors.New("format: unsupported save mode")
)

// Recoverable reports whether err only means "not this format" during dispatch.
func Recoverable(err error) bool {
	return errors.Is(err, ErrSignatureMismatch) || errors.Is(err, ErrTruncated)
}
