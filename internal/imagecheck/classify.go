package imagecheck

import (
	"errors"
	"image"
	"io"
	"regexp"
)

// Class groups decode failures for summaries and the JSON report.
type Class string

const (
	ClassTruncated     Class = "truncated"
	ClassUnknownFormat Class = "unknown-format"
	ClassMalformed     Class = "malformed"
	ClassDecoderPanic  Class = "decoder-panic"
)

// Decoders in x/image report short input both as io.ErrUnexpectedEOF and
// as plain strings from the riff and vp8 readers.
var reTruncated = regexp.MustCompile(
	`(?i)unexpected EOF|short chunk|short (read|data)|truncated|not enough (data|pixel data)`)

// Classify maps a decode error to a Class.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDecoderPanic):
		return ClassDecoderPanic
	case errors.Is(err, image.ErrFormat):
		return ClassUnknownFormat
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return ClassTruncated
	case reTruncated.MatchString(err.Error()):
		return ClassTruncated
	default:
		return ClassMalformed
	}
}
