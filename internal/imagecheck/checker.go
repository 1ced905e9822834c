// Package imagecheck decides whether an image payload decodes cleanly.
//
// Every payload is fully decoded, not just its header, so truncated pixel
// data is caught. The WebP decoder comes from golang.org/x/image/webp; PNG,
// JPEG and GIF are registered too, so a page that is really a valid image of
// another common format is not reported as corrupted.
package imagecheck

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ErrDecoderPanic wraps a panic recovered from inside a decoder.
var ErrDecoderPanic = errors.New("decoder panic")

// Formats lists the image formats registered for decoding.
var Formats = []string{"webp", "png", "jpeg", "gif"}

// Outcome is the two-case result of a check.
type Outcome int

const (
	Decoded Outcome = iota
	Corrupted
)

func (o Outcome) String() string {
	if o == Decoded {
		return "decoded"
	}
	return "corrupted"
}

// Result describes one check. Reason and Class are set only when Corrupted;
// Format only when Decoded.
type Result struct {
	Outcome Outcome
	Reason  error
	Class   Class
	Format  string
}

// Corrupt reports whether the payload failed to decode.
func (r Result) Corrupt() bool { return r.Outcome == Corrupted }

// Checker fully decodes image payloads. The zero value is ready to use and
// safe for concurrent use.
type Checker struct{}

// Check decodes data and reports whether it is a valid image. Any decode
// error, including an unrecognized format, is corruption.
func (Checker) Check(data []byte) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{
				Outcome: Corrupted,
				Reason:  fmt.Errorf("%w: %v", ErrDecoderPanic, p),
				Class:   ClassDecoderPanic,
			}
		}
	}()

	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{Outcome: Corrupted, Reason: err, Class: Classify(err)}
	}
	return Result{Outcome: Decoded, Format: format}
}
