package imagecheck

import (
	"errors"
	"fmt"
)

// ErrSelfTest is returned by SelfTest when the decoders misbehave.
var ErrSelfTest = errors.New("decoder self-test failed")

// sample is a 1x1 lossless WebP (VP8L with a color-indexing transform).
var sample = []byte{
	'R', 'I', 'F', 'F', 0x1a, 0x00, 0x00, 0x00,
	'W', 'E', 'B', 'P', 'V', 'P', '8', 'L',
	0x0d, 0x00, 0x00, 0x00, 0x2f, 0x00, 0x00, 0x00,
	0x10, 0x07, 0x10, 0x11, 0x11, 0x88, 0x88, 0xfe,
	0x07, 0x00,
}

// Sample returns a copy of the built-in known-good WebP.
func Sample() []byte {
	return append([]byte(nil), sample...)
}

// SelfTest checks that the known-good sample decodes as WebP and that a
// truncated copy of it is rejected.
func SelfTest() error {
	var c Checker
	good := c.Check(Sample())
	if good.Corrupt() {
		return fmt.Errorf("%w: sample rejected: %v", ErrSelfTest, good.Reason)
	}
	if good.Format != "webp" {
		return fmt.Errorf("%w: sample decoded as %q", ErrSelfTest, good.Format)
	}
	if bad := c.Check(sample[:len(sample)-9]); !bad.Corrupt() {
		return fmt.Errorf("%w: truncated sample accepted", ErrSelfTest)
	}
	return nil
}
