// Package ziptest builds small .cbz fixtures for tests.
package ziptest

import (
	"archive/zip"
	"bytes"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/cbzscan/internal/imagecheck"
)

// Member describes one archive member.
type Member struct {
	Name string
	Data []byte

	// BadCRC stores Data uncompressed with a wrong CRC-32, so extraction
	// fails with zip.ErrChecksum after the full stream is read.
	BadCRC bool

	// Raw writes Data verbatim as the compressed deflate stream.
	Raw bool
}

// Valid is a member holding a decodable WebP.
func Valid(name string) Member { return Member{Name: name, Data: imagecheck.Sample()} }

// Truncated is a member holding a WebP cut off mid-bitstream.
func Truncated(name string) Member {
	s := imagecheck.Sample()
	return Member{Name: name, Data: s[:len(s)-9]}
}

// Garbage is a member whose bytes are not an image at all.
func Garbage(name string) Member {
	return Member{Name: name, Data: []byte("this is definitely not an image")}
}

// Unreadable is a member that cannot be extracted (checksum mismatch).
func Unreadable(name string) Member {
	return Member{Name: name, Data: imagecheck.Sample(), BadCRC: true}
}

// Write creates a zip archive at path (parent dirs included) with members in order.
func Write(t testing.TB, path string, members ...Member) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, m := range members {
		if err := writeMember(zw, m); err != nil {
			t.Fatalf("write member %s: %v", m.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeMember(zw *zip.Writer, m Member) error {
	switch {
	case m.BadCRC:
		hdr := &zip.FileHeader{
			Name:               m.Name,
			Method:             zip.Store,
			CRC32:              crc32.ChecksumIEEE(m.Data) ^ 0xdeadbeef,
			CompressedSize64:   uint64(len(m.Data)),
			UncompressedSize64: uint64(len(m.Data)),
		}
		w, err := zw.CreateRaw(hdr)
		if err != nil {
			return err
		}
		_, err = w.Write(m.Data)
		return err
	case m.Raw:
		hdr := &zip.FileHeader{
			Name:               m.Name,
			Method:             zip.Deflate,
			CRC32:              1,
			CompressedSize64:   uint64(len(m.Data)),
			UncompressedSize64: uint64(len(m.Data)) * 4,
		}
		w, err := zw.CreateRaw(hdr)
		if err != nil {
			return err
		}
		_, err = w.Write(m.Data)
		return err
	default:
		w, err := zw.Create(m.Name)
		if err != nil {
			return err
		}
		_, err = w.Write(m.Data)
		return err
	}
}

// Undecompressable is a deflate member whose stream uses the reserved block
// type, so decompression fails on the first byte.
func Undecompressable(name string) Member {
	return Member{Name: name, Data: bytes.Repeat([]byte{0xff}, 16), Raw: true}
}

// WriteFile writes arbitrary bytes to path, creating parent dirs.
func WriteFile(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
