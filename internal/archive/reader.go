// Package archive reads members of zip-based comic archives (.cbz) one at a
// time. Only the member being read is ever held in memory.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEntryTooLarge is wrapped in a [ReadError] when a member decompresses to
// more than the reader's size limit.
var ErrEntryTooLarge = errors.New("entry exceeds size limit")

// OpenError reports an archive that could not be opened as a zip container.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string { return "open archive " + e.Path + ": " + e.Err.Error() }
func (e *OpenError) Unwrap() error { return e.Err }

// ReadError reports a member whose bytes could not be fully extracted:
// checksum mismatch, truncated stream, unsupported method or size limit.
type ReadError struct {
	Path  string
	Entry string
	Err   error
}

func (e *ReadError) Error() string {
	return "read " + e.Path + ":" + e.Entry + ": " + e.Err.Error()
}
func (e *ReadError) Unwrap() error { return e.Err }

// Entry is one file member. Index is its position in the central directory,
// so members sharing a name remain distinct.
type Entry struct {
	Index int
	Name  string
	Size  uint64 // uncompressed size declared by the header
}

// Reader is an open archive. Not safe for concurrent use; each worker opens
// its own.
type Reader struct {
	path    string
	zr      *zip.ReadCloser
	maxSize uint64
}

// Open opens the archive at path. maxSize caps the decompressed size of any
// single member; 0 means no limit.
func Open(path string, maxSize uint64) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		// Names like "../x.webp" are only displayed, never extracted.
		if !errors.Is(err, zip.ErrInsecurePath) || zr == nil {
			return nil, &OpenError{Path: path, Err: err}
		}
	}
	return &Reader{path: path, zr: zr, maxSize: maxSize}, nil
}

// Path returns the archive path passed to Open.
func (r *Reader) Path() string { return r.path }

// Entries lists file members in central-directory order. Directory members
// are skipped.
func (r *Reader) Entries() []Entry {
	entries := make([]Entry, 0, len(r.zr.File))
	for i, f := range r.zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, Entry{Index: i, Name: f.Name, Size: f.UncompressedSize64})
	}
	return entries
}

// Matching returns the entries whose name ends in ext, case-insensitively.
func (r *Reader) Matching(ext string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if HasExt(e.Name, ext) {
			out = append(out, e)
		}
	}
	return out
}

// HasExt reports whether name ends in ext, ignoring case.
func HasExt(name, ext string) bool {
	return len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext)
}

// Read returns the full decompressed bytes of e. The zip CRC-32 is verified
// when the stream reaches EOF.
func (r *Reader) Read(e Entry) ([]byte, error) {
	if e.Index < 0 || e.Index >= len(r.zr.File) {
		return nil, &ReadError{Path: r.path, Entry: e.Name, Err: fmt.Errorf("no entry at index %d", e.Index)}
	}
	f := r.zr.File[e.Index]
	if r.maxSize > 0 && f.UncompressedSize64 > r.maxSize {
		return nil, r.readErr(e, ErrEntryTooLarge)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, r.readErr(e, err)
	}
	defer rc.Close()

	var src io.Reader = rc
	if r.maxSize > 0 {
		src = io.LimitReader(rc, int64(r.maxSize)+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, r.readErr(e, err)
	}
	if r.maxSize > 0 && uint64(len(data)) > r.maxSize {
		return nil, r.readErr(e, ErrEntryTooLarge)
	}
	return data, nil
}

func (r *Reader) readErr(e Entry, err error) error {
	return &ReadError{Path: r.path, Entry: e.Name, Err: err}
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.zr.Close()
}
