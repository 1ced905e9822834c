package pipeline

import (
	"context"
	"errors"

	"github.com/backmassage/cbzscan/internal/archive"
	"github.com/backmassage/cbzscan/internal/imagecheck"
	"github.com/backmassage/cbzscan/internal/report"
)

// Checker decides whether entry bytes decode. imagecheck.Checker is the
// production implementation.
type Checker interface {
	Check(data []byte) imagecheck.Result
}

// ArchiveResult is the outcome of processing one archive.
type ArchiveResult struct {
	Path           string
	Diagnostics    []report.Diagnostic // member-listing order
	EntriesListed  int
	EntriesChecked int
	BytesChecked   uint64
}

// ProcessArchive checks every matching entry of the archive at path. It never
// fails: an unopenable archive yields one ArchiveError diagnostic, an
// unreadable entry an EntryReadError, an undecodable one an EntryCorrupted.
// Entries that do not match opts.EntryExt are never read. Cancellation stops
// the loop between entries.
func ProcessArchive(ctx context.Context, path string, opts Options) ArchiveResult {
	res := ArchiveResult{Path: path}

	r, err := archive.Open(path, opts.MaxEntrySize)
	if err != nil {
		res.Diagnostics = append(res.Diagnostics, report.NewArchiveError(path, cause(err)))
		return res
	}
	defer r.Close()

	res.EntriesListed = len(r.Entries())
	checker := opts.checker()

	for _, e := range r.Matching(opts.EntryExt) {
		if ctx.Err() != nil {
			return res
		}
		data, err := r.Read(e)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, report.NewEntryReadError(path, e.Name, cause(err)))
			continue
		}
		res.EntriesChecked++
		res.BytesChecked += uint64(len(data))

		if c := checker.Check(data); c.Corrupt() {
			res.Diagnostics = append(res.Diagnostics, report.NewEntryCorrupted(path, e.Name, c))
		}
	}
	return res
}

// cause strips the archive error wrapper so diagnostics carry only the
// underlying detail; the archive and entry are already in the diagnostic.
func cause(err error) error {
	var oe *archive.OpenError
	if errors.As(err, &oe) {
		return oe.Err
	}
	var re *archive.ReadError
	if errors.As(err, &re) {
		return re.Err
	}
	return err
}
