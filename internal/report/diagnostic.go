// Package report holds the typed scan diagnostics and renders them to the
// text report and the JSON report.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/backmassage/cbzscan/internal/imagecheck"
)

// Kind tags which case of [Diagnostic] is populated.
type Kind int

const (
	ArchiveError   Kind = iota // archive could not be opened
	EntryReadError             // entry bytes could not be extracted
	EntryCorrupted             // entry extracted but failed to decode
)

var kindNames = map[Kind]string{
	ArchiveError:   "archive-error",
	EntryReadError: "entry-read-error",
	EntryCorrupted: "entry-corrupted",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	s, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown diagnostic kind %d", int(k))
	}
	return []byte(s), nil
}

// Diagnostic is one finding. Every diagnostic names exactly one archive and,
// except for ArchiveError, one entry.
type Diagnostic struct {
	Kind    Kind             `json:"kind"`
	Archive string           `json:"archive"`
	Entry   string           `json:"entry,omitempty"`
	Detail  string           `json:"detail,omitempty"`
	Class   imagecheck.Class `json:"class,omitempty"`
}

// NewArchiveError records an archive that could not be opened.
func NewArchiveError(archive string, cause error) Diagnostic {
	return Diagnostic{Kind: ArchiveError, Archive: archive, Detail: cause.Error()}
}

// NewEntryReadError records an entry that could not be extracted.
func NewEntryReadError(archive, entry string, cause error) Diagnostic {
	return Diagnostic{Kind: EntryReadError, Archive: archive, Entry: entry, Detail: cause.Error()}
}

// NewEntryCorrupted records an entry whose bytes failed to decode.
func NewEntryCorrupted(archive, entry string, res imagecheck.Result) Diagnostic {
	d := Diagnostic{Kind: EntryCorrupted, Archive: archive, Entry: entry, Class: res.Class}
	if res.Reason != nil {
		d.Detail = res.Reason.Error()
	}
	return d
}

// String renders the report line for d.
func (d Diagnostic) String() string {
	switch d.Kind {
	case ArchiveError:
		return "Error processing " + d.Archive + ": " + d.Detail
	case EntryReadError:
		return d.Archive + ":" + d.Entry + " (Error: " + d.Detail + ")"
	default:
		return d.Archive + ":" + d.Entry
	}
}

// MarshalJSON adds the rendered report line as "text".
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	type plain Diagnostic
	return json.Marshal(struct {
		plain
		Text string `json:"text"`
	}{plain(d), d.String()})
}
