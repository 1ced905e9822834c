package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/backmassage/cbzscan/internal/imagecheck"
)

// Summary carries the run totals written to the JSON report and the
// database.
type Summary struct {
	Archives       int                      `json:"archives"`
	ArchiveErrors  int                      `json:"archive_errors"`
	EntriesListed  int                      `json:"entries_listed"`
	EntriesChecked int                      `json:"entries_checked"`
	BytesChecked   uint64                   `json:"bytes_checked"`
	Unreadable     int                      `json:"unreadable"`
	Corrupted      int                      `json:"corrupted"`
	ByClass        map[imagecheck.Class]int `json:"by_class,omitempty"`
}

// Issues is the number of report lines: every diagnostic counts once.
func (s Summary) Issues() int { return s.ArchiveErrors + s.Unreadable + s.Corrupted }

// Count adds the diagnostic tallies of diags to s.
func (s *Summary) Count(diags []Diagnostic) {
	for _, d := range diags {
		switch d.Kind {
		case ArchiveError:
			s.ArchiveErrors++
		case EntryReadError:
			s.Unreadable++
		case EntryCorrupted:
			s.Corrupted++
			if d.Class != "" {
				if s.ByClass == nil {
					s.ByClass = make(map[imagecheck.Class]int)
				}
				s.ByClass[d.Class]++
			}
		}
	}
}

// Document is the JSON report.
type Document struct {
	RunID       string       `json:"run_id"`
	ToolVersion string       `json:"tool_version"`
	Root        string       `json:"root"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Summary     Summary      `json:"summary"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// WriteJSON creates or truncates path and writes doc as indented JSON.
func WriteJSON(path string, doc *Document) error {
	if doc.Diagnostics == nil {
		doc.Diagnostics = []Diagnostic{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrWrite, path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWrite, path, err)
	}
	return nil
}
