package pipeline

import (
	"time"

	"github.com/backmassage/cbzscan/internal/report"
)

// RunStats describes a finished run.
type RunStats struct {
	RunID      string
	Archives   int
	Workers    int
	Summary    report.Summary
	ReportPath string
	JSONPath   string
	Elapsed    time.Duration
}

// Issues returns the number of lines in the text report body.
func (s *RunStats) Issues() int { return s.Summary.Issues() }

// ArchivesPerSecond is the scan throughput; 0 for an instant run.
func (s *RunStats) ArchivesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Archives) / s.Elapsed.Seconds()
}
