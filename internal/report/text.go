package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrWrite wraps every failure to create or write a report file.
var ErrWrite = errors.New("write report")

// Render writes the text report for diags to w.
func Render(w io.Writer, diags []Diagnostic) error {
	bw := bufio.NewWriter(w)
	if len(diags) == 0 {
		fmt.Fprintln(bw, "No corrupted WebP files found.")
		return bw.Flush()
	}
	fmt.Fprintf(bw, "Found %d corrupted WebP files:\n", len(diags))
	for _, d := range diags {
		fmt.Fprintln(bw, d.String())
	}
	return bw.Flush()
}

// WriteText creates or truncates path and writes the text report to it.
func WriteText(path string, diags []Diagnostic) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrWrite, path, err)
	}
	if err := Render(f, diags); err != nil {
		f.Close()
		return fmt.Errorf("%w %s: %w", ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWrite, path, err)
	}
	return nil
}
