// Package pipeline finds corrupted WebP pages across a tree of CBZ archives.
//
// Flow:
//   - Discover walks the root and returns matching archive paths, sorted.
//   - Scan fans the archives out over a fixed errgroup worker pool; each
//     worker runs ProcessArchive, which opens one archive, reads each
//     matching entry and hands its bytes to the image checker.
//   - Results are put back in discovery order before anything is written.
//   - Run writes the text report (and optional JSON report), logs the
//     summary, then hands the run to any configured publish sinks.
//
// Per-archive and per-entry failures never abort a run; they become
// report.Diagnostic values. Only cancellation, report write failures and
// publish failures are returned as errors.
package pipeline
