package display

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes returns a binary-unit size such as "1.5 MiB".
func FormatBytes(n uint64) string {
	return humanize.IBytes(n)
}

// FormatCount returns n with thousands separators ("12,345").
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatElapsed renders a run duration for the summary line: sub-second
// runs in milliseconds, shorter than a minute with one decimal, otherwise
// as "XmYYs" or "XhYYmZZs".
func FormatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// Plural returns singular when n == 1 and plural otherwise.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
