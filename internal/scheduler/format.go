package scheduler

import (
	"fmt"
	"time"
)

// FormatInterval "N hours M minutes S seconds" по полным часам, без дней;
// единственное число только для значения 1.
func FormatInterval(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	hours := int64(d / time.Hour)
	minutes := int64(d % time.Hour / time.Minute)
	seconds := int64(d % time.Minute / time.Second)
	return fmt.Sprintf("%s %s %s",
		plural(hours, "hour"), plural(minutes, "minute"), plural(seconds, "second"))
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
