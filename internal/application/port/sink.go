package port

import "time"

type Sink interface {
	// Summary line: append a timestamped status line.
	WriteSummary(ts time.Time, line string) error
	// Normal newline (for logs)
	NewLine() error
}
