package console

import (
	"fmt"
	"time"

	"duoarb/internal/application/port"
)

type Sink struct{}

func NewSink() port.Sink { return &Sink{} }

// WriteSummary appends a timestamped status line, padded with blank lines so
// it stands out between log output.
func (s *Sink) WriteSummary(ts time.Time, line string) error {
	fmt.Print("\n")
	fmt.Printf("%s %s\n", ts.Format("2006-01-02 15:04:05"), line)
	fmt.Print("\n")
	return nil
}

func (s *Sink) NewLine() error {
	fmt.Print("\n")
	return nil
}
