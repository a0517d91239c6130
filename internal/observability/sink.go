package observability

import (
	"fmt"
	"io"
	"sync"
)

// Sink writes engine progress and warnings to the operator's terminal and
// keeps a structured copy of each warning. It satisfies migrate.Sink.
type Sink struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	logger   Logger
	warnings []string
}

// NewSink returns a Sink printing progress to out and warnings to errOut.
// Nil writers discard; a nil logger drops the structured copy.
func NewSink(logger Logger, out, errOut io.Writer) *Sink {
	if logger == nil {
		logger = Discard()
	}
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return &Sink{out: out, errOut: errOut, logger: logger.WithComponent("migrate")}
}

// Progress prints one progress line.
func (s *Sink) Progress(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, line)
}

// Warn prints a warning and records it. The log copy is at debug level;
// the operator already sees the printed line.
func (s *Sink) Warn(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.errOut, msg)
	s.warnings = append(s.warnings, msg)
	s.logger.Debug("migration warning", "message", msg)
}

// Warnings returns the warnings seen so far, oldest first.
func (s *Sink) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.warnings))
	copy(out, s.warnings)
	return out
}
