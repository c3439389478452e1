package executor

import (
	"sync"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
)

// Sink receives the human readable progress lines of an executor.
type Sink func(line string)

// LoggerSink forwards every line to logger at info level.
func LoggerSink(logger sdklogging.Logger) Sink {
	if logger == nil {
		return func(string) {}
	}
	return func(line string) {
		logger.Info(line)
	}
}

// Capture records every line it sees and passes it on to next.
type Capture struct {
	mu    sync.Mutex
	lines []string
	next  Sink
}

func NewCapture(next Sink) *Capture {
	return &Capture{next: next}
}

func (c *Capture) Sink() Sink {
	return func(line string) {
		c.mu.Lock()
		c.lines = append(c.lines, line)
		c.mu.Unlock()
		if c.next != nil {
			c.next(line)
		}
	}
}

// Lines returns a copy of everything captured so far.
func (c *Capture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.lines...)
}
