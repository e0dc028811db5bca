package logging

import (
	"strings"
	"sync"
)

const captureDepth = 16

// Capture is an io.Writer that keeps the most recent lines written to it, for the
// status endpoint. Safe for concurrent use.
type Capture struct {
	mu    sync.RWMutex
	lines []string
	next  int
	full  bool
}

// GlobalLogCapture holds the latest INFO+ server log lines.
var GlobalLogCapture = NewCapture(captureDepth)

// GlobalEventCapture holds the latest exhibit event lines.
var GlobalEventCapture = NewCapture(captureDepth)

// NewCapture creates a capture holding up to depth lines (at least one).
func NewCapture(depth int) *Capture {
	return &Capture{lines: make([]string, max(depth, 1))}
}

// Write stores p as one line, without its trailing newline.
func (c *Capture) Write(p []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines[c.next] = strings.TrimRight(string(p), "\n")
	c.next = (c.next + 1) % len(c.lines)
	if c.next == 0 {
		c.full = true
	}
	return len(p), nil
}

// Last returns the most recent line, or "" if nothing was written.
func (c *Capture) Last() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.full && c.next == 0 {
		return ""
	}
	return c.lines[(c.next-1+len(c.lines))%len(c.lines)]
}

// Tail returns up to n lines, oldest first.
func (c *Capture) Tail(n int) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := c.next
	if c.full {
		count = len(c.lines)
	}
	n = min(n, count)
	out := make([]string, 0, max(n, 0))
	for i := n; i > 0; i-- {
		out = append(out, c.lines[(c.next-i+len(c.lines))%len(c.lines)])
	}
	return out
}
