package orchestrator

import (
	"fmt"
	"sync"
	"time"
)

// progressBuffer is the number of events held for a slow consumer.
const progressBuffer = 64

// ProgressReporter fans stage progress out to a single consumer. Emit never
// blocks the pipeline: events that do not fit the buffer are counted and
// dropped.
type ProgressReporter struct {
	mu      sync.Mutex
	ch      chan ProgressEvent
	closed  bool
	dropped int
	started map[Stage]time.Time
	now     func() time.Time
}

// NewProgressReporter returns a reporter with an empty buffer.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch:      make(chan ProgressEvent, progressBuffer),
		started: make(map[Stage]time.Time),
		now:     time.Now,
	}
}

// Emit stamps event with the time since its stage started working and
// queues it. Events after Close are ignored.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.closed {
		return
	}

	switch event.Status {
	case ProgressWorking:
		pr.started[event.Stage] = pr.now()
	case ProgressComplete, ProgressSkipped:
		if start, ok := pr.started[event.Stage]; ok && event.Elapsed == 0 {
			event.Elapsed = pr.now().Sub(start)
			delete(pr.started, event.Stage)
		}
	}

	select {
	case pr.ch <- event:
	default:
		pr.dropped++
	}
}

// Subscribe returns the event stream. It is closed by Close.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Dropped reports how many events were discarded on a full buffer.
func (pr *ProgressReporter) Dropped() int {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.dropped
}

// Close ends the event stream. Calling it again is a no-op.
func (pr *ProgressReporter) Close() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.closed {
		return
	}
	pr.closed = true
	close(pr.ch)
}

// FormatProgress renders one event as a status line for the terminal.
func FormatProgress(event ProgressEvent) string {
	var line string
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s queued", event.Stage)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s running", event.Stage)
	case ProgressComplete:
		line = fmt.Sprintf("  ✓ %s", event.Stage)
		if event.Message != "" {
			line += ": " + event.Message
		}
	case ProgressSkipped:
		line = fmt.Sprintf("  ✗ %s skipped: %s", event.Stage, event.Message)
	default:
		return fmt.Sprintf("  ? %s %s", event.Stage, event.Status)
	}
	if event.Elapsed > 0 {
		line += fmt.Sprintf(" [%s]", event.Elapsed.Round(time.Millisecond))
	}
	return line
}
