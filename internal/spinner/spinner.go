// Package spinner animates a one-line status on a terminal.
package spinner

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const interval = 80 * time.Millisecond

// Spinner redraws its message on w until stopped.
type Spinner struct {
	w        io.Writer
	mu       sync.Mutex
	message  string
	widest   int
	done     chan struct{}
	cleared  chan struct{}
	stopOnce sync.Once
}

// Enabled reports whether w is a terminal that can show a spinner.
func Enabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start displays an animated spinner with the given message on w.
// Call Stop to clear the line.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{
		w:       w,
		done:    make(chan struct{}),
		cleared: make(chan struct{}),
	}
	s.Set(message)
	go s.loop()
	return s
}

// Set replaces the message shown next to the spinner.
func (s *Spinner) Set(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	s.widest = max(s.widest, runewidth.StringWidth(message)+2)
}

// Stop clears the line. It is safe to call more than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	<-s.cleared
}

func (s *Spinner) loop() {
	t := time.NewTicker(interval)
	defer t.Stop()
	for i := 0; ; i++ {
		select {
		case <-s.done:
			s.mu.Lock()
			fmt.Fprintf(s.w, "\r%*s\r", s.widest, "") //nolint:errcheck
			s.mu.Unlock()
			close(s.cleared)
			return
		case <-t.C:
			s.mu.Lock()
			line := fmt.Sprintf("%s %s", frames[i%len(frames)], s.message)
			fmt.Fprintf(s.w, "\r%s", runewidth.FillRight(line, s.widest)) //nolint:errcheck
			s.mu.Unlock()
		}
	}
}

// noop stands in for a spinner when output is not a terminal.
type noop struct{}

func (noop) Set(string) {}
func (noop) Stop()      {}

// Indicator is a running spinner or a silent stand-in.
type Indicator interface {
	Set(message string)
	Stop()
}

// StartIf starts a spinner only when w is a terminal.
func StartIf(w io.Writer, message string) Indicator {
	if !Enabled(w) {
		return noop{}
	}
	return Start(w, message)
}
