package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows an animated status line on stderr until stopped or until
// its context is cancelled. The message may change while it runs.
type Spinner struct {
	out    io.Writer
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	message string
	width   int

	stopOnce sync.Once
	stopped  chan struct{}
}

func newSpinner(ctx context.Context, message string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     os.Stderr,
		ctx:     sctx,
		cancel:  cancel,
		message: message,
		stopped: make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(format string, args ...any) {
	s.mu.Lock()
	s.message = fmt.Sprintf(format, args...)
	s.mu.Unlock()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.message)
	pad := ""
	if n := len(s.message) + 2; n < s.width {
		pad = strings.Repeat(" ", s.width-n)
	}
	fmt.Fprintf(s.out, "\r%s%s", line, pad)
	s.width = max(s.width, len(s.message)+2)
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// Stop stops the spinner and clears its line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.stopped
	})
}

// StopWithSuccess stops the spinner and prints a success line.
func (s *Spinner) StopWithSuccess(format string, args ...any) {
	s.Stop()
	printSuccess(format, args...)
}

// StopWithError stops the spinner and prints an error line.
func (s *Spinner) StopWithError(format string, args ...any) {
	s.Stop()
	printError(format, args...)
}
