package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows the phase of a long command on stderr. While a simulation
// runs it also shows the tick count and how many clusters are still forming.
type Spinner struct {
	out    io.Writer
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	phase string
	width int // widest line written, for clearing

	tick    atomic.Int64
	forming atomic.Int64

	once    sync.Once
	stopped chan struct{}
}

// newSpinner returns a spinner for phase that stops when ctx is done.
func newSpinner(ctx context.Context, phase string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	s := &Spinner{out: os.Stderr, ctx: ctx, cancel: cancel, phase: phase, stopped: make(chan struct{})}
	s.forming.Store(-1)
	return s
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
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

// Phase switches to the next stage of the command and drops any progress
// shown for the previous one.
func (s *Spinner) Phase(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
	s.tick.Store(0)
	s.forming.Store(-1)
}

// Progress records simulation progress. It matches the sim.WithProgress
// callback and is safe to call from the simulating goroutine.
func (s *Spinner) Progress(tick, forming int) {
	s.tick.Store(int64(tick))
	s.forming.Store(int64(forming))
}

// line renders the status text without the frame.
func (s *Spinner) line() string {
	text := s.phase
	if t := s.tick.Load(); t > 0 {
		text += " tick " + humanize.Comma(t)
	}
	if f := s.forming.Load(); f > 0 {
		text += fmt.Sprintf(", %d forming", f)
	} else if f == 0 {
		text += ", all formed"
	}
	return text
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text := s.line()
	pad := ""
	if n := len(text) + 2; n < s.width {
		pad = strings.Repeat(" ", s.width-n)
	} else {
		s.width = n
	}
	fmt.Fprintf(s.out, "\r%s %s%s", styleIconSpinner.Render(frame), StyleDim.Render(text), pad)
}

// Stop ends the animation and clears the line. Safe to call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.width > 0 {
			fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
		}
	})
}

// StopWithError stops the spinner and prints message as an error.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}
