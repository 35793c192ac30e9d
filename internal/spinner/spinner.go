// Package spinner draws a one-line progress indicator while the pipeline
// waits on the model.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const interval = 80 * time.Millisecond

// Enabled reports whether w is an interactive terminal. Redirected output
// gets no spinner.
func Enabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start displays an animated spinner with the given message and the elapsed
// seconds on w. Call the returned function to stop the spinner and clear the
// line; it is safe to call more than once.
func Start(w io.Writer, message string) (stop func()) {
	done := make(chan struct{})
	cleared := make(chan struct{})
	var stopOnce sync.Once

	started := time.Now()
	ticker := time.NewTicker(interval)

	go func() {
		defer close(cleared)
		defer ticker.Stop()

		width := 0
		for i := 0; ; i++ {
			select {
			case <-done:
				if width > 0 {
					fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", width)) //nolint:errcheck
				}
				return
			case <-ticker.C:
				line := fmt.Sprintf("%s %s (%ds)", frames[i%len(frames)], message, int(time.Since(started).Seconds()))
				// Pad over a longer previous line.
				n := runewidth.StringWidth(line)
				if n < width {
					line += strings.Repeat(" ", width-n)
				} else {
					width = n
				}
				fmt.Fprintf(w, "\r%s", line) //nolint:errcheck
			}
		}
	}()

	return func() {
		stopOnce.Do(func() {
			close(done)
		})
		<-cleared
	}
}
