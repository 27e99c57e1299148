package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// Activity is a single spinning line for one long operation, such as a
// wakatime-cli download outside the bootstrap table.
type Activity struct {
	w       io.Writer
	label   string
	started time.Time
	frames  spinner.Spinner

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// StartActivity begins redrawing "<frame> label (elapsed)" on w.
func StartActivity(w io.Writer, label string) *Activity {
	a := &Activity{
		w:       w,
		label:   label,
		started: time.Now(),
		frames:  spinner.MiniDot,
		stop:    make(chan struct{}),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

// Stop erases the line. Calling it more than once is harmless.
func (a *Activity) Stop() {
	a.once.Do(func() {
		close(a.stop)
		a.wg.Wait()
		fmt.Fprint(a.w, "\r\033[K")
	})
}

func (a *Activity) run() {
	defer a.wg.Done()
	ticker := time.NewTicker(a.frames.FPS)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			glyph := a.frames.Frames[frame%len(a.frames.Frames)]
			fmt.Fprintf(a.w, "\r\033[K%s %s (%s)", glyph, a.label, formatElapsed(time.Since(a.started)))
		}
	}
}

func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
