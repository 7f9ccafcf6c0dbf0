// Package progress renders the engine's abstract progress-event
// stream on a terminal. It is the only place that knows about a
// progress bar; the engine itself emits events through the
// pkg/progress Reporter interface and never imports this package.
package progress

import (
	"fmt"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/topograph-dev/topograph/pkg/progress"
)

// BarReporter adapts engine progress events onto a terminal progress
// bar, one bar per pipeline stage. Safe for concurrent use; parsing
// and analytics report from multiple workers.
type BarReporter struct {
	mu    sync.Mutex
	stage progress.Stage
	bar   *progressbar.ProgressBar
}

// NewBarReporter creates a reporter that renders to stderr.
func NewBarReporter() *BarReporter {
	return &BarReporter{}
}

// Report implements progress.Reporter.
func (r *BarReporter) Report(e progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Stage {
	case progress.StageReady:
		r.finish()
		return
	case progress.StageFailed:
		r.finish()
		fmt.Fprintf(os.Stderr, "  failed: %s\n", e.Message)
		return
	}

	if e.Stage != r.stage {
		r.finish()
		r.stage = e.Stage
		r.bar = newStageBar(string(e.Stage))
	}
	if r.bar != nil {
		_ = r.bar.Set(int(e.Percentage * 10)) // bar counts in 0.1% steps
	}
}

func (r *BarReporter) finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
		_ = r.bar.Clear()
		r.bar = nil
	}
	r.stage = ""
}

func newStageBar(label string) *progressbar.ProgressBar {
	return progressbar.NewOptions(1000,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
