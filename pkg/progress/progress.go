// Package progress defines the engine's abstract progress-event
// stream: a Reporter receives {stage, percentage, message} events and
// is oblivious to how, or whether, a host renders them. The CLI host
// layer (internal/progress) is the only place that knows about a
// terminal progress bar; this package never imports a renderer.
package progress

import (
	"context"
	"sync/atomic"
)

// Stage is one of the pipeline's states.
type Stage string

const (
	StageDiscovering Stage = "Discovering"
	StageParsing     Stage = "Parsing"
	StageBuilding    Stage = "Building"
	StageProjecting  Stage = "Projecting"
	StageAnalyzing   Stage = "Analyzing"
	StageComposing   Stage = "Composing"
	StageReady       Stage = "Ready"
	StageFailed      Stage = "Failed"
)

// Event is one point in the progress stream.
type Event struct {
	Stage      Stage
	Percentage float64
	Message    string
}

// Reporter receives progress events. Implementations must be safe for
// concurrent use; parsing and analytics report from multiple workers.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(Event)

// Report implements Reporter.
func (f ReporterFunc) Report(e Event) {
	if f != nil {
		f(e)
	}
}

// Noop discards every event; the default when a host passes no reporter.
var Noop Reporter = ReporterFunc(nil)

// Tracker counts completed work within one stage and reports to a
// Reporter at least once per 0.5% of progress. It is safe for
// concurrent use by multiple parsing/analytics workers.
type Tracker struct {
	stage    Stage
	reporter Reporter
	total    atomic.Int64
	current  atomic.Int64
	lastUnit atomic.Int64 // last reported percentage, in units of 0.5%
}

// NewTracker creates a tracker for stage reporting to r. A nil r uses
// Noop.
func NewTracker(stage Stage, r Reporter) *Tracker {
	if r == nil {
		r = Noop
	}
	return &Tracker{stage: stage, reporter: r}
}

// SetTotal sets the amount of work this stage will process.
func (t *Tracker) SetTotal(n int) {
	t.total.Store(int64(n))
}

// Tick marks one unit of work done and reports if a 0.5% boundary was
// crossed since the last report.
func (t *Tracker) Tick(message string) {
	current := t.current.Add(1)
	total := t.total.Load()
	if total <= 0 {
		return
	}

	pct := float64(current) / float64(total) * 100
	unit := int64(pct * 2) // 0.5% granularity
	if unit > t.lastUnit.Load() || current == total {
		t.lastUnit.Store(unit)
		t.reporter.Report(Event{Stage: t.stage, Percentage: pct, Message: message})
	}
}

// Done emits a terminal 100% event for the stage.
func (t *Tracker) Done(message string) {
	t.reporter.Report(Event{Stage: t.stage, Percentage: 100, Message: message})
}

type trackerKey struct{}

// WithTracker returns a context carrying tracker, retrievable with
// TrackerFromContext, so code holding only the context can reach the
// tracker without it being passed as an explicit parameter.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext extracts the tracker set by WithTracker, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}
