// Package engine drives the analysis pipeline end to end:
// discovery → parsing → build → projection → analytics → composition,
// with cancellation honored at every stage boundary and non-fatal
// errors downgraded into the result's diagnostics list.
//
// A build is a value: the engine holds no global mutable state beyond
// the most recent AnalysisResult, cached at this public boundary so
// hosts can ask for top-K slices without recomputing.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/topograph-dev/topograph/internal/fileproc"
	"github.com/topograph-dev/topograph/pkg/analytics"
	"github.com/topograph-dev/topograph/pkg/ast"
	"github.com/topograph-dev/topograph/pkg/compose"
	"github.com/topograph-dev/topograph/pkg/discovery"
	"github.com/topograph-dev/topograph/pkg/graphbuild"
	"github.com/topograph-dev/topograph/pkg/history"
	"github.com/topograph-dev/topograph/pkg/models"
	"github.com/topograph-dev/topograph/pkg/parser"
	"github.com/topograph-dev/topograph/pkg/progress"
	"github.com/topograph-dev/topograph/pkg/projection"
)

// State is the build's lifecycle position. Transitions are
// sequential; Failed is reachable only from catastrophic I/O or
// invariant violations, Cancelled from explicit cancellation or the
// overall timeout.
type State string

const (
	StateIdle        State = "Idle"
	StateDiscovering State = "Discovering"
	StateParsing     State = "Parsing"
	StateBuilding    State = "Building"
	StateProjecting  State = "Projecting"
	StateAnalyzing   State = "Analyzing"
	StateComposing   State = "Composing"
	StateReady       State = "Ready"
	StateFailed      State = "Failed"
	StateCancelled   State = "Cancelled"
)

// AnalysisResult is one build's complete output: the graph as plain
// records, the per-node DTO list in ascending node-index order, the
// summary, and every non-fatal diagnostic.
type AnalysisResult struct {
	State       State                  `json:"state"`
	Graph       models.DependencyGraph `json:"graph"`
	Nodes       []compose.NodeRecord   `json:"nodes"`
	Summary     compose.Summary        `json:"summary"`
	Diagnostics []Diagnostic           `json:"diagnostics"`

	union *graphbuild.UnionGraph
}

// Engine runs builds and caches the most recent result for TopBy.
type Engine struct {
	registry *parser.Registry

	mu   sync.Mutex
	last *AnalysisResult
}

// New creates an engine with the default language registry.
func New() *Engine {
	return &Engine{registry: parser.DefaultRegistry()}
}

// Analyze runs the full pipeline on a root directory.
func (e *Engine) Analyze(ctx context.Context, root string, opts Options) (*AnalysisResult, error) {
	if opts.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.OverallTimeout)
		defer cancel()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Noop
	}

	result := &AnalysisResult{State: StateDiscovering}

	reporter.Report(progress.Event{Stage: progress.StageDiscovering, Message: root})
	files, skipped, err := discovery.Discover(root, discovery.Options{
		Extensions:  opts.Extensions,
		IgnoreGlobs: opts.IgnoreGlobs,
	})
	if err != nil {
		return e.fail(result, reporter, &Error{Kind: KindDiscovery, Message: "discovery failed", Err: err})
	}
	for _, s := range skipped {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Kind: KindDiscovery, Path: s.Path, Message: "skipped: " + s.Reason,
		})
	}
	if cancelled(ctx) {
		return e.cancel(result, reporter), nil
	}

	parsed := e.parseStage(ctx, files, opts, reporter, result)
	if cancelled(ctx) {
		return e.cancel(result, reporter), nil
	}

	return e.finishBuild(ctx, parsed, opts, reporter, result, root)
}

// AnalyzeFiles runs the pipeline on an externally-enumerated file
// set, the seam for hosts that bring their own discoverer (the CLI's
// at-revision analysis uses it with a git tree).
func (e *Engine) AnalyzeFiles(ctx context.Context, files []discovery.File, opts Options) (*AnalysisResult, error) {
	if opts.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.OverallTimeout)
		defer cancel()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Noop
	}
	result := &AnalysisResult{State: StateParsing}
	parsed := e.parseStage(ctx, files, opts, reporter, result)
	if cancelled(ctx) {
		return e.cancel(result, reporter), nil
	}
	// No history root: an external enumerator may not be backed by a
	// working tree at all.
	return e.finishBuild(ctx, parsed, opts, reporter, result, "")
}

func (e *Engine) parseStage(ctx context.Context, files []discovery.File, opts Options, reporter progress.Reporter, result *AnalysisResult) []*ast.ParsedFile {
	result.State = StateParsing
	tracker := progress.NewTracker(progress.StageParsing, reporter)
	tracker.SetTotal(len(files))

	// Stream's consumer callbacks run on a single goroutine, so the
	// aggregation below needs no locking.
	var parsed []*ast.ParsedFile
	fileproc.Stream(ctx, files, opts.Workers,
		func(f discovery.File) string { return f.Path },
		func(f discovery.File) (*ast.ParsedFile, error) {
			defer tracker.Tick(f.Path)
			return e.registry.Parse(f.Path, f.Content)
		},
		func(pf *ast.ParsedFile) {
			parsed = append(parsed, pf)
			for _, perr := range pf.ParseErrors {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{
					Kind: KindParseFile, Path: pf.Path,
					Message: fmt.Sprintf("line %d: %s", perr.Line, perr.Message),
				})
			}
		},
		func(ferr fileproc.Error) {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Kind: KindParseFile, Path: ferr.Path, Message: ferr.Err.Error(),
			})
		})
	return parsed
}

func (e *Engine) finishBuild(ctx context.Context, parsed []*ast.ParsedFile, opts Options, reporter progress.Reporter, result *AnalysisResult, historyRoot string) (*AnalysisResult, error) {
	result.State = StateBuilding
	reporter.Report(progress.Event{Stage: progress.StageBuilding, Message: fmt.Sprintf("%d files", len(parsed))})

	union, buildDiags, err := graphbuild.Build(parsed, graphbuild.Options{Extensions: opts.Extensions})
	if err != nil {
		return e.fail(result, reporter, &Error{Kind: KindBuild, Message: "node union failed", Err: err})
	}
	for _, u := range buildDiags.UnresolvedImports {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Kind: KindResolve, Path: u.File,
			Message: fmt.Sprintf("line %d: unresolvable import %q", u.Line, u.RawModule),
		})
	}
	for _, x := range buildDiags.ExternalImports {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Kind: KindResolve, Path: x.File,
			Message: fmt.Sprintf("line %d: external %s import %q", x.Line, x.Style, x.RawModule),
		})
	}
	if buildDiags.DroppedEdges > 0 {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Kind: KindBuild, Message: fmt.Sprintf("%d dangling relationships dropped", buildDiags.DroppedEdges),
		})
	}
	result.union = union
	result.Graph = models.FromUnion(union)
	if cancelled(ctx) {
		return e.cancel(result, reporter), nil
	}

	result.State = StateProjecting
	reporter.Report(progress.Event{Stage: progress.StageProjecting, Message: "imports projection"})
	imports := projection.Imports(union)
	calls := projection.Calls(union)
	if cancelled(ctx) {
		return e.cancel(result, reporter), nil
	}

	result.State = StateAnalyzing
	var signals *history.Signals
	if historyRoot != "" {
		// Best effort: no repository simply means no churn/ownership
		// signals, and the risk weights redistribute.
		if s, herr := history.Collect(ctx, historyRoot, history.Options{Days: opts.HistoryDays}); herr == nil {
			signals = s
		}
	}

	metrics, aerr := analytics.Run(ctx, imports, union, signals, analytics.Options{
		SampleSize: opts.BetweennessSampleSize,
		Seed:       opts.RNGSeed,
		Timeouts:   opts.AlgorithmTimeouts,
		Reporter:   reporter,
	})
	for _, d := range metrics.Diagnostics {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Kind: KindMetricTimeout, Metric: d.Metric, Message: d.Message,
		})
	}

	var callsPagerank map[int]float64
	if aerr == nil && calls.N() > 0 {
		if vec, perr := analytics.PageRankVector(ctx, calls); perr == nil {
			callsPagerank = make(map[int]float64, calls.N())
			for local, unionIdx := range calls.UnionIndex {
				callsPagerank[unionIdx] = vec[local]
			}
		}
	}

	result.State = StateComposing
	reporter.Report(progress.Event{Stage: progress.StageComposing, Message: "normalizing"})
	result.Nodes, result.Summary = compose.Compose(imports, union, metrics, callsPagerank)

	if aerr != nil || cancelled(ctx) {
		return e.cancel(result, reporter), nil
	}

	result.State = StateReady
	reporter.Report(progress.Event{Stage: progress.StageReady, Percentage: 100})
	e.store(result)
	return result, nil
}

// RecomputeMetrics reruns analytics and composition over an existing
// build's graph, skipping discovery, parsing, and the node union.
func (e *Engine) RecomputeMetrics(ctx context.Context, prior *AnalysisResult, opts Options) (*AnalysisResult, error) {
	if prior == nil || prior.union == nil {
		return nil, &Error{Kind: KindInternal, Message: "no graph to recompute from"}
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Noop
	}

	result := &AnalysisResult{
		State: StateAnalyzing,
		Graph: prior.Graph,
		union: prior.union,
	}
	imports := projection.Imports(prior.union)
	calls := projection.Calls(prior.union)

	metrics, aerr := analytics.Run(ctx, imports, prior.union, nil, analytics.Options{
		SampleSize: opts.BetweennessSampleSize,
		Seed:       opts.RNGSeed,
		Timeouts:   opts.AlgorithmTimeouts,
		Reporter:   reporter,
	})
	for _, d := range metrics.Diagnostics {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Kind: KindMetricTimeout, Metric: d.Metric, Message: d.Message,
		})
	}

	var callsPagerank map[int]float64
	if aerr == nil && calls.N() > 0 {
		if vec, perr := analytics.PageRankVector(ctx, calls); perr == nil {
			callsPagerank = make(map[int]float64, calls.N())
			for local, unionIdx := range calls.UnionIndex {
				callsPagerank[unionIdx] = vec[local]
			}
		}
	}

	result.State = StateComposing
	result.Nodes, result.Summary = compose.Compose(imports, prior.union, metrics, callsPagerank)

	if aerr != nil {
		return e.cancel(result, reporter), nil
	}
	result.State = StateReady
	reporter.Report(progress.Event{Stage: progress.StageReady, Percentage: 100})
	e.store(result)
	return result, nil
}

// TopBy returns the k highest nodes of the cached result by the named
// metric, descending, ties broken by ascending node index.
func (e *Engine) TopBy(metric string, k int) ([]compose.NodeRecord, error) {
	e.mu.Lock()
	last := e.last
	e.mu.Unlock()
	if last == nil {
		return nil, &Error{Kind: KindInternal, Message: "no cached analysis result"}
	}

	key, err := metricKey(metric)
	if err != nil {
		return nil, err
	}

	indices := make([]int, len(last.Nodes))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		va, vb := key(&last.Nodes[indices[a]]), key(&last.Nodes[indices[b]])
		if va != vb {
			return va > vb
		}
		return indices[a] < indices[b]
	})

	if k > len(indices) {
		k = len(indices)
	}
	out := make([]compose.NodeRecord, k)
	for i := 0; i < k; i++ {
		out[i] = last.Nodes[indices[i]]
	}
	return out, nil
}

// Metrics supported by TopBy.
func metricKey(metric string) (func(*compose.NodeRecord) float64, error) {
	switch strings.ToLower(metric) {
	case "importance":
		return func(r *compose.NodeRecord) float64 { return r.Importance }, nil
	case "risk":
		return func(r *compose.NodeRecord) float64 { return r.Risk }, nil
	case "chokepoint":
		return func(r *compose.NodeRecord) float64 { return r.Chokepoint }, nil
	case "payoff":
		return func(r *compose.NodeRecord) float64 { return r.Payoff }, nil
	case "pagerank":
		return func(r *compose.NodeRecord) float64 { return r.Raw.PagerankImports }, nil
	case "indegree":
		return func(r *compose.NodeRecord) float64 { return float64(r.Raw.Indegree) }, nil
	case "outdegree":
		return func(r *compose.NodeRecord) float64 { return float64(r.Raw.Outdegree) }, nil
	case "kcore":
		return func(r *compose.NodeRecord) float64 { return float64(r.Raw.KCore) }, nil
	case "betweenness":
		return func(r *compose.NodeRecord) float64 { return r.Raw.Betweenness }, nil
	case "churn":
		return func(r *compose.NodeRecord) float64 { return float64(r.Raw.Churn) }, nil
	case "complexity":
		return func(r *compose.NodeRecord) float64 { return float64(r.Raw.Complexity) }, nil
	default:
		return nil, &Error{Kind: KindInternal, Message: fmt.Sprintf("unknown metric %q", metric)}
	}
}

func (e *Engine) store(result *AnalysisResult) {
	e.mu.Lock()
	e.last = result
	e.mu.Unlock()
}

func (e *Engine) fail(result *AnalysisResult, reporter progress.Reporter, err *Error) (*AnalysisResult, error) {
	result.State = StateFailed
	reporter.Report(progress.Event{Stage: progress.StageFailed, Message: err.Error()})
	return result, err
}

func (e *Engine) cancel(result *AnalysisResult, reporter progress.Reporter) *AnalysisResult {
	result.State = StateCancelled
	reporter.Report(progress.Event{Stage: progress.StageFailed, Message: "cancelled"})
	return result
}

func cancelled(ctx context.Context) bool { return ctx.Err() != nil }
