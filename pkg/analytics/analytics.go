// Package analytics runs the metric suite over a projection: degree
// centralities, k-core decomposition, local clustering, PageRank,
// Louvain community detection, sampled betweenness and closeness, and
// eigenvector centrality, in that fixed order.
//
// Every algorithm is deterministic given identical inputs and an
// identical RNG seed. Expensive stages carry independent wall-clock
// budgets; exceeding one yields a diagnostic and a partial or zeroed
// vector, never a failed build.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/topograph-dev/topograph/pkg/graphbuild"
	"github.com/topograph-dev/topograph/pkg/history"
	"github.com/topograph-dev/topograph/pkg/progress"
	"github.com/topograph-dev/topograph/pkg/projection"
)

// Metric names used for timeout configuration and diagnostics.
const (
	MetricBetweenness = "betweenness"
	MetricLouvain     = "louvain"
)

// DefaultExpensiveTimeout bounds betweenness and Louvain when the
// caller doesn't set an explicit budget.
const DefaultExpensiveTimeout = 30 * time.Second

// Options configures one analytics run.
type Options struct {
	// SampleSize overrides the betweenness/closeness source sample.
	// Zero applies the default min(N, max(256, ceil(N/16))).
	SampleSize int

	// Seed fixes every random choice: the betweenness sample and the
	// Louvain tie-break order.
	Seed uint64

	// Timeouts maps metric name to wall-clock budget. Missing entries
	// fall back to DefaultExpensiveTimeout.
	Timeouts map[string]time.Duration

	Reporter progress.Reporter
}

func (o Options) timeout(metric string) time.Duration {
	if d, ok := o.Timeouts[metric]; ok && d > 0 {
		return d
	}
	return DefaultExpensiveTimeout
}

// Diagnostic records a non-fatal analytics event, typically a budget
// overrun on an expensive stage.
type Diagnostic struct {
	Metric  string `json:"metric"`
	Partial bool   `json:"partial"`
	Message string `json:"message"`
}

// Result holds one vector per metric, all indexed by projection-local
// node index. Vectors flagged Partial were cut short by a budget and
// carry whatever was computed when the budget fired.
type Result struct {
	InDegree    []int
	OutDegree   []int
	TotalDegree []int

	InDegreeNorm    []float64
	OutDegreeNorm   []float64
	TotalDegreeNorm []float64

	WeightedInDegree  []float64
	WeightedOutDegree []float64

	KCore       []int
	Clustering  []float64
	PageRank    []float64
	Betweenness []float64
	Closeness   []float64
	Eigenvector []float64

	Community      []int
	CommunityCount int
	Modularity     float64

	// CyclicSCCs counts strongly connected components larger than one
	// (circular dependency groups).
	CyclicSCCs int

	BetweennessPartial bool
	LouvainTimedOut    bool

	// Quality signals, aligned to the same local indices. Each Has*
	// flag records whether the signal's source existed at all; absent
	// signals stay zero and are excluded from composite weighting.
	LOC        []int
	Complexity []int
	Churn      []int
	Owners     []int
	Coverage   []float64
	HasChurn   bool
	HasOwners  bool

	Diagnostics []Diagnostic
}

// Run executes the metric suite over the imports projection in the
// fixed stage order. Cancellation is honored at stage boundaries and
// at every outer iteration inside the iterative algorithms; on
// cancellation the last completed vectors are returned along with
// ctx.Err().
func Run(ctx context.Context, g *projection.Graph, ug *graphbuild.UnionGraph, signals *history.Signals, opts Options) (*Result, error) {
	n := g.N()
	r := &Result{
		InDegree: make([]int, n), OutDegree: make([]int, n), TotalDegree: make([]int, n),
		InDegreeNorm: make([]float64, n), OutDegreeNorm: make([]float64, n), TotalDegreeNorm: make([]float64, n),
		WeightedInDegree: make([]float64, n), WeightedOutDegree: make([]float64, n),
		KCore: make([]int, n), Clustering: make([]float64, n),
		PageRank: make([]float64, n), Betweenness: make([]float64, n),
		Closeness: make([]float64, n), Eigenvector: make([]float64, n),
		Community: make([]int, n),
		LOC:       make([]int, n), Complexity: make([]int, n),
		Churn: make([]int, n), Owners: make([]int, n), Coverage: make([]float64, n),
	}
	if n == 0 {
		return r, nil
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Noop
	}
	tracker := progress.NewTracker(progress.StageAnalyzing, reporter)
	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{"degrees", func(context.Context) error { computeDegrees(g, r); return nil }},
		{"k-core", func(context.Context) error { computeKCore(g, r); return nil }},
		{"clustering", func(context.Context) error { computeClustering(g, r); return nil }},
		{"pagerank", func(ctx context.Context) error { return computePageRank(ctx, g, r) }},
		{"louvain", func(ctx context.Context) error { return computeCommunities(ctx, g, r, opts) }},
		{"betweenness", func(ctx context.Context) error { return computeBetweenness(ctx, g, r, opts) }},
		{"closeness", func(ctx context.Context) error { return computeCloseness(ctx, g, r, opts) }},
		{"eigenvector", func(ctx context.Context) error { return computeEigenvector(ctx, g, r) }},
	}
	tracker.SetTotal(len(stages) + 1)

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return r, err
		}
		if err := stage.run(ctx); err != nil {
			return r, err
		}
		tracker.Tick(stage.name)
	}

	computeSCCs(g, r)
	attachQuality(g, ug, signals, r)
	tracker.Tick("quality")

	return r, nil
}

// SampleSize applies the sampling rule min(N, max(256, ceil(N/16))).
func SampleSize(n, override int) int {
	if override > 0 {
		if override > n {
			return n
		}
		return override
	}
	size := int(math.Ceil(float64(n) / 16))
	if size < 256 {
		size = 256
	}
	if size > n {
		size = n
	}
	return size
}

func (r *Result) addDiagnostic(metric string, partial bool, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Metric:  metric,
		Partial: partial,
		Message: fmt.Sprintf(format, args...),
	})
}
