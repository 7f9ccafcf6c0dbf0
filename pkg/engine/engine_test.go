package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topograph-dev/topograph/pkg/ast"
	"github.com/topograph-dev/topograph/pkg/compose"
	"github.com/topograph-dev/topograph/pkg/progress"
	"github.com/topograph-dev/topograph/pkg/testutil"
)

func analyze(t *testing.T, files map[string]string, opts Options) *AnalysisResult {
	t.Helper()
	root := testutil.WriteTree(t, files)
	result, err := New().Analyze(context.Background(), root, opts)
	require.NoError(t, err)
	return result
}

func record(t *testing.T, result *AnalysisResult, base string) *compose.NodeRecord {
	t.Helper()
	for i := range result.Nodes {
		if filepath.Base(result.Nodes[i].Path) == base {
			return &result.Nodes[i]
		}
	}
	t.Fatalf("no record for %s", base)
	return nil
}

// Scenario: three-file relative import chain in the scripting family.
func TestAnalyzeImportChain(t *testing.T) {
	result := analyze(t, map[string]string{
		"a.ts": "import { x } from './b';\n",
		"b.ts": "import { y } from './c';\nexport const x = 1;\n",
		"c.ts": "export const y = 2;\n",
	}, Options{RNGSeed: 1})

	assert.Equal(t, StateReady, result.State)
	require.Len(t, result.Nodes, 3)

	a, b, c := record(t, result, "a.ts"), record(t, result, "b.ts"), record(t, result, "c.ts")
	assert.Greater(t, c.Raw.PagerankImports, b.Raw.PagerankImports)
	assert.Greater(t, b.Raw.PagerankImports, a.Raw.PagerankImports)

	assert.Equal(t, 0, a.Community)
	assert.Equal(t, 0, b.Community)
	assert.Equal(t, 0, c.Community)
	assert.Equal(t, 1, result.Summary.CommunityCount)
	assert.Equal(t, 2, result.Summary.TotalEdges)

	for _, d := range result.Diagnostics {
		assert.NotContains(t, d.Message, "dangling")
	}
}

// Scenario: duplicate imports coalesce into one weighted edge.
func TestAnalyzeDuplicateImportCoalescing(t *testing.T) {
	result := analyze(t, map[string]string{
		"m.py":    "from .util import A\nfrom .util import B\n",
		"util.py": "A = 1\nB = 2\n",
	}, Options{RNGSeed: 1})

	assert.Equal(t, StateReady, result.State)
	util := record(t, result, "util.py")
	assert.Equal(t, 1, util.Raw.Indegree)

	importEdges := 0
	for _, e := range result.Graph.Edges {
		if e.Kind == ast.RelImports {
			importEdges++
			assert.Equal(t, 2.0, e.Weight)
		}
	}
	assert.Equal(t, 1, importEdges)
}

// Scenario: bare imports are external, never edges.
func TestAnalyzeBareImportIsExternal(t *testing.T) {
	result := analyze(t, map[string]string{
		"app.js":   "import React from 'react';\nimport './local';\n",
		"local.js": "\n",
	}, Options{RNGSeed: 1})

	assert.Equal(t, StateReady, result.State)

	importEdges := 0
	for _, e := range result.Graph.Edges {
		if e.Kind == ast.RelImports {
			importEdges++
		}
	}
	assert.Equal(t, 1, importEdges)

	foundReact := false
	for _, d := range result.Diagnostics {
		if d.Kind == KindResolve && strings.Contains(d.Message, `"react"`) {
			foundReact = true
		}
	}
	assert.True(t, foundReact, "react descriptor should surface in diagnostics")
}

// Scenario: an exhausted betweenness budget still yields DTOs.
func TestAnalyzeBetweennessTimeoutIsPartial(t *testing.T) {
	files := make(map[string]string, 12)
	for i := 0; i < 12; i++ {
		next := ""
		if i < 11 {
			next = fmt.Sprintf("import './f%02d';\n", i+1)
		}
		files[fmt.Sprintf("f%02d.js", i)] = next
	}

	result := analyze(t, files, Options{
		RNGSeed:           1,
		AlgorithmTimeouts: map[string]time.Duration{"betweenness": time.Nanosecond},
	})

	assert.Equal(t, StateReady, result.State)
	assert.True(t, result.Summary.BetweennessPartial)
	require.Len(t, result.Nodes, 12)

	timeoutDiag := false
	for _, d := range result.Diagnostics {
		if d.Kind == KindMetricTimeout && d.Metric == "betweenness" {
			timeoutDiag = true
		}
	}
	assert.True(t, timeoutDiag)

	for _, rec := range result.Nodes {
		assert.GreaterOrEqual(t, rec.Chokepoint, 0.0)
		assert.LessOrEqual(t, rec.Chokepoint, 1.0)
	}
}

// Scenario: single-file repo with one class and two methods.
func TestAnalyzeSingleFileRepo(t *testing.T) {
	result := analyze(t, map[string]string{
		"store.ts": "class Store {\n  get() { return 1; }\n  set() { return 2; }\n}\n",
	}, Options{RNGSeed: 1})

	assert.Equal(t, StateReady, result.State)

	var files, classes, methods, contains int
	for _, n := range result.Graph.Nodes {
		switch n.Kind {
		case ast.KindFile:
			files++
		case ast.KindClass:
			classes++
		case ast.KindMethod:
			methods++
		}
	}
	for _, e := range result.Graph.Edges {
		if e.Kind == ast.RelContains {
			contains++
		}
	}
	assert.Equal(t, 1, files)
	assert.Equal(t, 1, classes)
	assert.Equal(t, 2, methods)
	assert.Equal(t, 3, contains)

	require.Len(t, result.Nodes, 1)
	rec := result.Nodes[0]
	assert.InDelta(t, 1.0, rec.Raw.PagerankImports, 1e-9)
	assert.Equal(t, 0, rec.Community)
	assert.Equal(t, 1, result.Summary.CommunityCount)
	assert.Equal(t, 0.0, rec.Chokepoint)
	assert.Greater(t, rec.Importance, 0.0)
}

// Scenario: a parse error is localized to its file.
func TestAnalyzeParseErrorIsLocalized(t *testing.T) {
	result := analyze(t, map[string]string{
		"broken.ts": "import {\n",
		"ok.ts":     "export const fine = true;\n",
	}, Options{RNGSeed: 1})

	assert.Equal(t, StateReady, result.State)

	brokenSeen := false
	for _, n := range result.Graph.Nodes {
		if n.Kind == ast.KindFile && filepath.Base(n.File) == "broken.ts" {
			brokenSeen = true
		}
	}
	assert.True(t, brokenSeen, "broken.ts must still appear as a File node")

	parseDiags := 0
	for _, d := range result.Diagnostics {
		if d.Kind == KindParseFile {
			parseDiags++
		}
	}
	assert.GreaterOrEqual(t, parseDiags, 1)
	assert.Len(t, result.Nodes, 2)
}

func TestAnalyzeMissingRootFails(t *testing.T) {
	result, err := New().Analyze(context.Background(), "/no/such/root", Options{})
	require.Error(t, err)
	assert.Equal(t, StateFailed, result.State)
	var eerr *Error
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, KindDiscovery, eerr.Kind)
}

func TestAnalyzeDeterministicAcrossRuns(t *testing.T) {
	files := map[string]string{
		"a.ts":     "import './b';\nimport './c';\n",
		"b.ts":     "import './c';\n",
		"c.ts":     "export const x = 1;\n",
		"d/e.ts":   "import '../a';\n",
		"broken.c": "#include \"c.h\"\nint main( {\n",
	}
	root := testutil.WriteTree(t, files)

	run := func() []compose.NodeRecord {
		result, err := New().Analyze(context.Background(), root, Options{RNGSeed: 42})
		require.NoError(t, err)
		return result.Nodes
	}

	first, _ := json.Marshal(run())
	second, _ := json.Marshal(run())
	assert.Equal(t, string(first), string(second))
}

func TestAnalyzeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := testutil.WriteTree(t, map[string]string{"a.ts": "export const x = 1;\n"})
	result, err := New().Analyze(ctx, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, result.State)
}

func TestAnalyzeEmitsProgressAndTerminalEvent(t *testing.T) {
	var events []progress.Event
	reporter := progress.ReporterFunc(func(e progress.Event) { events = append(events, e) })

	analyze(t, map[string]string{
		"a.ts": "import './b';\n",
		"b.ts": "export const x = 1;\n",
	}, Options{RNGSeed: 1, Reporter: reporter})

	require.NotEmpty(t, events)
	stages := make(map[progress.Stage]bool)
	for _, e := range events {
		stages[e.Stage] = true
	}
	assert.True(t, stages[progress.StageDiscovering])
	assert.True(t, stages[progress.StageParsing])
	assert.True(t, stages[progress.StageAnalyzing])
	assert.Equal(t, progress.StageReady, events[len(events)-1].Stage)
}

func TestRecomputeMetricsSkipsParsing(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"a.ts": "import './b';\n",
		"b.ts": "export const x = 1;\n",
	})
	eng := New()
	first, err := eng.Analyze(context.Background(), root, Options{RNGSeed: 7})
	require.NoError(t, err)

	second, err := eng.RecomputeMetrics(context.Background(), first, Options{RNGSeed: 7})
	require.NoError(t, err)
	assert.Equal(t, StateReady, second.State)
	require.Len(t, second.Nodes, len(first.Nodes))
	for i := range first.Nodes {
		assert.Equal(t, first.Nodes[i].Raw.PagerankImports, second.Nodes[i].Raw.PagerankImports)
		assert.Equal(t, first.Nodes[i].Community, second.Nodes[i].Community)
	}
}

func TestRecomputeWithoutGraphFails(t *testing.T) {
	_, err := New().RecomputeMetrics(context.Background(), nil, Options{})
	require.Error(t, err)
}

func TestTopBy(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"a.ts": "import './c';\n",
		"b.ts": "import './c';\n",
		"c.ts": "export const x = 1;\n",
	})
	eng := New()
	_, err := eng.Analyze(context.Background(), root, Options{RNGSeed: 1})
	require.NoError(t, err)

	top, err := eng.TopBy("indegree", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "c.ts", filepath.Base(top[0].Path))

	all, err := eng.TopBy("importance", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = eng.TopBy("nope", 3)
	require.Error(t, err)
}

func TestTopByWithoutCachedResult(t *testing.T) {
	_, err := New().TopBy("importance", 3)
	require.Error(t, err)
}

func TestResultInvariants(t *testing.T) {
	result := analyze(t, map[string]string{
		"a.ts": "import './b';\nimport './c';\n",
		"b.ts": "import './c';\n",
		"c.ts": "import './a';\n", // cycle
		"d.py": "from .e import X\n",
		"e.py": "X = 1\n",
	}, Options{RNGSeed: 3})

	assert.Equal(t, StateReady, result.State)
	assert.Equal(t, 1, result.Summary.CircularGroups)

	ids := make(map[string]bool, len(result.Graph.Nodes))
	for _, n := range result.Graph.Nodes {
		ids[n.ID] = true
	}
	for _, e := range result.Graph.Edges {
		assert.True(t, ids[e.From], "edge source must exist")
		assert.True(t, ids[e.To], "edge target must exist")
	}

	for _, rec := range result.Nodes {
		for label, v := range map[string]float64{
			"importance": rec.Importance, "risk": rec.Risk,
			"chokepoint": rec.Chokepoint, "payoff": rec.Payoff,
			"nPagerank": rec.Normalized.PagerankImports, "nIndegree": rec.Normalized.Indegree,
			"nKCore": rec.Normalized.KCore, "nClustering": rec.Normalized.Clustering,
			"nBetweenness": rec.Normalized.Betweenness, "nChurn": rec.Normalized.Churn,
			"nComplexity": rec.Normalized.Complexity, "nOwners": rec.Normalized.Owners,
			"nCoverage": rec.Normalized.Coverage,
		} {
			assert.GreaterOrEqual(t, v, 0.0, label)
			assert.LessOrEqual(t, v, 1.0, label)
		}
		assert.Equal(t, compose.Version, rec.Version)
	}
}
