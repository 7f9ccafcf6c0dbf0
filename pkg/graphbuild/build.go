// Package graphbuild folds per-file parser output into a single union
// graph: it unions nodes, checks intra-file relationships, resolves
// import descriptors against the discovered file universe, and drops
// anything dangling so no projection ever sees an edge with a missing
// endpoint.
package graphbuild

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/topograph-dev/topograph/pkg/ast"
)

// Options configures one build.
type Options struct {
	// Extensions is the probe list for relative import resolution,
	// normally the same allowlist discovery ran with. Empty means
	// every extension the language table knows.
	Extensions []string
}

// Build folds parsed files into a UnionGraph. A node-id collision with
// conflicting payloads is fatal; everything else (unresolvable imports,
// dangling relationship endpoints) lands in Diagnostics and the build
// continues.
func Build(parsed []*ast.ParsedFile, opts Options) (*UnionGraph, *Diagnostics, error) {
	diags := &Diagnostics{}

	// Step 1: node union. Collisions on the same id are allowed only
	// when the payloads match.
	byID := make(map[string]ast.SyntacticNode)
	metricsByFile := make(map[string]ast.FileMetrics)
	for _, pf := range parsed {
		for _, n := range pf.AllNodes() {
			if prev, ok := byID[n.ID]; ok {
				if !samePayload(prev, n) {
					return nil, nil, &Error{
						NodeID: n.ID,
						Detail: fmt.Sprintf("payload mismatch: %s:%s@%d vs %s:%s@%d",
							prev.File, prev.Name, prev.StartLine, n.File, n.Name, n.StartLine),
					}
				}
				continue
			}
			byID[n.ID] = n
		}
		metricsByFile[pf.FileNode.ID] = pf.Metrics
	}

	// Dense indexing is assigned by sorted node id so two builds of
	// the same tree agree on indices regardless of parse order.
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	g := &UnionGraph{
		Nodes: make([]Node, len(ids)),
		index: make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		sn := byID[id]
		g.index[id] = i
		g.Nodes[i] = Node{
			Index:     i,
			ID:        id,
			Kind:      sn.Kind,
			Name:      sn.Name,
			File:      sn.File,
			StartLine: sn.StartLine,
			Language:  ast.DetectLanguage(sn.File),
			Metadata:  sn.Metadata,
		}
		if sn.Kind == ast.KindFile {
			g.Nodes[i].Metrics = metricsByFile[id]
		}
	}

	// Step 2: intra-file relationships, kept only when both endpoints
	// exist in the union. Parsers emit best-effort Extends/Implements
	// targets that often point outside the file; those drop here.
	type edgeKey struct {
		src, dst int
		kind     ast.RelationshipKind
	}
	weights := make(map[edgeKey]float64)
	for _, pf := range parsed {
		for _, rel := range pf.Relations {
			src, okS := g.index[rel.SourceID]
			dst, okD := g.index[rel.TargetID]
			if !okS || !okD {
				diags.DroppedEdges++
				continue
			}
			w := rel.Weight
			if w == 0 {
				w = ast.DefaultWeight(rel.Kind)
			}
			weights[edgeKey{src, dst, rel.Kind}] += w
		}
	}

	// Step 3: import resolution. One resolved descriptor contributes
	// weight 1 to its F-Imports->G edge; duplicates coalesce by
	// summation, which is what the imports projection reads.
	resolver := newResolver(byID, opts.Extensions)
	for _, pf := range parsed {
		srcIdx, ok := g.index[pf.FileNode.ID]
		if !ok {
			continue
		}
		external := 0
		for _, imp := range pf.Imports {
			switch imp.Style {
			case ast.StyleRelative:
				targetID, ok := resolver.resolve(pf.Path, imp.RawModule)
				if !ok {
					diags.UnresolvedImports = append(diags.UnresolvedImports, UnresolvedImport{
						File: pf.Path, RawModule: imp.RawModule, Line: imp.Line,
					})
					continue
				}
				dst := g.index[targetID]
				weights[edgeKey{srcIdx, dst, ast.RelImports}] += 1
			default:
				// Bare and system imports never resolve to a local
				// file; they stay metadata on the importing file.
				external++
				diags.ExternalImports = append(diags.ExternalImports, ExternalImport{
					File: pf.Path, RawModule: imp.RawModule, Style: imp.Style, Line: imp.Line,
				})
			}
		}
		if external > 0 {
			n := &g.Nodes[srcIdx]
			if n.Metadata == nil {
				n.Metadata = make(map[string]string, 1)
			}
			n.Metadata["externalImports"] = strconv.Itoa(external)
		}
	}

	// Materialize the coalesced edge set in deterministic order.
	g.Edges = make([]Edge, 0, len(weights))
	for k, w := range weights {
		g.Edges = append(g.Edges, Edge{Source: k.src, Target: k.dst, Kind: k.kind, Weight: w})
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		a, b := g.Edges[i], g.Edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Kind < b.Kind
	})

	return g, diags, nil
}

func samePayload(a, b ast.SyntacticNode) bool {
	return a.Kind == b.Kind && a.Name == b.Name && a.File == b.File && a.StartLine == b.StartLine
}
