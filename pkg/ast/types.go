package ast

// NodeKind is the kind of a SyntacticNode.
type NodeKind string

const (
	KindFile      NodeKind = "File"
	KindModule    NodeKind = "Module"
	KindClass     NodeKind = "Class"
	KindInterface NodeKind = "Interface"
	KindFunction  NodeKind = "Function"
	KindMethod    NodeKind = "Method"
	KindVariable  NodeKind = "Variable"
	KindProperty  NodeKind = "Property"
	KindImport    NodeKind = "Import"
	KindExport    NodeKind = "Export"
)

// RelationshipKind is the kind of a Relationship between two nodes.
type RelationshipKind string

const (
	RelContains   RelationshipKind = "Contains"
	RelCalls      RelationshipKind = "Calls"
	RelImports    RelationshipKind = "Imports"
	RelExports    RelationshipKind = "Exports"
	RelExtends    RelationshipKind = "Extends"
	RelImplements RelationshipKind = "Implements"
	RelReferences RelationshipKind = "References"
)

// defaultWeight is the per-kind edge weighting the graph builder
// applies whenever a parser leaves a relationship's Weight unset.
// Display and debug paths only; the imports projection uses the
// resolved-descriptor-count weighting instead.
func (k RelationshipKind) defaultWeight() float64 {
	switch k {
	case RelContains:
		return 1.0
	case RelImports:
		return 2.0
	case RelExports:
		return 2.0
	case RelExtends, RelImplements:
		return 3.0
	case RelCalls:
		return 1.5
	case RelReferences:
		return 1.0
	default:
		return 1.0
	}
}

// DefaultWeight exposes defaultWeight for the graph builder.
func DefaultWeight(k RelationshipKind) float64 { return k.defaultWeight() }

// SyntacticNode is a single AST-derived entity: a file, a class, a
// function, and so on. It is immutable once a parser produces it.
type SyntacticNode struct {
	ID        string
	Kind      NodeKind
	Name      string
	File      string
	StartLine int
	EndLine   int
	Metadata  map[string]string
}

// Relationship links two nodes by id. Weight is optional; zero means
// "unset" and the builder fills in RelationshipKind's default.
type Relationship struct {
	SourceID string
	TargetID string
	Kind     RelationshipKind
	Weight   float64
	Metadata map[string]string
}

// ImportStyle classifies how an import's raw module string should be
// resolved.
type ImportStyle string

const (
	StyleRelative ImportStyle = "relative"
	StyleBare     ImportStyle = "bare"
	StyleSystem   ImportStyle = "system"
)

// ImportDescriptor is a per-file unresolved import, consumed and
// discarded by the graph builder once Step 3 of the build runs.
type ImportDescriptor struct {
	RawModule string
	Symbols   []string
	Line      int
	Style     ImportStyle
	Resolved  bool
}

// ParseError attaches a non-fatal per-file syntactic failure to a
// ParsedFile; it never halts the build.
type ParseError struct {
	Message string
	Line    int
}

// FileMetrics are the per-file quality/code signals a parser can
// supply, feeding §4.5's quality metrics when present.
type FileMetrics struct {
	LinesOfCode int
	Complexity  int
	Functions   int
	Classes     int
	Imports     int
	Exports     int
}

// ParsedFile is what a language parser returns for one file: the File
// node itself, its inner nodes, the intra-file relationships among
// them, unresolved imports, per-file metrics, and any parse errors.
type ParsedFile struct {
	Path        string
	FileNode    SyntacticNode
	InnerNodes  []SyntacticNode
	Relations   []Relationship
	Imports     []ImportDescriptor
	Metrics     FileMetrics
	ParseErrors []ParseError
}

// AllNodes returns the file node followed by every inner node,
// the full node set this ParsedFile contributes to the union graph.
func (p *ParsedFile) AllNodes() []SyntacticNode {
	nodes := make([]SyntacticNode, 0, len(p.InnerNodes)+1)
	nodes = append(nodes, p.FileNode)
	nodes = append(nodes, p.InnerNodes...)
	return nodes
}
